package main

import (
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate"
	_ "github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"github.com/pkg/errors"
)

func init() {
	parser.AddCommand("migrate",
		"Migrate the bot registry database to defined migrations version",
		"Migrate the bot registry database to defined migrations version. Only used with the postgres registry driver.",
		&MigrateCommand{})
}

// MigrateCommand struct
type MigrateCommand struct {
	Version string `short:"v" long:"version" default:"up" description:"Migrate to defined migrations version. Allowed: up, down, next, prev and integer value."`
	Path    string `short:"p" long:"path" default:"migrations" description:"Path to migrations files."`
}

// Execute command
func (x *MigrateCommand) Execute(args []string) error {
	config := LoadConfig(options.Config)

	if config.Registry.Driver != "postgres" {
		fmt.Printf("Registry driver is %s, nothing to migrate\n", config.Registry.Driver)
		return nil
	}

	err := Migrate(config.Registry.Connection, x.Version, x.Path)
	if err == migrate.ErrNoChange {
		fmt.Println("No changes detected. Skipping migration.")
		err = nil
	}

	return err
}

// Migrate applies the migrations in path to database
func Migrate(database string, version string, path string) error {
	m, err := migrate.New("file://"+path, database)
	if err != nil {
		fmt.Printf("Migrations path %s does not exist or permission denied\n", path)
		return err
	}

	defer m.Close()

	currentVersion, _, _ := m.Version()
	switch version {
	case "up":
		fmt.Printf("Migrating from %d to last\n", currentVersion)
		return m.Up()
	case "down":
		fmt.Printf("Migrating from %d to 0\n", currentVersion)
		return m.Down()
	case "next":
		fmt.Printf("Migrating from %d to next\n", currentVersion)
		return m.Steps(1)
	case "prev":
		fmt.Printf("Migrating from %d to previous\n", currentVersion)
		return m.Steps(-1)
	}

	ver, err := strconv.ParseUint(version, 10, 32)
	if err != nil {
		fmt.Printf("Invalid migration version %s\n", version)
		return err
	}

	if ver == 0 {
		return errors.New("migration version must be positive")
	}

	fmt.Printf("Migrating from %d to %d\n", currentVersion, ver)

	return m.Migrate(uint(ver))
}
