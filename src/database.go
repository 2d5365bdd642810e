package main

import (
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Orm struct
type Orm struct {
	DB *gorm.DB
}

// NewDb init new database connection
func NewDb(config *HostConfig) (*Orm, error) {
	db, err := gorm.Open(config.Registry.Driver, config.Registry.Connection)
	if err != nil {
		return nil, errors.Wrap(err, "open registry database")
	}

	db.SingularTable(true)
	db.LogMode(config.Registry.Logging)

	// postgres is migrated by the migrate command, sqlite is meant for local runs
	if config.Registry.Driver == "sqlite3" {
		db.DB().SetMaxOpenConns(1)
		if err := db.AutoMigrate(&Bot{}).Error; err != nil {
			return nil, errors.Wrap(err, "migrate registry database")
		}
	}

	setCreatedAt := func(scope *gorm.Scope) {
		if scope.HasColumn("CreatedAt") {
			scope.SetColumn("CreatedAt", time.Now())
		}
	}

	db.Callback().Create().Replace("gorm:update_time_stamp", setCreatedAt)

	return &Orm{
		DB: db,
	}, nil
}

// Close connection
func (orm *Orm) Close() {
	orm.DB.Close()
}

type dbRegistry struct {
	orm *Orm
}

func (r *dbRegistry) Bots() (Bots, error) {
	var bots Bots
	err := r.orm.DB.Order("name").Find(&bots).Error

	return bots, errors.Wrap(err, "list bots")
}

func (r *dbRegistry) Add(b Bot) error {
	var count int
	if err := r.orm.DB.Model(&Bot{}).Where("name = ?", b.Name).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check bot name")
	}

	if count > 0 {
		return ErrBotExists
	}

	return r.create(b)
}

// create relies on the unique index when a concurrent Add got the name first
func (r *dbRegistry) create(b Bot) error {
	b.ID = 0

	err := r.orm.DB.Create(&b).Error
	if isUniqueViolation(err) {
		return ErrBotExists
	}

	return errors.Wrap(err, "create bot")
}

func isUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *pq.Error:
		return e.Code == "23505"
	case sqlite3.Error:
		return e.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

func (r *dbRegistry) FindByToken(token string) (*Bot, error) {
	var b Bot
	err := r.orm.DB.First(&b, "token = ?", token).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find bot by token")
	}

	return &b, nil
}

func (r *dbRegistry) Close() {
	r.orm.Close()
}
