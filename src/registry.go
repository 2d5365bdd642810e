package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Registry keeps the name to token mapping of every hosted bot
type Registry interface {
	Bots() (Bots, error)
	Add(b Bot) error
	FindByToken(token string) (*Bot, error)
}

// NewRegistry picks the registry backend from the configuration
func NewRegistry(c *HostConfig) (Registry, error) {
	switch c.Registry.Driver {
	case "file":
		return NewFileRegistry(c.Registry.File), nil
	case "postgres", "sqlite3":
		orm, err := NewDb(c)
		if err != nil {
			return nil, err
		}
		return &dbRegistry{orm: orm}, nil
	}

	return nil, errors.Errorf("unknown registry driver %q", c.Registry.Driver)
}

type fileRecord struct {
	Token string `json:"token"`
}

// FileRegistry stores bots in one JSON document: {"<name>": {"token": "<token>"}}
type FileRegistry struct {
	path string
	mu   sync.Mutex
}

func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

func (r *FileRegistry) load() (map[string]fileRecord, error) {
	records := map[string]fileRecord{}

	data, err := ioutil.ReadFile(r.path)
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read registry %s", r.path)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "parse registry %s", r.path)
	}

	return records, nil
}

func (r *FileRegistry) save(records map[string]fileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return errors.Wrapf(writeFileAtomic(r.path, data), "write registry %s", r.path)
}

// Bots returns every registered bot ordered by name
func (r *FileRegistry) Bots() (Bots, error) {
	r.mu.Lock()
	records, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	bots := make(Bots, 0, len(records))
	for name, rec := range records {
		bots = append(bots, Bot{Name: name, Token: rec.Token})
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i].Name < bots[j].Name })

	return bots, nil
}

func (r *FileRegistry) Add(b Bot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}

	if _, ok := records[b.Name]; ok {
		return ErrBotExists
	}

	records[b.Name] = fileRecord{Token: b.Token}

	return r.save(records)
}

func (r *FileRegistry) FindByToken(token string) (*Bot, error) {
	bots, err := r.Bots()
	if err != nil {
		return nil, err
	}

	for _, b := range bots {
		if b.Token == token {
			return &b, nil
		}
	}

	return nil, nil
}

// writeFileAtomic replaces path through a temp file in the same directory
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
