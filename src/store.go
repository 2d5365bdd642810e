package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	requiredChannelsFile = "REQUIRED_CHANNELS.json"
	authorsFile          = "AUTHOR.JSON"
)

// ConfigStore reads and writes the per-bot documents under the data directory:
//
//	<dir>/<bot_id>.json                     bot config
//	<dir>/<bot_id>/REQUIRED_CHANNELS.json   channels a user has to join
//	<dir>/<bot_id>/AUTHOR.JSON              owners and admins
type ConfigStore struct {
	dir   string
	cache Cacher
	ttl   time.Duration
}

func NewConfigStore(dir string, cache Cacher, ttl time.Duration) *ConfigStore {
	return &ConfigStore{dir: dir, cache: cache, ttl: ttl}
}

func (s *ConfigStore) configPath(botID string) string {
	return filepath.Join(s.dir, botID+".json")
}

// Load returns the bot config, or the default one when the bot has no file yet
func (s *ConfigStore) Load(botID string) (BotConfig, error) {
	var c BotConfig
	if err := s.cache.Get("config:"+botID, &c); err == nil {
		return c, nil
	}

	data, err := ioutil.ReadFile(s.configPath(botID))
	if os.IsNotExist(err) {
		return defaultBotConfig(), nil
	}
	if err != nil {
		return c, errors.Wrapf(err, "read config of bot %s", botID)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parse config of bot %s", botID)
	}

	if err := s.cache.Set("config:"+botID, c, s.ttl); err != nil {
		logger.Warningf("cache config of bot %s: %s", botID, err)
	}

	return c, nil
}

// Raw returns the config file exactly as stored
func (s *ConfigStore) Raw(botID string) ([]byte, error) {
	return ioutil.ReadFile(s.configPath(botID))
}

// Save replaces the whole config file. Only JSON syntax is checked.
func (s *ConfigStore) Save(botID string, content string) error {
	var v interface{}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return &InvalidJSONError{Err: err}
	}

	if err := writeFileAtomic(s.configPath(botID), []byte(content)); err != nil {
		return errors.Wrapf(err, "write config of bot %s", botID)
	}

	if err := s.cache.Delete("config:" + botID); err != nil {
		logger.Warningf("invalidate cached config of bot %s: %s", botID, err)
	}

	return nil
}

// CreateDefault writes the initial config of a new bot unless a file already exists
func (s *ConfigStore) CreateDefault(botID, name string) error {
	if _, err := os.Stat(s.configPath(botID)); err == nil {
		return nil
	}

	data, err := json.MarshalIndent(newBotConfig(name), "", "  ")
	if err != nil {
		return err
	}

	return errors.Wrapf(writeFileAtomic(s.configPath(botID), data), "create config of bot %s", botID)
}

// RequiredChannels accepts a JSON list or a single comma separated string.
// A missing or broken file means no gating.
func (s *ConfigStore) RequiredChannels(botID string) []string {
	var channels []string
	if err := s.cache.Get("channels:"+botID, &channels); err == nil {
		return channels
	}

	channels = []string{}

	data, err := ioutil.ReadFile(filepath.Join(s.dir, botID, requiredChannelsFile))
	if err == nil {
		channels = parseChannels(data)
	} else if !os.IsNotExist(err) {
		logger.Warningf("read required channels of bot %s: %s", botID, err)
	}

	if err := s.cache.Set("channels:"+botID, channels, s.ttl); err != nil {
		logger.Warningf("cache required channels of bot %s: %s", botID, err)
	}

	return channels
}

func parseChannels(data []byte) []string {
	var raw []string

	var list []string
	var single string
	switch {
	case json.Unmarshal(data, &list) == nil:
		raw = list
	case json.Unmarshal(data, &single) == nil:
		raw = strings.Split(single, ",")
	}

	channels := make([]string, 0, len(raw))
	for _, ch := range raw {
		if ch = strings.TrimSpace(ch); ch != "" {
			channels = append(channels, ch)
		}
	}

	return channels
}

// Authors returns the owners and admins of a bot, empty when unknown
func (s *ConfigStore) Authors(botID string) Authors {
	var a Authors
	if err := s.cache.Get("authors:"+botID, &a); err == nil {
		return a
	}

	a = Authors{Owner: UserIDs{}, Admin: UserIDs{}}

	data, err := ioutil.ReadFile(filepath.Join(s.dir, botID, authorsFile))
	if err == nil {
		if err := json.Unmarshal(data, &a); err != nil {
			logger.Warningf("parse authors of bot %s: %s", botID, err)
			a = Authors{Owner: UserIDs{}, Admin: UserIDs{}}
		}
	}

	if err := s.cache.Set("authors:"+botID, a, s.ttl); err != nil {
		logger.Warningf("cache authors of bot %s: %s", botID, err)
	}

	return a
}
