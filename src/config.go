package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"gopkg.in/yaml.v2"
)

// HostConfig struct
type HostConfig struct {
	LogLevel   logging.Level    `yaml:"log_level"`
	Language   string           `yaml:"language"`
	LogFile    string           `yaml:"log_file"`
	Debug      bool             `yaml:"debug"`
	SentryDSN  string           `yaml:"sentry_dsn"`
	PublicURL  string           `yaml:"public_url"`
	DataDir    string           `yaml:"data_dir"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Registry   RegistryConfig   `yaml:"registry"`
	Cache      CacheConfig      `yaml:"cache"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

// HTTPServerConfig struct
type HTTPServerConfig struct {
	Listen string `yaml:"listen"`
}

// RegistryConfig selects where bot records live: a JSON file or an SQL table
type RegistryConfig struct {
	Driver     string `yaml:"driver"`
	File       string `yaml:"file"`
	Connection string `yaml:"connection"`
	Logging    bool   `yaml:"logging"`
}

// CacheConfig struct
type CacheConfig struct {
	Size      int    `yaml:"size"`
	TTL       int    `yaml:"ttl"`
	RedisAddr string `yaml:"redis_addr"`
	RedisPass string `yaml:"redis_pass"`
}

// DispatcherConfig struct
type DispatcherConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// TelegramConfig struct
type TelegramConfig struct {
	Timeout int `yaml:"timeout"`
}

// LoadConfig read configuration file
func LoadConfig(path string) *HostConfig {
	var err error

	path, err = filepath.Abs(path)
	if err != nil {
		panic(err)
	}

	source, err := ioutil.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var config HostConfig
	if err = yaml.Unmarshal(source, &config); err != nil {
		panic(err)
	}

	// .env is optional, a missing file is not an error
	_ = godotenv.Load()
	if u := os.Getenv("PUBLIC_URL"); u != "" {
		config.PublicURL = u
	}

	config.setDefaults()

	return &config
}

func (c *HostConfig) setDefaults() {
	if c.PublicURL == "" {
		c.PublicURL = "http://127.0.0.1:8000"
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")

	if c.Language == "" {
		c.Language = "en"
	}

	if c.DataDir == "" {
		c.DataDir = "BOTS_DATA"
	}

	if c.HTTPServer.Listen == "" {
		c.HTTPServer.Listen = ":8000"
	}

	if c.Registry.Driver == "" {
		c.Registry.Driver = "file"
	}

	if c.Registry.File == "" {
		c.Registry.File = "bots.json"
	}

	if c.Cache.Size <= 0 {
		c.Cache.Size = 32 * 1024 * 1024
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 60
	}

	if c.Dispatcher.CacheSize <= 0 {
		c.Dispatcher.CacheSize = 1024
	}

	if c.Telegram.Timeout <= 0 {
		c.Telegram.Timeout = 30
	}
}

func (c *HostConfig) cacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *HostConfig) telegramTimeout() time.Duration {
	return time.Duration(c.Telegram.Timeout) * time.Second
}

func (c *HostConfig) webhookURL(token string) string {
	return c.PublicURL + "/webhook/" + token
}
