package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Env           string              `yaml:"env"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	JWT           JWTConfig           `yaml:"jwt"`
	Queue         QueueConfig         `yaml:"queue"`
	Wiki          WikiConfig          `yaml:"wiki"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug | release | test
	// AllowOrigins CORS origins of the editor frontend
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig node store connection
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // mysql | sqlite
	DSN             string `yaml:"dsn"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN returns the explicit DSN, or one built from the parts for mysql
func (d DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return "file:angple-wiki.db?_foreign_keys=on"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// RedisConfig task queue transport
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ElasticsearchConfig search reindex target
type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

// JWTConfig caller identity tokens
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
}

// QueueConfig background task queue
type QueueConfig struct {
	Key         string `yaml:"key"`
	Workers     int    `yaml:"workers"`
	PollTimeout int    `yaml:"poll_timeout"` // seconds
	Buffer      int    `yaml:"buffer"`       // in-memory queue capacity
}

// WikiConfig settings threaded into the page service and document pipeline
type WikiConfig struct {
	// ReaderRoles empty means pages are public
	ReaderRoles   []string        `yaml:"reader_roles"`
	EditorRoles   []string        `yaml:"editor_roles"`
	HistoryTypes  []string        `yaml:"history_types"`
	LinkBase      string          `yaml:"link_base"`
	Interwiki     []InterwikiRule `yaml:"interwiki"`
	Files         FilesConfig     `yaml:"files"`
	Embed         EmbedConfig     `yaml:"embed"`
	Skeleton      string          `yaml:"skeleton"`
	SnippetLength int             `yaml:"snippet_length"`
	EditorButtons []string        `yaml:"editor_buttons"`
	ImageLink     ImageLinkConfig `yaml:"imagelink"`
	// EditsPerMinute per-caller edit limit; 0 disables it
	EditsPerMinute int `yaml:"edits_per_minute"`
}

// ImageLinkConfig bare [https://host/x.png] image links
type ImageLinkConfig struct {
	Enabled bool `yaml:"enabled"`
	// AllowedDomains empty allows every host
	AllowedDomains []string `yaml:"allowed_domains"`
	LinkWrapper    bool     `yaml:"link_wrapper"`
}

// InterwikiRule link names matching Pattern are sent to URL; $1.. expand
// capture groups.
type InterwikiRule struct {
	Pattern string `yaml:"pattern"`
	URL     string `yaml:"url"`
}

// FilesConfig derived file URLs
type FilesConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Variants    []string `yaml:"variants"`
	Placeholder string   `yaml:"placeholder"`
}

// EmbedConfig video embed sizing
type EmbedConfig struct {
	MaxWidth    int    `yaml:"max_width"`
	AspectRatio string `yaml:"aspect_ratio"` // 16:9, 4:3, 1:1
}

// DefaultEditorButtons buttons every editor starts with
var DefaultEditorButtons = []string{"bold", "italic", "heading", "link", "image", "code"}

// Defaults returns a complete configuration for local use
func Defaults() *Config {
	return &Config{
		Env: "local",
		Server: ServerConfig{
			Port:         8082,
			Mode:         "debug",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            3306,
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 3600,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
		},
		Elasticsearch: ElasticsearchConfig{
			Index: "wiki-pages",
		},
		JWT: JWTConfig{
			ExpiresIn: 3600,
		},
		Queue: QueueConfig{
			Key:         "angple-wiki:tasks",
			Workers:     2,
			PollTimeout: 5,
			Buffer:      256,
		},
		Wiki: WikiConfig{
			EditorRoles:  []string{"editor", "admin"},
			HistoryTypes: []string{"wiki"},
			LinkBase:     "/wiki/",
			Files: FilesConfig{
				BaseURL:     "/files",
				Variants:    []string{"thumb", "medium", "large"},
				Placeholder: "/static/img/missing.png",
			},
			Embed: EmbedConfig{
				MaxWidth:    560,
				AspectRatio: "16:9",
			},
			Skeleton:      "Describe the page here.",
			SnippetLength: 240,
			ImageLink: ImageLinkConfig{
				Enabled:        true,
				AllowedDomains: []string{"s3.damoang.net", "damoang.net", "damoang.com"},
				LinkWrapper:    true,
			},
			EditsPerMinute: 30,
		},
	}
}

// Load reads the YAML file at path over Defaults and applies environment
// overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.Server.AllowOrigins = splitList(v)
	}
	if v := os.Getenv("ES_ADDRESSES"); v != "" {
		c.Elasticsearch.Addresses = splitList(v)
		c.Elasticsearch.Enabled = true
	}

	ints := []struct {
		env    string
		target *int
	}{
		{"SERVER_PORT", &c.Server.Port},
		{"REDIS_PORT", &c.Redis.Port},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.env, err)
		}
		*i.target = n
	}
	return nil
}

// Validate checks required values
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q (use mysql or sqlite)", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Queue.Workers < 0 {
		return fmt.Errorf("queue.workers must be >= 0")
	}
	for i, rule := range c.Wiki.Interwiki {
		if rule.Pattern == "" || rule.URL == "" {
			return fmt.Errorf("wiki.interwiki[%d]: pattern and url are required", i)
		}
	}
	return nil
}

// IsDevelopment reports whether the config targets a developer machine
func (c *Config) IsDevelopment() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}

// Buttons returns the default editor buttons followed by the configured
// ones, without duplicates.
func (w WikiConfig) Buttons() []string {
	seen := make(map[string]bool, len(DefaultEditorButtons)+len(w.EditorButtons))
	out := make([]string, 0, len(DefaultEditorButtons)+len(w.EditorButtons))
	for _, list := range [][]string{DefaultEditorButtons, w.EditorButtons} {
		for _, b := range list {
			b = strings.TrimSpace(b)
			if b == "" || seen[b] {
				continue
			}
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// LogResolved logs the effective configuration without secrets
func LogResolved(c *Config) {
	log := pkglogger.GetLogger()
	log.Info().
		Str("env", c.Env).
		Int("port", c.Server.Port).
		Str("db_driver", c.Database.Driver).
		Bool("redis", c.Redis.Enabled).
		Bool("elasticsearch", c.Elasticsearch.Enabled).
		Int("workers", c.Queue.Workers).
		Strs("editor_roles", c.Wiki.EditorRoles).
		Strs("history_types", c.Wiki.HistoryTypes).
		Int("interwiki_rules", len(c.Wiki.Interwiki)).
		Msg("configuration resolved")
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
