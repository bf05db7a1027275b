package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/newsroll/internal/news"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Index sources.
const (
	IndexSourceHTTP   = "http"
	IndexSourceFile   = "file"
	IndexSourceSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Index   IndexConfig       `yaml:"index"`
	News    NewsConfig        `yaml:"news"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Session SessionConfig     `yaml:"session"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.News.Validate(); err != nil {
		return fmt.Errorf("news: %w", err)
	}
	if c.Index.Source == IndexSourceSQLite {
		if err := c.SQLite.Validate(); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// IndexConfig describes where the site page index comes from.
//
// Source selects the backend:
//   - "http" (default): fetched in pages from <base_url>/<name>.json.
//   - "file": read from <dir>/<name>.json, reloaded when the file changes.
//   - "sqlite": fetched over http and served from the local snapshot.
type IndexConfig struct {
	Source          string        `yaml:"source"`
	BaseURL         string        `yaml:"base_url"`
	Dir             string        `yaml:"dir"`
	Name            string        `yaml:"name"`
	Sheet           string        `yaml:"sheet"`
	PageSize        int           `yaml:"page_size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	if c.Source == "" {
		c.Source = IndexSourceHTTP
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required,
			validation.In(IndexSourceHTTP, IndexSourceFile, IndexSourceSQLite)),
		validation.Field(&c.BaseURL,
			validation.When(c.Source != IndexSourceFile, validation.Required, validation.By(absoluteURL))),
		validation.Field(&c.Dir, validation.When(c.Source == IndexSourceFile, validation.Required)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.PageSize, validation.Min(0)),
		validation.Field(&c.RefreshInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}

func notPlaceholder(value any) error {
	if s, _ := value.(string); strings.HasPrefix(s, news.DefaultImagePrefix) {
		return fmt.Errorf("must not be the %s placeholder", news.DefaultImagePrefix)
	}
	return nil
}

// NewsConfig holds the news listing settings.
type NewsConfig struct {
	SectionPrefix string        `yaml:"section_prefix"`
	DefaultImage  string        `yaml:"default_image"`
	PageSize      int           `yaml:"page_size"`
	MinLoading    time.Duration `yaml:"min_loading"`
	FirstYear     int           `yaml:"first_year"`
	Timezone      string        `yaml:"timezone"`
}

// Validate validates the news configuration.
func (c *NewsConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.SectionPrefix, validation.Required),
		validation.Field(&c.DefaultImage, validation.Required, validation.By(notPlaceholder)),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.MinLoading, validation.Min(time.Duration(0))),
		validation.Field(&c.FirstYear, validation.Required, validation.Min(1900), validation.Max(9999)),
	); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location resolves Timezone; empty means UTC.
func (c *NewsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SessionConfig holds listing session settings.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Only the index administration routes and the event stream are protected.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Index: IndexConfig{
			Source:          IndexSourceHTTP,
			BaseURL:         "http://localhost:3000",
			Dir:             "./indexes",
			Name:            "query-index",
			PageSize:        1000,
			RefreshInterval: 5 * time.Minute,
			Timeout:         10 * time.Second,
		},
		News: NewsConfig{
			SectionPrefix: "/news",
			DefaultImage:  news.FallbackImage,
			PageSize:      6,
			MinLoading:    800 * time.Millisecond,
			FirstYear:     2011,
		},
		SQLite: SQLiteConfig{
			Path: "./newsroll.db",
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
