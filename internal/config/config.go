// Package config builds the immutable run configuration for eor-ics.
//
// Values come from viper, which layers CLI flags, environment variables, an
// optional YAML file and the defaults registered by NewViper. Load resolves
// them once into a Config that is passed by pointer to every component.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL      = "https://www.eyeofriyadh.com/events/"
	DefaultMaxPages     = 8
	DefaultOutDir       = "build"
	DefaultOutFile      = "eyeofriyadh.ics"
	DefaultTimezone     = "Asia/Riyadh"
	DefaultUserAgent    = "Mozilla/5.0 (compatible; EyeOfRiyadhICS/1.0)"
	DefaultCalendarName = "Eye of Riyadh Events"
	DefaultRecencyDays  = 7
)

// Selectors maps each logical field to an ordered list of CSS selectors.
// Lookups try the selectors in order and use the first that matches.
type Selectors struct {
	Card              []string `mapstructure:"card"`
	Title             []string `mapstructure:"title"`
	Link              []string `mapstructure:"link"`
	Date              []string `mapstructure:"date"`
	Location          []string `mapstructure:"location"`
	DetailDate        []string `mapstructure:"detail_date"`
	DetailLocation    []string `mapstructure:"detail_location"`
	DetailDescription []string `mapstructure:"detail_description"`
}

// DefaultSelectors returns the selector set for the eyeofriyadh.com markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:              []string{"div.event-card", "div.events-list div.event-item", "div.list div.item"},
		Title:             []string{"h3", "a.title", "h2"},
		Link:              []string{"a", "a.title", "h3 a"},
		Date:              []string{"div.date", "span.date", "p.date"},
		Location:          []string{"div.location", "span.location", "p.location"},
		DetailDate:        []string{"div.event-date", "p:contains('Date')", "li:contains('Date')"},
		DetailLocation:    []string{"div.event-location", "p:contains('Location')", "li:contains('Location')"},
		DetailDescription: []string{"div.event-description", "div#description", "div.description", "article"},
	}
}

// Config is the resolved configuration for a single run.
type Config struct {
	BaseURL      string
	MaxPages     int
	OutDir       string
	OutFile      string
	LogLevel     string
	Timezone     string
	Location     *time.Location
	CalendarName string

	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RetryDelay    time.Duration
	BackoffFactor float64
	PageDelay     time.Duration

	Enrich      bool
	RecencyDays int
	Placeholder bool
	Verify      bool

	Selectors Selectors
}

// OutputPath is the full path of the calendar file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutDir, c.OutFile)
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"base_url":       "EOR_BASE_URL",
	"max_pages":      "EOR_MAX_PAGES",
	"out_dir":        "OUT_DIR",
	"out_file":       "EOR_OUT_FILE",
	"log_level":      "LOG_LEVEL",
	"timezone":       "EOR_TIMEZONE",
	"calendar_name":  "EOR_CALENDAR_NAME",
	"user_agent":     "EOR_USER_AGENT",
	"timeout":        "EOR_TIMEOUT",
	"retries":        "EOR_RETRIES",
	"retry_delay":    "EOR_RETRY_DELAY",
	"backoff_factor": "EOR_BACKOFF_FACTOR",
	"page_delay":     "EOR_PAGE_DELAY",
	"enrich":         "EOR_ENRICH",
	"recency_days":   "EOR_RECENCY_DAYS",
	"placeholder":    "EOR_PLACEHOLDER",
	"verify":         "EOR_VERIFY",
}

// NewViper returns a viper instance with defaults and environment bindings registered.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("max_pages", DefaultMaxPages)
	v.SetDefault("out_dir", DefaultOutDir)
	v.SetDefault("out_file", DefaultOutFile)
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("calendar_name", DefaultCalendarName)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("retries", 3)
	v.SetDefault("retry_delay", 2*time.Second)
	v.SetDefault("backoff_factor", 2.0)
	v.SetDefault("page_delay", time.Second)
	v.SetDefault("enrich", true)
	v.SetDefault("recency_days", DefaultRecencyDays)
	v.SetDefault("placeholder", false)
	v.SetDefault("verify", true)

	sel := DefaultSelectors()
	v.SetDefault("selectors.card", sel.Card)
	v.SetDefault("selectors.title", sel.Title)
	v.SetDefault("selectors.link", sel.Link)
	v.SetDefault("selectors.date", sel.Date)
	v.SetDefault("selectors.location", sel.Location)
	v.SetDefault("selectors.detail_date", sel.DetailDate)
	v.SetDefault("selectors.detail_location", sel.DetailLocation)
	v.SetDefault("selectors.detail_description", sel.DetailDescription)

	for key, env := range envBindings {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key, env)
	}

	return v
}

// ReadFile merges a YAML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Load resolves v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseURL:       strings.TrimSpace(v.GetString("base_url")),
		MaxPages:      v.GetInt("max_pages"),
		OutDir:        v.GetString("out_dir"),
		OutFile:       v.GetString("out_file"),
		LogLevel:      v.GetString("log_level"),
		Timezone:      v.GetString("timezone"),
		CalendarName:  v.GetString("calendar_name"),
		UserAgent:     v.GetString("user_agent"),
		Timeout:       v.GetDuration("timeout"),
		Retries:       v.GetInt("retries"),
		RetryDelay:    v.GetDuration("retry_delay"),
		BackoffFactor: v.GetFloat64("backoff_factor"),
		PageDelay:     v.GetDuration("page_delay"),
		Enrich:        v.GetBool("enrich"),
		RecencyDays:   v.GetInt("recency_days"),
		Placeholder:   v.GetBool("placeholder"),
		Verify:        v.GetBool("verify"),
		Selectors: Selectors{
			Card:              v.GetStringSlice("selectors.card"),
			Title:             v.GetStringSlice("selectors.title"),
			Link:              v.GetStringSlice("selectors.link"),
			Date:              v.GetStringSlice("selectors.date"),
			Location:          v.GetStringSlice("selectors.location"),
			DetailDate:        v.GetStringSlice("selectors.detail_date"),
			DetailLocation:    v.GetStringSlice("selectors.detail_location"),
			DetailDescription: v.GetStringSlice("selectors.detail_description"),
		},
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	if cfg.RecencyDays < 0 {
		cfg.RecencyDays = 0
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.OutFile == "" {
		cfg.OutFile = DefaultOutFile
	}
	if cfg.CalendarName == "" {
		cfg.CalendarName = DefaultCalendarName
	}

	return cfg, nil
}

// Default returns the configuration produced by defaults alone, ignoring
// the environment. It is mostly useful in tests.
func Default() *Config {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.FixedZone(DefaultTimezone, 3*60*60)
	}
	return &Config{
		BaseURL:       DefaultBaseURL,
		MaxPages:      DefaultMaxPages,
		OutDir:        DefaultOutDir,
		OutFile:       DefaultOutFile,
		LogLevel:      "info",
		Timezone:      DefaultTimezone,
		Location:      loc,
		CalendarName:  DefaultCalendarName,
		UserAgent:     DefaultUserAgent,
		Timeout:       30 * time.Second,
		Retries:       3,
		RetryDelay:    2 * time.Second,
		BackoffFactor: 2,
		PageDelay:     time.Second,
		Enrich:        true,
		RecencyDays:   DefaultRecencyDays,
		Verify:        true,
		Selectors:     DefaultSelectors(),
	}
}
