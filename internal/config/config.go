package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/examcancel/internal/exam"
	"gopkg.in/yaml.v3"
)

// Default font candidates, tried in order.
var (
	DefaultRegularFonts = []string{
		"DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
	DefaultBoldFonts = []string{
		"DejaVuSans-Bold.ttf",
		"/System/Library/Fonts/Helvetica-Bold.ttc",
		"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	}
)

type Config struct {
	Port string

	// Auth for /api routes; empty disables it.
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Processing
	MaxConcurrentDocs int

	// Run state
	RunTTL      time.Duration
	StatsWindow time.Duration

	// Fonts
	RegularFonts []string
	BoldFonts    []string

	// Template
	ConfigFile string
	Layout     exam.Params
	Strings    exam.Strings

	fontsFromEnv bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxConcurrentDocs: envInt("MAX_CONCURRENT_DOCS", 4),

		RunTTL:      envDuration("RUN_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		RegularFonts: envList("FONT_REGULAR_CANDIDATES", DefaultRegularFonts),
		BoldFonts:    envList("FONT_BOLD_CANDIDATES", DefaultBoldFonts),

		ConfigFile: os.Getenv("CONFIG_FILE"),
		Layout:     exam.DefaultParams(),
		Strings:    exam.DefaultStrings(),
	}
	cfg.fontsFromEnv = os.Getenv("FONT_REGULAR_CANDIDATES") != "" || os.Getenv("FONT_BOLD_CANDIDATES") != ""

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxConcurrentDocs <= 0 {
		cfg.MaxConcurrentDocs = 4
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

type fileConfig struct {
	Fonts struct {
		Regular []string `yaml:"regular"`
		Bold    []string `yaml:"bold"`
	} `yaml:"fonts"`
	Layout  exam.Params  `yaml:"layout"`
	Strings exam.Strings `yaml:"strings"`
}

// ApplyFile overlays the template settings of a YAML file. Keys missing from
// the file keep their current values; font candidates set in the
// environment win over the file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fc := fileConfig{Layout: c.Layout, Strings: c.Strings}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.Layout = fc.Layout
	c.Strings = fc.Strings
	if !c.fontsFromEnv {
		if len(fc.Fonts.Regular) > 0 {
			c.RegularFonts = fc.Fonts.Regular
		}
		if len(fc.Fonts.Bold) > 0 {
			c.BoldFonts = fc.Fonts.Bold
		}
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.Strings.Notice == "" {
		errs = append(errs, errors.New("strings.notice must not be empty"))
	}
	if c.Strings.Heading == "" {
		errs = append(errs, errors.New("strings.heading must not be empty"))
	}
	if c.Strings.Alphabet == "" {
		errs = append(errs, errors.New("strings.alphabet must not be empty"))
	}
	if utf8.RuneCountInString(c.Strings.Marker) != 1 {
		errs = append(errs, fmt.Errorf("strings.marker must be a single character, got %q", c.Strings.Marker))
	}
	if c.Layout.Margin < 0 || c.Layout.Gutter < 0 || c.Layout.FooterReserve < 0 {
		errs = append(errs, errors.New("layout margins must not be negative"))
	}
	if c.Layout.BaselineRatio <= 0 {
		errs = append(errs, errors.New("layout.baseline_ratio must be positive"))
	}
	if c.Layout.RowDecimals < 0 || c.Layout.RowDecimals > 6 {
		errs = append(errs, fmt.Errorf("layout.row_decimals must be in 0..6, got %d", c.Layout.RowDecimals))
	}
	return errors.Join(errs...)
}

// RequiredRunes is the text the resolved fonts must be able to draw.
func (c Config) RequiredRunes() string {
	return c.Strings.Notice + c.Strings.Marker
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
