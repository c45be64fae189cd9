// Package config loads zabava-archive settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lotoarchive/zabava-archive/internal/datespec"
	"github.com/lotoarchive/zabava-archive/internal/discovery"
	"github.com/lotoarchive/zabava-archive/internal/draw"
	"github.com/lotoarchive/zabava-archive/internal/export"
)

const (
	DefaultPath = "./zabava-archive.yaml"
	DefaultURL  = "https://www.stoloto.ru/zabava/archive"
	EnvConfig   = "ZABAVA_ARCHIVE_CONFIG"
)

// Duration is a time.Duration that unmarshals from strings like "200ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds all application configuration.
type Config struct {
	Game      string    `yaml:"game"`
	URL       string    `yaml:"url"`
	Selectors Selectors `yaml:"selectors"`
	Scroll    Scroll    `yaml:"scroll"`
	Browser   Browser   `yaml:"browser"`
	Months    []string  `yaml:"months"`
	Output    Output    `yaml:"output"`
	DataDir   string    `yaml:"data_dir"`
	LogLevel  string    `yaml:"log_level"`
}

// Selectors are the CSS selectors used against the archive page.
type Selectors struct {
	Row          string `yaml:"row"`
	DateCell     string `yaml:"date_cell"`
	DrawNumber   string `yaml:"draw_number"`
	NumberButton string `yaml:"number_button"`
	Marker       string `yaml:"marker"`
	Wait         string `yaml:"wait"`
}

// Scroll tunes the discovery loop.
type Scroll struct {
	StepPx          int      `yaml:"step_px"`
	PollInterval    Duration `yaml:"poll_interval"`
	SettleDelay     Duration `yaml:"settle_delay"`
	MaxSettleCycles int      `yaml:"max_settle_cycles"`
	MaxIterations   int      `yaml:"max_iterations"`
}

// Browser configures the Chromium session.
type Browser struct {
	Headless        bool     `yaml:"headless"`
	ExecPath        string   `yaml:"exec_path"`
	UserAgent       string   `yaml:"user_agent"`
	WindowWidth     int      `yaml:"window_width"`
	WindowHeight    int      `yaml:"window_height"`
	NavigateTimeout Duration `yaml:"navigate_timeout"`
	WaitTimeout     Duration `yaml:"wait_timeout"`
}

// Output selects where records are written.
type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path. When path is the implicit default and the file does
// not exist, defaults are returned instead of an error.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		applyEnvironmentOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return nil, err
}

// GetConfigPath returns the config file path from environment or default, and
// whether it was set explicitly.
func GetConfigPath() (string, bool) {
	if path := os.Getenv(EnvConfig); path != "" {
		return path, true
	}
	return DefaultPath, false
}

func applyDefaults(cfg *Config) {
	if cfg.Game == "" {
		cfg.Game = "zabava"
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}

	s := &cfg.Selectors
	if s.Row == "" {
		s.Row = draw.DefaultSelectors.Row
	}
	if s.DateCell == "" {
		s.DateCell = draw.DefaultSelectors.DateCell
	}
	if s.DrawNumber == "" {
		s.DrawNumber = draw.DefaultSelectors.DrawNumber
	}
	if s.NumberButton == "" {
		s.NumberButton = draw.DefaultSelectors.NumberButton
	}
	if s.Marker == "" {
		s.Marker = discovery.DefaultMarkerSelector
	}
	if s.Wait == "" {
		s.Wait = s.DrawNumber
	}

	sc := &cfg.Scroll
	if sc.StepPx == 0 {
		sc.StepPx = discovery.DefaultStepPx
	}
	if sc.PollInterval == 0 {
		sc.PollInterval = Duration(discovery.DefaultPollInterval)
	}
	if sc.SettleDelay == 0 {
		sc.SettleDelay = Duration(discovery.DefaultSettleDelay)
	}
	if sc.MaxSettleCycles == 0 {
		sc.MaxSettleCycles = discovery.DefaultMaxSettleCycles
	}
	if sc.MaxIterations == 0 {
		sc.MaxIterations = 10000
	}

	b := &cfg.Browser
	if b.WindowWidth == 0 {
		b.WindowWidth = 1920
	}
	if b.WindowHeight == 0 {
		b.WindowHeight = 1080
	}
	if b.NavigateTimeout == 0 {
		b.NavigateTimeout = Duration(60 * time.Second)
	}
	if b.WaitTimeout == 0 {
		b.WaitTimeout = Duration(60 * time.Second)
	}

	if len(cfg.Months) == 0 {
		cfg.Months = datespec.RussianGenitive.Names()
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "draws_full.csv"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = string(export.FormatForPath(cfg.Output.Path))
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "~/.local/share/zabava-archive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if u := os.Getenv("ZABAVA_ARCHIVE_URL"); u != "" {
		cfg.URL = u
	}
	if p := os.Getenv("ZABAVA_ARCHIVE_CHROME_PATH"); p != "" {
		cfg.Browser.ExecPath = p
	}
	if h := os.Getenv("ZABAVA_ARCHIVE_HEADLESS"); h != "" {
		if v, err := strconv.ParseBool(h); err == nil {
			cfg.Browser.Headless = v
		}
	}
}

// Validate checks values that defaults cannot repair.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL, got %q", cfg.URL)
	}
	if cfg.Scroll.StepPx < 0 {
		return fmt.Errorf("scroll.step_px must be positive, got %d", cfg.Scroll.StepPx)
	}
	if cfg.Scroll.MaxSettleCycles < 0 || cfg.Scroll.MaxIterations < 0 {
		return fmt.Errorf("scroll limits must not be negative")
	}
	if _, err := datespec.NewVocabulary(cfg.Months); err != nil {
		return fmt.Errorf("months: %w", err)
	}
	if _, err := export.ParseFormat(cfg.Output.Format); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// Vocabulary returns the month vocabulary. Call after Validate.
func (cfg *Config) Vocabulary() datespec.Vocabulary {
	v, err := datespec.NewVocabulary(cfg.Months)
	if err != nil {
		return datespec.RussianGenitive
	}
	return v
}

// DiscoveryOptions maps the scroll settings onto discovery.Options.
func (cfg *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		DateCellSelector: cfg.Selectors.DateCell,
		MarkerSelector:   cfg.Selectors.Marker,
		StepPx:           cfg.Scroll.StepPx,
		PollInterval:     time.Duration(cfg.Scroll.PollInterval),
		SettleDelay:      time.Duration(cfg.Scroll.SettleDelay),
		MaxSettleCycles:  cfg.Scroll.MaxSettleCycles,
		MaxIterations:    cfg.Scroll.MaxIterations,
	}
}

// DrawSelectors maps the selectors onto draw.Selectors.
func (cfg *Config) DrawSelectors() draw.Selectors {
	return draw.Selectors{
		Row:          cfg.Selectors.Row,
		DateCell:     cfg.Selectors.DateCell,
		DrawNumber:   cfg.Selectors.DrawNumber,
		NumberButton: cfg.Selectors.NumberButton,
	}
}
