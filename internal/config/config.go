// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Probe() ProbeConfig
	Output() OutputConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserRemoteURL(string)

	// Output Setters
	SetOutputPath(string)
	SetOutputFormat(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	ProbeCfg   ProbeConfig   `mapstructure:"probe" yaml:"probe"`
	OutputCfg  OutputConfig  `mapstructure:"output" yaml:"output"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Probe() ProbeConfig     { return c.ProbeCfg }
func (c *Config) Output() OutputConfig   { return c.OutputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserRemoteURL(u string) { c.BrowserCfg.RemoteURL = u }
func (c *Config) SetOutputPath(p string)       { c.OutputCfg.Path = p }
func (c *Config) SetOutputFormat(f string)     { c.OutputCfg.Format = f }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chromium session.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// RemoteURL attaches to an already running browser's DevTools endpoint
	// instead of launching one.
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// ProbeConfig describes the site under test and how patiently to drive it.
type ProbeConfig struct {
	HomeURL        string `mapstructure:"home_url" yaml:"home_url"`
	CareersQAURL   string `mapstructure:"careers_qa_url" yaml:"careers_qa_url"`
	LocationFilter string `mapstructure:"location_filter" yaml:"location_filter"`
	// Seed fixes the candidate order; 0 picks a random order per run.
	Seed     uint64         `mapstructure:"seed" yaml:"seed"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
}

// TimeoutsConfig bounds every wait of a run.
type TimeoutsConfig struct {
	Default       time.Duration `mapstructure:"default" yaml:"default"`
	Interval      time.Duration `mapstructure:"interval" yaml:"interval"`
	CookieGuard   time.Duration `mapstructure:"cookie_guard" yaml:"cookie_guard"`
	PopupGuard    time.Duration `mapstructure:"popup_guard" yaml:"popup_guard"`
	NewContext    time.Duration `mapstructure:"new_context" yaml:"new_context"`
	DocumentReady time.Duration `mapstructure:"document_ready" yaml:"document_ready"`
	ContentChange time.Duration `mapstructure:"content_change" yaml:"content_change"`
	Settle        time.Duration `mapstructure:"settle" yaml:"settle"`
	Populated     time.Duration `mapstructure:"populated" yaml:"populated"`
	CardsLoaded   time.Duration `mapstructure:"cards_loaded" yaml:"cards_loaded"`
	TextRead      time.Duration `mapstructure:"text_read" yaml:"text_read"`
}

// OutputConfig controls where the run report goes.
type OutputConfig struct {
	// Path is a file path, or "" / "stdout" for standard output.
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "jobprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Probe --
	v.SetDefault("probe.home_url", "https://insiderone.com/")
	v.SetDefault("probe.careers_qa_url", "https://insiderone.com/careers/quality-assurance/")
	v.SetDefault("probe.location_filter", "Istanbul, Turkiye")
	v.SetDefault("probe.seed", 0)

	// -- Probe Timeouts --
	v.SetDefault("probe.timeouts.default", "10s")
	v.SetDefault("probe.timeouts.interval", "200ms")
	v.SetDefault("probe.timeouts.cookie_guard", "3s")
	v.SetDefault("probe.timeouts.popup_guard", "2s")
	v.SetDefault("probe.timeouts.new_context", "5s")
	v.SetDefault("probe.timeouts.document_ready", "20s")
	v.SetDefault("probe.timeouts.content_change", "4s")
	v.SetDefault("probe.timeouts.settle", "4s")
	v.SetDefault("probe.timeouts.populated", "20s")
	v.SetDefault("probe.timeouts.cards_loaded", "25s")
	v.SetDefault("probe.timeouts.text_read", "15s")

	// -- Output --
	v.SetDefault("output.path", "")
	v.SetDefault("output.format", "text")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	var err error
	if cfg.LoggerCfg.LogFile, err = expandPath(cfg.LoggerCfg.LogFile); err != nil {
		return nil, fmt.Errorf("logger.log_file: %w", err)
	}
	if cfg.OutputCfg.Path, err = expandPath(cfg.OutputCfg.Path); err != nil {
		return nil, fmt.Errorf("output.path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPath resolves a leading "~" to the user's home directory.
func expandPath(p string) (string, error) {
	if p == "" || p == "stdout" {
		return p, nil
	}
	return homedir.Expand(p)
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.ProbeCfg.Validate(); err != nil {
		return fmt.Errorf("probe configuration invalid: %w", err)
	}
	if c.BrowserCfg.RemoteURL != "" {
		if err := checkURL(c.BrowserCfg.RemoteURL, "ws", "wss", "http", "https"); err != nil {
			return fmt.Errorf("browser.remote_url: %w", err)
		}
	}
	if c.BrowserCfg.WindowWidth < 0 || c.BrowserCfg.WindowHeight < 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must not be negative")
	}
	switch c.OutputCfg.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be one of text, json (got %q)", c.OutputCfg.Format)
	}
	return nil
}

// Validate checks the probe targets and timeouts.
func (p *ProbeConfig) Validate() error {
	if err := checkURL(p.HomeURL, "http", "https"); err != nil {
		return fmt.Errorf("home_url: %w", err)
	}
	if err := checkURL(p.CareersQAURL, "http", "https"); err != nil {
		return fmt.Errorf("careers_qa_url: %w", err)
	}
	if strings.TrimSpace(p.LocationFilter) == "" {
		return fmt.Errorf("location_filter is required")
	}
	return p.Timeouts.Validate()
}

// Validate rejects negative durations and an interval longer than the default
// wait. Zero means "use the built-in default".
func (t *TimeoutsConfig) Validate() error {
	all := map[string]time.Duration{
		"default": t.Default, "interval": t.Interval, "cookie_guard": t.CookieGuard,
		"popup_guard": t.PopupGuard, "new_context": t.NewContext, "document_ready": t.DocumentReady,
		"content_change": t.ContentChange, "settle": t.Settle, "populated": t.Populated,
		"cards_loaded": t.CardsLoaded, "text_read": t.TextRead,
	}
	for name, d := range all {
		if d < 0 {
			return fmt.Errorf("timeouts.%s must not be negative", name)
		}
	}
	if t.Default > 0 && t.Interval > t.Default {
		return fmt.Errorf("timeouts.interval (%s) must not exceed timeouts.default (%s)", t.Interval, t.Default)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q is not an absolute %s URL", raw, strings.Join(schemes, "/"))
}
