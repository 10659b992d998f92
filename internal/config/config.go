// Package config loads and validates application configuration through
// viper: defaults, an optional YAML file, and KEYTRACE_-prefixed environment
// variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Target    TargetConfig    `mapstructure:"target" yaml:"target"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	Typing    TypingConfig    `mapstructure:"typing" yaml:"typing"`
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" yaml:"analysis"`
}

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

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// TargetConfig identifies the page under test.
type TargetConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// SiteMode selects the test variant on the page: standard, clean, or
	// programmer. Switching modes is best effort and never fails a run.
	SiteMode string `mapstructure:"site_mode" yaml:"site_mode"`
	// SettleWait is how long to wait after the last keystroke before
	// reading the page's own result counters.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// SelectorsConfig names the page regions the tool interacts with. Every
// field can be overridden per site via the config file or environment
// (e.g. KEYTRACE_SELECTORS_TARGET_TEXT).
type SelectorsConfig struct {
	TargetText     string `mapstructure:"target_text" yaml:"target_text"`
	HiddenInput    string `mapstructure:"hidden_input" yaml:"hidden_input"`
	ResultWPM      string `mapstructure:"result_wpm" yaml:"result_wpm"`
	ResultAccuracy string `mapstructure:"result_accuracy" yaml:"result_accuracy"`
}

// TypingConfig tunes the behavior generator.
type TypingConfig struct {
	Profile    string        `mapstructure:"profile" yaml:"profile"`
	DelayMin   time.Duration `mapstructure:"delay_min" yaml:"delay_min"`
	DelayMax   time.Duration `mapstructure:"delay_max" yaml:"delay_max"`
	FixedDelay time.Duration `mapstructure:"fixed_delay" yaml:"fixed_delay"`
	MaxChars   int           `mapstructure:"max_chars" yaml:"max_chars"`
}

// RunConfig controls the iteration harness and where run records land.
type RunConfig struct {
	Iterations int    `mapstructure:"iterations" yaml:"iterations"`
	OutDir     string `mapstructure:"out_dir" yaml:"out_dir"`
	OutPrefix  string `mapstructure:"out_prefix" yaml:"out_prefix"`
}

// AnalysisConfig controls the offline feature-extraction pass.
type AnalysisConfig struct {
	RawDir string `mapstructure:"raw_dir" yaml:"raw_dir"`
	OutCSV string `mapstructure:"out_csv" yaml:"out_csv"`
	// Parallelism bounds concurrent record decoding; 0 means GOMAXPROCS.
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
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

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "keytrace-cli")
	v.SetDefault("logger.log_file", "keytrace.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")

	// -- Target --
	v.SetDefault("target.url", "https://typespeedai.com/")
	v.SetDefault("target.site_mode", "standard")
	v.SetDefault("target.settle_wait", "1s")

	// -- Selectors --
	v.SetDefault("selectors.target_text", "div.text-display-area")
	v.SetDefault("selectors.hidden_input", "#typing-input")
	v.SetDefault("selectors.result_wpm", "#typing-practice-card .grid > div:nth-child(1) .text-2xl.font-bold")
	v.SetDefault("selectors.result_accuracy", "#typing-practice-card .grid > div:nth-child(2) .text-2xl.font-bold.text-primary")

	// -- Typing --
	v.SetDefault("typing.profile", "human_like")
	v.SetDefault("typing.delay_min", "40ms")
	v.SetDefault("typing.delay_max", "220ms")
	v.SetDefault("typing.fixed_delay", "5ms")
	v.SetDefault("typing.max_chars", 5000)

	// -- Run --
	v.SetDefault("run.iterations", 1)
	v.SetDefault("run.out_dir", "data/raw_logs")
	v.SetDefault("run.out_prefix", "run")

	// -- Analysis --
	v.SetDefault("analysis.raw_dir", "data/raw_logs")
	v.SetDefault("analysis.out_csv", "analysis/features.csv")
	v.SetDefault("analysis.parallelism", 0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Target.URL == "" {
		return fmt.Errorf("target.url is a required configuration field")
	}
	switch c.Target.SiteMode {
	case "standard", "clean", "programmer":
	default:
		return fmt.Errorf("target.site_mode must be one of standard, clean, programmer; got %q", c.Target.SiteMode)
	}
	if c.Selectors.HiddenInput == "" {
		return fmt.Errorf("selectors.hidden_input is a required configuration field")
	}
	if c.Typing.DelayMin < 0 || c.Typing.FixedDelay < 0 {
		return fmt.Errorf("typing delays must be non-negative")
	}
	if c.Typing.DelayMax < c.Typing.DelayMin {
		return fmt.Errorf("typing.delay_max must be >= typing.delay_min")
	}
	if c.Typing.MaxChars <= 0 {
		return fmt.Errorf("typing.max_chars must be a positive integer")
	}
	if c.Run.Iterations <= 0 {
		return fmt.Errorf("run.iterations must be a positive integer")
	}
	if c.Run.OutDir == "" {
		return fmt.Errorf("run.out_dir is a required configuration field")
	}
	if c.Analysis.Parallelism < 0 {
		return fmt.Errorf("analysis.parallelism must be >= 0")
	}
	return nil
}
