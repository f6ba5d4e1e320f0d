package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the scraper. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	// Search behavior
	Search SearchConfig `yaml:"search" json:"search"`

	// Browser launch and fingerprint settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Delay window between page actions
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Retry budget for transient failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Export settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds result-list traversal settings.
type SearchConfig struct {
	// DefaultLimit is the number of listings to collect when the CLI
	// does not override it.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// ScrollStallLimit is how many consecutive scrolls may produce no
	// new listings before the list is treated as exhausted.
	ScrollStallLimit int `yaml:"scroll_stall_limit" json:"scroll_stall_limit"`
	// ScrollStep is how many pixels each scroll advances the feed.
	ScrollStep int `yaml:"scroll_step" json:"scroll_step"`
	// BulkWorkers is how many isolated sessions a bulk run may drive
	// in parallel.
	BulkWorkers int `yaml:"bulk_workers" json:"bulk_workers"`
}

// BrowserConfig holds launch flags and fingerprint material.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	BlockImages       bool          `yaml:"block_images" json:"block_images"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	DetailTimeout     time.Duration `yaml:"detail_timeout" json:"detail_timeout"`
	UserAgents        []string      `yaml:"user_agents" json:"user_agents"`
	Viewports         []Viewport    `yaml:"viewports" json:"viewports"`
}

// Viewport is a window size drawn at random per session.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// PacingConfig bounds the randomized delay injected between actions.
type PacingConfig struct {
	MinDelay time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RetryConfig bounds retries of transient navigation/extraction errors.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Format    string `yaml:"format" json:"format"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultLimit:     50,
			ScrollStallLimit: 3,
			ScrollStep:       5000,
			BulkWorkers:      1,
		},
		Browser: BrowserConfig{
			Headless:          false,
			BlockImages:       true,
			NavigationTimeout: 15 * time.Second,
			DetailTimeout:     20 * time.Second,
			UserAgents:        defaultUserAgents,
			Viewports:         defaultViewports,
		},
		Pacing: PacingConfig{
			MinDelay: 500 * time.Millisecond,
			MaxDelay: 1500 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
		},
		Output: OutputConfig{
			Directory: filepath.Join("data", "results"),
			Format:    "csv",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// defaultUserAgents are realistic Chrome user agents for Windows and Mac.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// defaultViewports are common desktop window sizes.
var defaultViewports = []Viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1600, 900},
	{1680, 1050},
}

// LoadFromEnv overrides settings from environment variables. The names
// match the .env keys the tool has always recognized.
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if v := os.Getenv("DEFAULT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_LIMIT %q: %w", v, err)
		}
		c.Search.DefaultLimit = n
	}
	if v := os.Getenv("MIN_DELAY"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid MIN_DELAY %q: %w", v, err)
		}
		c.Pacing.MinDelay = d
	}
	if v := os.Getenv("MAX_DELAY"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_DELAY %q: %w", v, err)
		}
		c.Pacing.MaxDelay = d
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("invalid HEADLESS %q: %w", v, err)
		}
		c.Browser.Headless = b
	}
	if v := os.Getenv("BLOCK_IMAGES"); v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("invalid BLOCK_IMAGES %q: %w", v, err)
		}
		c.Browser.BlockImages = b
	}
	if v := os.Getenv("SCROLL_STALL_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCROLL_STALL_LIMIT %q: %w", v, err)
		}
		c.Search.ScrollStallLimit = n
	}
	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_ATTEMPTS %q: %w", v, err)
		}
		c.Retry.MaxAttempts = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// parseSeconds converts a fractional-seconds string ("1.5") to a Duration.
func parseSeconds(v string) (time.Duration, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls
// back to the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches standard locations in order of precedence.
func (c *Config) findConfigFile() string {
	locations := []string{
		".mapsscraper.yaml",
		".mapsscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "mapsscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".mapsscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// MergeCommandLineFlags merges CLI flags into the configuration. Only
// keys the commands actually set are present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Search.DefaultLimit = limit
	}
	if dir, ok := flags["output-dir"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.Format = format
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if block, ok := flags["block-images"].(bool); ok {
		c.Browser.BlockImages = block
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Search.BulkWorkers = workers
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Validate checks that the final configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, errors.New("result limit must be positive"))
	}
	if c.Search.ScrollStallLimit <= 0 {
		errs = append(errs, errors.New("scroll stall limit must be positive"))
	}
	if c.Search.BulkWorkers <= 0 {
		errs = append(errs, errors.New("bulk workers must be positive"))
	}

	if c.Pacing.MinDelay < 0 || c.Pacing.MaxDelay < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	if c.Pacing.MinDelay > c.Pacing.MaxDelay {
		errs = append(errs, errors.New("min delay must not exceed max delay"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	validFormats := map[string]bool{"csv": true, "json": true, "excel": true, "all": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}

	if len(c.Browser.UserAgents) == 0 {
		errs = append(errs, errors.New("at least one user agent is required"))
	}
	if len(c.Browser.Viewports) == 0 {
		errs = append(errs, errors.New("at least one viewport is required"))
	}
	if c.Browser.NavigationTimeout <= 0 || c.Browser.DetailTimeout <= 0 {
		errs = append(errs, errors.New("browser timeouts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load builds the configuration from all sources with proper precedence:
// command line flags > environment variables (incl. .env) > config file
// > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Best effort; a missing .env is fine.
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
