package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the iNaturalist scraper
type Config struct {
	// iNaturalist API settings
	INaturalist INaturalistConfig `yaml:"inaturalist" json:"inaturalist"`

	// Species to scrape, processed in order
	Species []Species `yaml:"species" json:"species"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Page fetch retry settings
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// INaturalistConfig holds API-specific configuration
type INaturalistConfig struct {
	BaseURL      string `yaml:"base_url" json:"base_url"`
	APIToken     string `yaml:"api_token" json:"api_token"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
	QualityGrade string `yaml:"quality_grade" json:"quality_grade"`
	PerPage      int    `yaml:"per_page" json:"per_page"`
	OrderBy      string `yaml:"order_by" json:"order_by"`
	Order        string `yaml:"order" json:"order"`
}

// Species describes one taxon to scrape. TaxonID takes precedence over
// TaxonName; when both are empty Name is used as the taxon name.
type Species struct {
	Name      string `yaml:"name" json:"name"`
	TaxonID   int    `yaml:"taxon_id,omitempty" json:"taxon_id,omitempty"`
	TaxonName string `yaml:"taxon_name,omitempty" json:"taxon_name,omitempty"`
}

// FolderName returns the per-species directory name
func (s Species) FolderName() string {
	return strings.ReplaceAll(strings.TrimSpace(s.Name), " ", "_")
}

// QueryName returns the taxon name used when no taxon id is set
func (s Species) QueryName() string {
	if s.TaxonName != "" {
		return s.TaxonName
	}
	return s.Name
}

func (s Species) String() string {
	if s.TaxonID > 0 {
		return fmt.Sprintf("%s (taxon %d)", s.Name, s.TaxonID)
	}
	return s.Name
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string   `yaml:"base_directory" json:"base_directory"`
	AllowedExtensions []string `yaml:"allowed_extensions" json:"allowed_extensions"`
	DefaultExtension  string   `yaml:"default_extension" json:"default_extension"`
	WriteManifest     bool     `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	TargetPerSpecies int           `yaml:"target_per_species" json:"target_per_species"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	PolitenessDelay  time.Duration `yaml:"politeness_delay" json:"politeness_delay"`
	PageSlack        int           `yaml:"page_slack" json:"page_slack"`
	LowResMarker     string        `yaml:"low_res_marker" json:"low_res_marker"`
	FullResMarker    string        `yaml:"full_res_marker" json:"full_res_marker"`
	MinFileSize      int64         `yaml:"min_file_size" json:"min_file_size"`
	MaxFileSize      int64         `yaml:"max_file_size" json:"max_file_size"`
}

// MaxPages returns the safety ceiling on pages fetched per species
func (d DownloadConfig) MaxPages(perPage int) int {
	if perPage <= 0 {
		perPage = 1
	}
	pages := int(math.Ceil(float64(d.TargetPerSpecies) / float64(perPage)))
	return pages * d.PageSlack
}

// RetryConfig holds page fetch retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
	Jitter      float64       `yaml:"jitter" json:"jitter"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	Console bool   `yaml:"console" json:"console"`

	// ConsoleSet is true when a config file, environment variable or flag
	// chose Console rather than leaving the default
	ConsoleSet bool `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		INaturalist: INaturalistConfig{
			BaseURL:      "https://api.inaturalist.org/v1",
			UserAgent:    "iNaturalistImageScraper/1.0",
			QualityGrade: "research",
			PerPage:      30,
			OrderBy:      "created_at",
			Order:        "desc",
		},
		Species: []Species{
			{Name: "Python molurus"},
			{Name: "Bungarus caeruleus"},
			{Name: "Dendrelaphis punctulatus"},
		},
		Output: OutputConfig{
			BaseDirectory:     "inat_images",
			AllowedExtensions: []string{"jpg", "jpeg", "png"},
			DefaultExtension:  "jpg",
			WriteManifest:     true,
		},
		Download: DownloadConfig{
			TargetPerSpecies: 250,
			Timeout:          30 * time.Second,
			PolitenessDelay:  1500 * time.Millisecond,
			PageSlack:        2,
			LowResMarker:     "square",
			FullResMarker:    "original",
			MinFileSize:      0,
			MaxFileSize:      0, // 0 means no limit
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    60 * time.Second,
			Multiplier:  2.0,
			Jitter:      0,
		},
		Notifications: NotificationConfig{
			Enabled:          false,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "inat_scraper.log",
			Console: true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("INATSCRAPER_BASE_URL"); v != "" {
		c.INaturalist.BaseURL = v
	}
	if v := os.Getenv("INATSCRAPER_API_TOKEN"); v != "" {
		c.INaturalist.APIToken = v
	}
	if v := os.Getenv("INATSCRAPER_USER_AGENT"); v != "" {
		c.INaturalist.UserAgent = v
	}
	if v := os.Getenv("INATSCRAPER_QUALITY_GRADE"); v != "" {
		c.INaturalist.QualityGrade = v
	}
	if v := os.Getenv("INATSCRAPER_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INATSCRAPER_PER_PAGE: %w", err))
		} else {
			c.INaturalist.PerPage = n
		}
	}

	if v := os.Getenv("INATSCRAPER_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("INATSCRAPER_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INATSCRAPER_TARGET: %w", err))
		} else {
			c.Download.TargetPerSpecies = n
		}
	}
	if v := os.Getenv("INATSCRAPER_POLITENESS_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INATSCRAPER_POLITENESS_DELAY: %w", err))
		} else {
			c.Download.PolitenessDelay = d
		}
	}
	if v := os.Getenv("INATSCRAPER_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INATSCRAPER_MAX_ATTEMPTS: %w", err))
		} else {
			c.Retry.MaxAttempts = n
		}
	}

	if v := os.Getenv("INATSCRAPER_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("INATSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("INATSCRAPER_LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v := os.Getenv("INATSCRAPER_LOG_CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INATSCRAPER_LOG_CONSOLE: %w", err))
		} else {
			c.Logging.Console = b
			c.Logging.ConsoleSet = true
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// A bool cannot tell "false" from "absent", so look for the key itself
	var present struct {
		Logging struct {
			Console *bool `yaml:"console"`
		} `yaml:"logging"`
	}
	if err := yaml.Unmarshal(data, &present); err == nil && present.Logging.Console != nil {
		c.Logging.ConsoleSet = true
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".inatscraper.yaml",
		".inatscraper.yml",
		filepath.Join(home, ".config", "inatscraper", "config.yaml"),
		filepath.Join(home, ".config", "inatscraper", "config.yml"),
		filepath.Join(home, ".inatscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.INaturalist.BaseURL == "" {
		errs = append(errs, errors.New("iNaturalist base URL is required"))
	} else if u, err := url.Parse(c.INaturalist.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid iNaturalist base URL %q", c.INaturalist.BaseURL))
	}
	if c.INaturalist.PerPage <= 0 || c.INaturalist.PerPage > 200 {
		errs = append(errs, errors.New("per page must be between 1 and 200"))
	}
	if c.INaturalist.Order != "asc" && c.INaturalist.Order != "desc" {
		errs = append(errs, errors.New("order must be asc or desc"))
	}

	if len(c.Species) == 0 {
		errs = append(errs, errors.New("at least one species is required"))
	}
	for i, s := range c.Species {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Errorf("species %d: name is required", i))
		}
		if s.TaxonID < 0 {
			errs = append(errs, fmt.Errorf("species %q: taxon id cannot be negative", s.Name))
		}
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.DefaultExtension == "" {
		errs = append(errs, errors.New("default extension is required"))
	}

	if c.Download.TargetPerSpecies <= 0 {
		errs = append(errs, errors.New("target per species must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.PolitenessDelay < 0 {
		errs = append(errs, errors.New("politeness delay cannot be negative"))
	}
	if c.Download.PageSlack < 1 {
		errs = append(errs, errors.New("page slack must be at least 1"))
	}
	if c.Download.MaxFileSize > 0 && c.Download.MaxFileSize < c.Download.MinFileSize {
		errs = append(errs, errors.New("max file size must not be below min file size"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["target"].(int); ok && v > 0 {
		c.Download.TargetPerSpecies = v
	}
	if v, ok := flags["per-page"].(int); ok && v > 0 {
		c.INaturalist.PerPage = v
	}
	if v, ok := flags["quality-grade"].(string); ok && v != "" {
		c.INaturalist.QualityGrade = v
	}
	if v, ok := flags["delay"].(time.Duration); ok && v >= 0 {
		c.Download.PolitenessDelay = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Download.Timeout = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["page-slack"].(int); ok && v > 0 {
		c.Download.PageSlack = v
	}
	if v, ok := flags["api-token"].(string); ok && v != "" {
		c.INaturalist.APIToken = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok {
		c.Logging.File = v
	}
	if v, ok := flags["log-console"].(bool); ok {
		c.Logging.Console = v
		c.Logging.ConsoleSet = true
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["species"].([]string); ok && len(v) > 0 {
		c.Species = c.selectSpecies(v)
	}
}

// selectSpecies narrows the species list to the given names. Names not
// present in the configuration are scraped by taxon name.
func (c *Config) selectSpecies(names []string) []Species {
	known := make(map[string]Species, len(c.Species))
	for _, s := range c.Species {
		known[strings.ToLower(s.Name)] = s
	}

	selected := make([]Species, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if s, ok := known[strings.ToLower(name)]; ok {
			selected = append(selected, s)
			continue
		}
		selected = append(selected, Species{Name: name})
	}
	return selected
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".inatscraper.env"))

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
