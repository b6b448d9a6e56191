package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Download.TargetPerSpecies != 250 {
		t.Errorf("Expected default target to be 250, got %d", config.Download.TargetPerSpecies)
	}

	if config.INaturalist.PerPage != 30 {
		t.Errorf("Expected default per page to be 30, got %d", config.INaturalist.PerPage)
	}

	if config.Output.BaseDirectory != "inat_images" {
		t.Errorf("Expected default output directory to be inat_images, got %s", config.Output.BaseDirectory)
	}

	assert.Equal(t, "research", config.INaturalist.QualityGrade)
	assert.Equal(t, 3, config.Retry.MaxAttempts)
	assert.Equal(t, time.Second, config.Retry.BaseDelay)
	assert.Equal(t, 2.0, config.Retry.Multiplier)
	assert.Equal(t, 1500*time.Millisecond, config.Download.PolitenessDelay)
	assert.Equal(t, "inat_scraper.log", config.Logging.File)
	assert.Len(t, config.Species, 3)
	assert.NoError(t, config.Validate())
}

func TestSpeciesHelpers(t *testing.T) {
	s := Species{Name: "Indian Rock Python", TaxonID: 32150}
	assert.Equal(t, "Indian_Rock_Python", s.FolderName())
	assert.Equal(t, "Indian Rock Python", s.QueryName())
	assert.Equal(t, "Indian Rock Python (taxon 32150)", s.String())

	s = Species{Name: "Common Krait", TaxonName: "Bungarus caeruleus"}
	assert.Equal(t, "Bungarus caeruleus", s.QueryName())
	assert.Equal(t, "Common_Krait", s.FolderName())
}

func TestMaxPages(t *testing.T) {
	tests := []struct {
		target, perPage, slack, expected int
	}{
		{250, 30, 2, 18},
		{5, 3, 2, 4},
		{30, 30, 1, 1},
		{31, 30, 3, 6},
	}

	for _, tt := range tests {
		d := DownloadConfig{TargetPerSpecies: tt.target, PageSlack: tt.slack}
		if got := d.MaxPages(tt.perPage); got != tt.expected {
			t.Errorf("MaxPages(target=%d, perPage=%d, slack=%d) = %d, want %d",
				tt.target, tt.perPage, tt.slack, got, tt.expected)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INATSCRAPER_API_TOKEN", "test-token")
	t.Setenv("INATSCRAPER_OUTPUT_DIR", "/tmp/test-images")
	t.Setenv("INATSCRAPER_TARGET", "40")
	t.Setenv("INATSCRAPER_PER_PAGE", "10")
	t.Setenv("INATSCRAPER_POLITENESS_DELAY", "250ms")
	t.Setenv("INATSCRAPER_MAX_ATTEMPTS", "5")
	t.Setenv("INATSCRAPER_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("INATSCRAPER_LOG_LEVEL", "debug")
	t.Setenv("INATSCRAPER_LOG_FILE", "")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "test-token", config.INaturalist.APIToken)
	assert.Equal(t, "/tmp/test-images", config.Output.BaseDirectory)
	assert.Equal(t, 40, config.Download.TargetPerSpecies)
	assert.Equal(t, 10, config.INaturalist.PerPage)
	assert.Equal(t, 250*time.Millisecond, config.Download.PolitenessDelay)
	assert.Equal(t, 5, config.Retry.MaxAttempts)
	assert.True(t, config.Notifications.Enabled)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Empty(t, config.Logging.File)
}

func TestLoadFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv("INATSCRAPER_TARGET", "lots")
	t.Setenv("INATSCRAPER_POLITENESS_DELAY", "soon")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INATSCRAPER_TARGET")
	assert.Contains(t, err.Error(), "INATSCRAPER_POLITENESS_DELAY")
	assert.Equal(t, 250, config.Download.TargetPerSpecies)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"no species", func(c *Config) { c.Species = nil }, true},
		{"blank species name", func(c *Config) { c.Species = []Species{{Name: "  "}} }, true},
		{"negative taxon id", func(c *Config) { c.Species[0].TaxonID = -1 }, true},
		{"zero target", func(c *Config) { c.Download.TargetPerSpecies = 0 }, true},
		{"per page too large", func(c *Config) { c.INaturalist.PerPage = 500 }, true},
		{"bad base url", func(c *Config) { c.INaturalist.BaseURL = "not a url" }, true},
		{"bad order", func(c *Config) { c.INaturalist.Order = "sideways" }, true},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
		{"shrinking backoff", func(c *Config) { c.Retry.Multiplier = 0.5 }, true},
		{"zero slack", func(c *Config) { c.Download.PageSlack = 0 }, true},
		{"inverted size bounds", func(c *Config) {
			c.Download.MinFileSize = 100
			c.Download.MaxFileSize = 10
		}, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "invalid" }, true},
		{"invalid notification type", func(c *Config) { c.Notifications.NotificationType = "pigeon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	config := DefaultConfig()
	config.Output.BaseDirectory = ""
	config.Download.TargetPerSpecies = -1

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is required")
	assert.Contains(t, err.Error(), "target per species must be positive")
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":       "/flag/output",
		"target":       12,
		"delay":        200 * time.Millisecond,
		"max-attempts": 4,
		"log-level":    "error",
		"species":      []string{"bungarus caeruleus", "Naja naja"},
	}

	config.MergeCommandLineFlags(flags)

	assert.Equal(t, "/flag/output", config.Output.BaseDirectory)
	assert.Equal(t, 12, config.Download.TargetPerSpecies)
	assert.Equal(t, 200*time.Millisecond, config.Download.PolitenessDelay)
	assert.Equal(t, 4, config.Retry.MaxAttempts)
	assert.Equal(t, "error", config.Logging.Level)
	require.Len(t, config.Species, 2)
	assert.Equal(t, "Bungarus caeruleus", config.Species[0].Name)
	assert.Equal(t, "Naja naja", config.Species[1].Name)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Species = []Species{{Name: "Green Tree Snake", TaxonID: 27214}}
	config.Download.TargetPerSpecies = 42
	config.Download.PolitenessDelay = 750 * time.Millisecond

	require.NoError(t, config.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, config.Species, loaded.Species)
	assert.Equal(t, 42, loaded.Download.TargetPerSpecies)
	assert.Equal(t, 750*time.Millisecond, loaded.Download.PolitenessDelay)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConsoleSetTracksExplicitChoice(t *testing.T) {
	dir := t.TempDir()
	withKey := filepath.Join(dir, "with.yaml")
	withoutKey := filepath.Join(dir, "without.yaml")
	require.NoError(t, os.WriteFile(withKey, []byte("logging:\n  console: false\n"), 0644))
	require.NoError(t, os.WriteFile(withoutKey, []byte("logging:\n  level: debug\n"), 0644))

	config := DefaultConfig()
	assert.False(t, config.Logging.ConsoleSet)

	require.NoError(t, config.LoadFromFile(withoutKey))
	assert.False(t, config.Logging.ConsoleSet)

	config = DefaultConfig()
	require.NoError(t, config.LoadFromFile(withKey))
	assert.True(t, config.Logging.ConsoleSet)
	assert.False(t, config.Logging.Console)

	t.Setenv("INATSCRAPER_LOG_CONSOLE", "true")
	config = DefaultConfig()
	require.NoError(t, config.LoadFromEnv())
	assert.True(t, config.Logging.ConsoleSet)
	assert.True(t, config.Logging.Console)

	config = DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{"log-console": false})
	assert.True(t, config.Logging.ConsoleSet)
	assert.False(t, config.Logging.Console)
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
download:
  target_per_species: 20
output:
  base_directory: from-file
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("INATSCRAPER_OUTPUT_DIR", "from-env")

	config, err := Load(configPath, map[string]interface{}{"target": 7})
	require.NoError(t, err)

	assert.Equal(t, 7, config.Download.TargetPerSpecies)
	assert.Equal(t, "from-env", config.Output.BaseDirectory)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	_, err := Load("", map[string]interface{}{"log-level": "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
