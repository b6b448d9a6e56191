package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inatscraper/pkg/config"
)

func newScrapeFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("scrape", pflag.ContinueOnError)
	addScrapeFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	logLevel = ""
	fs := newScrapeFlags(t, "--target", "40", "-o", "/tmp/photos")

	flags := collectFlags(fs)

	assert.Equal(t, map[string]interface{}{
		"target": 40,
		"output": "/tmp/photos",
	}, flags)
}

func TestCollectFlagsMergeIntoConfig(t *testing.T) {
	logLevel = "debug"
	defer func() { logLevel = "" }()

	fs := newScrapeFlags(t,
		"-s", "Aedes aegypti", "-s", "Culex pipiens",
		"--delay", "250ms",
		"--max-attempts", "5",
		"--token", "tok-123",
		"--notifications",
	)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(collectFlags(fs))

	require.Len(t, cfg.Species, 2)
	assert.Equal(t, "Aedes aegypti", cfg.Species[0].Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Download.PolitenessDelay)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "tok-123", cfg.INaturalist.APIToken)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestCollectFlagsZeroDelayIsExplicit(t *testing.T) {
	logLevel = ""
	fs := newScrapeFlags(t, "--delay", "0s")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(collectFlags(fs))

	assert.Equal(t, time.Duration(0), cfg.Download.PolitenessDelay)
}

func TestConsoleLogging(t *testing.T) {
	unset := config.LoggingConfig{Console: true}
	chosenOn := config.LoggingConfig{Console: true, ConsoleSet: true}
	chosenOff := config.LoggingConfig{Console: false, ConsoleSet: true}

	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		verbose bool
		quiet   bool
		want    bool
	}{
		{"default yields to progress display", unset, false, false, false},
		{"explicit console kept", chosenOn, false, false, true},
		{"explicit off kept", chosenOff, false, false, false},
		{"verbose turns it on", chosenOff, true, false, true},
		{"quiet silences explicit console", chosenOn, false, true, false},
		{"quiet beats verbose", unset, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, consoleLogging(tt.cfg, tt.verbose, tt.quiet))
		})
	}
}

func TestCollectFlagsLogConsole(t *testing.T) {
	logLevel = ""
	fs := newScrapeFlags(t, "--log-console")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(collectFlags(fs))

	assert.True(t, cfg.Logging.Console)
	assert.True(t, cfg.Logging.ConsoleSet)
	assert.True(t, consoleLogging(cfg.Logging, false, false))
}
