package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inatscraper/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "console only", cfg: config.LoggingConfig{Level: "info", Console: true}},
		{name: "debug level", cfg: config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file and console", cfg: config.LoggingConfig{Level: "info", File: filepath.Join(dir, "a.log"), Console: true}},
		{name: "file only, nested dir", cfg: config.LoggingConfig{Level: "warn", File: filepath.Join(dir, "logs", "b.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			if tt.cfg.File != "" {
				assert.FileExists(t, tt.cfg.File)
			}
		})
	}
}

func TestFileOutputReceivesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inat_scraper.log")
	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("species", "Bungarus caeruleus").Info("Starting species")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Starting species")
	assert.Contains(t, string(data), `"species":"Bungarus caeruleus"`)
	assert.Contains(t, string(data), `"app":"inatscraper"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, out, want)
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithField("species", "Python molurus").
		WithField("page", 2).
		WithFields(map[string]interface{}{"saved": 31, "done": false}).
		Info("Page processed")

	out := buf.String()
	assert.Contains(t, out, `"species":"Python molurus"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"saved":31`)
	assert.Contains(t, out, `"done":false`)
}

func TestChildDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	_ = l.WithField("species", "x")
	l.Info("parent")

	assert.NotContains(t, buf.String(), "species")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("Fetch failed")
	assert.Contains(t, buf.String(), `"error":"connection reset"`)
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoWithFields("types", map[string]interface{}{
		"int64":    int64(456),
		"float":    1.5,
		"duration": 1500 * time.Millisecond,
		"strings":  []string{"jpg", "png"},
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"strings":["jpg","png"]`)
	assert.Contains(t, out, `"custom":{"Name":"x"}`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	Debug("debug message")
	Info("info message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("boom")).Error("with error")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://api.example/v1/observations", 503, 20*time.Millisecond)
	LogDownload(tl, "Python molurus", "inat_images/Python_molurus/1_1.jpg", true, nil)
	LogDownload(tl, "Python molurus", "inat_images/Python_molurus/1_2.jpg", false, errors.New("timeout"))
	LogSpeciesSummary(tl, "Python molurus", 1, 250, 3, "exhausted")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "ERROR", msgs[0].Level)
	assert.Equal(t, 503, msgs[0].Fields["status_code"])
	assert.Equal(t, "Image saved", msgs[1].Message)
	assert.Equal(t, "WARN", msgs[2].Level)
	assert.EqualError(t, msgs[2].Error, "timeout")
	assert.Equal(t, "exhausted", msgs[3].Fields["reason"])
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("species", "a")
	child.Info("from child")
	tl.Warn("from parent")

	assert.True(t, tl.HasMessage("from child"))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.Equal(t, "a", tl.GetMessages()[0].Fields["species"])
	assert.Nil(t, tl.GetMessages()[1].Fields)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("x")).Error("dropped")
	assert.NotNil(t, l.GetZerolog())
}
