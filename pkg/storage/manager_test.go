package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
)

func TestNewManagerCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inat_images")

	m, err := NewManager(root)
	require.NoError(t, err)
	assert.Equal(t, root, m.Root())
	assert.DirExists(t, root)
}

func TestNewManagerFailsWhenRootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := NewManager(filepath.Join(file, "images"))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeConfig, errs.TypeOf(err))

	_, err = NewManager("")
	assert.Error(t, err)
}

func TestSpeciesDirLayout(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	dir, err := m.SpeciesDir(config.Species{Name: "Python molurus"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.Root(), "Python_molurus"), dir.Dir())
	assert.DirExists(t, dir.Dir())
	assert.Equal(t, filepath.Join(dir.Dir(), "12345_2.png"), dir.Path(12345, 2, "png"))
	assert.Equal(t, "7_1.jpg", FileName(7, 1, ".jpg"))
}

func TestImageCount(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	dir, err := m.SpeciesDir(config.Species{Name: "Bungarus caeruleus"})
	require.NoError(t, err)

	for _, name := range []string{"1_1.jpg", "1_2.JPEG", "2_1.png", "attributions.json", "3_1.jpg.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir.Dir(), name), []byte("x"), 0644))
	}

	n, err := dir.ImageCount([]string{"jpg", "jpeg", "png"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "101_1.jpg")
	data := []byte("verbatim image bytes")

	assert.False(t, Exists(path))

	n, err := WriteAtomic(path, bytes.NewReader(data), Limits{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.True(t, Exists(path))
	assert.NoFileExists(t, path+".tmp")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteAtomicLimits(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		size    int
		limits  Limits
		wantErr bool
	}{
		{"within bounds", 10, Limits{MinBytes: 5, MaxBytes: 10}, false},
		{"too large", 11, Limits{MaxBytes: 10}, true},
		{"too small", 4, Limits{MinBytes: 5}, true},
		{"unbounded", 1000, Limits{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".jpg")
			_, err := WriteAtomic(path, bytes.NewReader(make([]byte, tt.size)), tt.limits)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errs.ErrorTypeIO, errs.TypeOf(err))
				assert.False(t, Exists(path))
			} else {
				require.NoError(t, err)
				assert.True(t, Exists(path))
			}
			assert.NoFileExists(t, path+".tmp")
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteAtomicReadFailureLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "5_1.jpg")

	_, err := WriteAtomic(path, failingReader{}, Limits{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
}
