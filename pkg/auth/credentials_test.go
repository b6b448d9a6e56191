package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreRetrieveDelete(t *testing.T) {
	manager, store := NewMockManager()

	err := manager.Store(&Profile{Name: "field-team", APIToken: "eyJhbGciOiJIUzUxMiJ9.payload.sig"})
	require.NoError(t, err)

	got, err := manager.Retrieve("field-team")
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzUxMiJ9.payload.sig", got.APIToken)
	assert.False(t, got.LastModified.IsZero())

	require.NoError(t, manager.Delete("field-team"))
	assert.Equal(t, 0, store.Count())

	_, err = manager.Retrieve("field-team")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete("field-team")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreValidates(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(&Profile{APIToken: "tok"}))
	assert.Error(t, manager.Store(&Profile{Name: "default"}))
	assert.Error(t, manager.Store(nil))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Profile{Name: "default", APIToken: "tok-12345678"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerListNewestFirst(t *testing.T) {
	a, b := NewMockStore(), NewMockStore()
	now := time.Now()
	require.NoError(t, a.Store(&Profile{Name: "old", APIToken: "1", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, a.Store(&Profile{Name: "dup", APIToken: "stale", LastModified: now.Add(-2 * time.Hour)}))
	require.NoError(t, b.Store(&Profile{Name: "dup", APIToken: "fresh", LastModified: now}))

	profiles, err := NewManagerWithStores(a, b).List()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "dup", profiles[0].Name)
	assert.Equal(t, "fresh", profiles[0].APIToken)
	assert.Equal(t, "old", profiles[1].Name)
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	store := NewMockStore()
	require.NoError(t, store.Store(&Profile{Name: DefaultProfile, APIToken: "stored"}))
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	t.Setenv(EnvAPIToken, "")
	got, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "stored", got.APIToken)

	t.Setenv(EnvAPIToken, "from-env")
	got, err = manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "from-env", got.APIToken)
}

func TestRetrieveDefaultNothingStored(t *testing.T) {
	t.Setenv(EnvAPIToken, "")
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())

	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")
	t.Setenv(EnvPassphrase, "correct horse battery staple")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Profile{Name: "default", APIToken: "secret-token-value"}))
	require.NoError(t, store.Store(&Profile{Name: "backup", APIToken: "other-token-value"}))

	got, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "secret-token-value", got.APIToken)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("secret-token-value")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	profiles, err := store.List()
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	require.NoError(t, store.Delete("backup"))
	require.NoError(t, store.Delete("default"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	t.Setenv(EnvPassphrase, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Profile{Name: "default", APIToken: "tok"}))

	t.Setenv(EnvPassphrase, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("default")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPassphrase, "")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Profile{Name: "default", APIToken: "tok"}))

	_, err = os.Stat(filepath.Join(dir, passphraseFile))
	require.NoError(t, err)

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	got, err := reopened.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.APIToken)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvAPIToken, "")
	assert.False(t, store.Exists(""))
	profiles, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	t.Setenv(EnvAPIToken, "env-token")
	t.Setenv(EnvUserAgent, "FieldBot/2.0")
	p, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "environment", p.Name)
	assert.Equal(t, "env-token", p.APIToken)
	assert.Equal(t, "FieldBot/2.0", p.UserAgent)

	assert.ErrorIs(t, store.Store(p), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("environment"), ErrStoreUnavailable)
}

func TestSanitize(t *testing.T) {
	p := &Profile{Name: "default", APIToken: "abcdefghijklmnop"}
	s := Sanitize(p)

	assert.Equal(t, "abcd...mnop", s.APIToken)
	assert.Equal(t, "abcdefghijklmnop", p.APIToken)
	assert.Equal(t, "********", Sanitize(&Profile{APIToken: "short"}).APIToken)
	assert.Nil(t, Sanitize(nil))
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)
	assert.Contains(t, buf.String(), TokenURL)
	assert.Contains(t, buf.String(), EnvAPIToken)
}
