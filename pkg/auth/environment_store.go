package auth

import (
	"os"
	"time"
)

const (
	EnvAPIToken  = "INATSCRAPER_API_TOKEN"
	EnvUserAgent = "INATSCRAPER_USER_AGENT"
)

// EnvironmentStore is a read-only store over INATSCRAPER_API_TOKEN
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under any requested name
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	token := os.Getenv(EnvAPIToken)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = "environment"
	}

	return &Profile{
		Name:         name,
		APIToken:     token,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("")
	if err != nil {
		return nil, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAPIToken) != ""
}
