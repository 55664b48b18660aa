package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/mdkeep/internal/karakeep"
	appErr "github.com/xxxsen/mdkeep/internal/pkg/errors"
)

const (
	settingAPIBaseURL = "api_base_url"
	settingAPIKey     = "api_key"
)

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, mtime int64) error
	Delete(ctx context.Context, key string) error
}

type Credentials struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`
}

// Masked hides all but the last four characters of the key.
func (c Credentials) Masked() Credentials {
	out := c
	if n := len(c.APIKey); n > 4 {
		out.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
	} else if n > 0 {
		out.APIKey = strings.Repeat("*", n)
	}
	return out
}

// IsEmpty reports whether neither field is set.
func (c Credentials) IsEmpty() bool {
	return strings.TrimSpace(c.APIBaseURL) == "" && strings.TrimSpace(c.APIKey) == ""
}

// Merge fills empty fields of c from fallback.
func (c Credentials) Merge(fallback Credentials) Credentials {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		c.APIBaseURL = fallback.APIBaseURL
	}
	if strings.TrimSpace(c.APIKey) == "" {
		c.APIKey = fallback.APIKey
	}
	return c
}

// CredentialService keeps the API base URL and key in the local settings store.
// Values are stored as given; there is no encryption and no expiry.
type CredentialService struct {
	store SettingsStore
}

func NewCredentialService(store SettingsStore) *CredentialService {
	return &CredentialService{store: store}
}

// Load returns whatever is stored; missing entries come back empty.
func (s *CredentialService) Load(ctx context.Context) (Credentials, error) {
	var creds Credentials
	baseURL, err := s.store.Get(ctx, settingAPIBaseURL)
	if err != nil && !appErr.IsNotFound(err) {
		return creds, err
	}
	creds.APIBaseURL = baseURL
	apiKey, err := s.store.Get(ctx, settingAPIKey)
	if err != nil && !appErr.IsNotFound(err) {
		return creds, err
	}
	creds.APIKey = apiKey
	return creds, nil
}

func (s *CredentialService) Save(ctx context.Context, creds Credentials) error {
	baseURL := karakeep.NormalizeBaseURL(creds.APIBaseURL)
	apiKey := strings.TrimSpace(creds.APIKey)
	if baseURL == "" {
		return appErr.Validation("API base URL is required")
	}
	if apiKey == "" {
		return appErr.Validation("API key is required")
	}
	now := time.Now().Unix()
	if err := s.store.Set(ctx, settingAPIBaseURL, baseURL, now); err != nil {
		return err
	}
	return s.store.Set(ctx, settingAPIKey, apiKey, now)
}

func (s *CredentialService) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, settingAPIBaseURL); err != nil {
		return err
	}
	return s.store.Delete(ctx, settingAPIKey)
}
