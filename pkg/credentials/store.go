// Package credentials persists the user's Web3 Shield identity between
// runs: the user ID and the license key. Environment variables override
// whatever is on disk, so CI and ephemeral environments never need the file.
package credentials

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Profile is the stored identity.
type Profile struct {
	UserID     string    `json:"user_id,omitempty"`
	LicenseKey string    `json:"license_key,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Empty reports whether the profile carries no identity at all.
func (p *Profile) Empty() bool {
	return p == nil || (p.UserID == "" && p.LicenseKey == "")
}

// Store loads and saves profiles.
type Store interface {
	// Load returns the stored profile, or an empty one if none exists.
	Load(ctx context.Context) (*Profile, error)

	// Save persists the profile.
	Save(ctx context.Context, p *Profile) error

	// Clear removes the stored profile.
	Clear(ctx context.Context) error
}

// Environment variables recognized by EnvStore.
const (
	EnvUserID     = "WEB3SHIELD_USER_ID"
	EnvLicenseKey = "WEB3SHIELD_LICENSE_KEY"
)

// EnvStore reads the profile from environment variables. It is read-only;
// Save and Clear are no-ops so a chained file store can still persist.
type EnvStore struct{}

func (EnvStore) Load(ctx context.Context) (*Profile, error) {
	return &Profile{
		UserID:     os.Getenv(EnvUserID),
		LicenseKey: os.Getenv(EnvLicenseKey),
	}, nil
}

func (EnvStore) Save(ctx context.Context, p *Profile) error { return nil }

func (EnvStore) Clear(ctx context.Context) error { return nil }

// FileStore keeps the profile as JSON on disk with owner-only permissions.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns the conventional profile location under the user's
// home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".web3shield/credentials.json"
	}
	return filepath.Join(home, ".web3shield", "credentials.json")
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &p, nil
}

func (s *FileStore) Save(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	// Write via a temp file so a crash never leaves a truncated profile.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ChainedStore layers stores: Load merges from first to last, earlier
// non-empty fields winning. Save and Clear apply to every store.
type ChainedStore struct {
	stores []Store
}

// NewChainedStore chains the given stores in priority order.
func NewChainedStore(stores ...Store) *ChainedStore {
	return &ChainedStore{stores: stores}
}

func (s *ChainedStore) Load(ctx context.Context) (*Profile, error) {
	merged := &Profile{}
	for _, store := range s.stores {
		p, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if merged.UserID == "" {
			merged.UserID = p.UserID
		}
		if merged.LicenseKey == "" {
			merged.LicenseKey = p.LicenseKey
		}
	}
	return merged, nil
}

func (s *ChainedStore) Save(ctx context.Context, p *Profile) error {
	for _, store := range s.stores {
		if err := store.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChainedStore) Clear(ctx context.Context) error {
	for _, store := range s.stores {
		if err := store.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the standard chain: environment first, then the profile
// file in the home directory.
func Default() Store {
	return NewChainedStore(EnvStore{}, NewFileStore(DefaultPath()))
}

// SecureCompare compares two secrets in constant time.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
