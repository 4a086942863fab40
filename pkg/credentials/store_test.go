package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	p, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !p.Empty() {
		t.Error("fresh store should load an empty profile")
	}

	if err := store.Save(context.Background(), &Profile{UserID: "u1", LicenseKey: "lk"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	p, err = store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID != "u1" || p.LicenseKey != "lk" {
		t.Errorf("loaded profile = %+v", p)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set on save")
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)

	if err := store.Save(context.Background(), &Profile{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Clearing twice is fine.
	if err := store.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}

	p, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !p.Empty() {
		t.Errorf("profile after clear = %+v", p)
	}
}

func TestEnvStoreReadsEnvironment(t *testing.T) {
	t.Setenv(EnvUserID, "env-user")
	t.Setenv(EnvLicenseKey, "env-key")

	p, err := (EnvStore{}).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID != "env-user" || p.LicenseKey != "env-key" {
		t.Errorf("profile = %+v", p)
	}
}

func TestChainedStoreEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	file := NewFileStore(path)
	if err := file.Save(context.Background(), &Profile{UserID: "file-user", LicenseKey: "file-key"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvUserID, "env-user")
	t.Setenv(EnvLicenseKey, "")

	chain := NewChainedStore(EnvStore{}, file)
	p, err := chain.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID != "env-user" {
		t.Errorf("UserID = %q, want env-user", p.UserID)
	}
	if p.LicenseKey != "file-key" {
		t.Errorf("LicenseKey = %q, want file-key (fallback)", p.LicenseKey)
	}
}

func TestSecureCompare(t *testing.T) {
	if !SecureCompare("lk-123", "lk-123") {
		t.Error("equal secrets should compare true")
	}
	if SecureCompare("lk-123", "lk-124") {
		t.Error("different secrets should compare false")
	}
	if SecureCompare("lk-123", "") {
		t.Error("empty secret should compare false")
	}
}
