package localvault

import (
	"context"
	"errors"
	"testing"

	"github.com/keydrop-app/keydrop/internal/backend"
)

const testPassword = "correct horse battery staple"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v := New(t.TempDir())
	if err := v.Init(testPassword); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func envFileRequest(name string) backend.CreateRequest {
	return backend.CreateRequest{
		Name:        name,
		Service:     "shop",
		Environment: backend.EnvProduction,
		Value:       "sk_live_abcdef1234567890",
		SourceType:  backend.SourceEnvFile,
		ProjectPath: "/work/shop",
		EnvFilePath: "/work/shop/.env.production",
		EnvFileName: ".env.production",
	}
}

func TestInitTwiceFails(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	if err := v.Init(testPassword); err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	other := New(dir)
	if err := other.Init(testPassword); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestUnlockWrongPassword(t *testing.T) {
	v := newTestVault(t)
	v.Lock()

	err := v.Unlock("wrong password")
	if !errors.Is(err, backend.ErrAuthenticationFailed) {
		t.Errorf("Unlock() error = %v, want ErrAuthenticationFailed", err)
	}
	if err := v.Unlock(testPassword); err != nil {
		t.Errorf("Unlock() with correct password error = %v", err)
	}
}

func TestCreateAndRoundTrip(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	rec, err := v.Create(ctx, envFileRequest("stripe_key"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.StoredValue != backend.EncryptedSentinel {
		t.Errorf("StoredValue = %q, want sentinel", rec.StoredValue)
	}

	got, err := v.GetByName(ctx, "stripe_key")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != rec.ID || got.Environment != backend.EnvProduction || got.SourceType != backend.SourceEnvFile {
		t.Errorf("GetByName() = %+v", got)
	}
	if got.StoredValue != backend.EncryptedSentinel {
		t.Errorf("listing leaked stored value %q", got.StoredValue)
	}
	if got.ProjectPath != "/work/shop" {
		t.Errorf("ProjectPath = %q", got.ProjectPath)
	}

	plaintext, err := v.Decrypt(ctx, rec.ID, testPassword)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plaintext != "sk_live_abcdef1234567890" {
		t.Errorf("Decrypt() = %q", plaintext)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	rec, err := v.Create(ctx, envFileRequest("stripe_key"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = v.Decrypt(ctx, rec.ID, "wrong password")
	if !errors.Is(err, backend.ErrAuthenticationFailed) {
		t.Errorf("Decrypt() error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptWorksWhileLocked(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	rec, err := v.Create(ctx, envFileRequest("stripe_key"))
	if err != nil {
		t.Fatal(err)
	}
	v.Lock()

	// decrypt(keyId, masterPassword) re-derives the key per call.
	plaintext, err := v.Decrypt(ctx, rec.ID, testPassword)
	if err != nil {
		t.Fatalf("Decrypt() on locked vault error = %v", err)
	}
	if plaintext != "sk_live_abcdef1234567890" {
		t.Errorf("Decrypt() = %q", plaintext)
	}
}

func TestDecryptUnknownRecord(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Decrypt(context.Background(), "no-such-id", testPassword)
	if !errors.Is(err, backend.ErrRecordNotFound) {
		t.Errorf("Decrypt() error = %v, want ErrRecordNotFound", err)
	}
}

func TestCreateRequiresUnlock(t *testing.T) {
	v := newTestVault(t)
	v.Lock()

	_, err := v.Create(context.Background(), envFileRequest("stripe_key"))
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Create() on locked vault error = %v, want ErrLocked", err)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if _, err := v.Create(ctx, envFileRequest("stripe_key")); err != nil {
		t.Fatal(err)
	}
	_, err := v.Create(ctx, envFileRequest("stripe_key"))
	if !errors.Is(err, backend.ErrValidation) {
		t.Errorf("duplicate Create() error = %v, want ErrValidation", err)
	}
}

func TestCreateValidatesEnvFileProvenance(t *testing.T) {
	v := newTestVault(t)

	req := envFileRequest("stripe_key")
	req.ProjectPath = ""
	_, err := v.Create(context.Background(), req)
	if !errors.Is(err, backend.ErrValidation) {
		t.Errorf("Create() without project path error = %v, want ErrValidation", err)
	}
}

func TestList(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	for _, name := range []string{"zeta_key", "alpha_key"} {
		if _, err := v.Create(ctx, envFileRequest(name)); err != nil {
			t.Fatal(err)
		}
	}

	records, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List() returned %d records", len(records))
	}
	if records[0].Name != "alpha_key" || records[1].Name != "zeta_key" {
		t.Errorf("List() order = %q, %q; want sorted by name", records[0].Name, records[1].Name)
	}
}

func TestAssociateEnvFileLastWriteWins(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if err := v.AssociateEnvFile(ctx, "/work/shop", "/work/shop/.env", ".env"); err != nil {
		t.Fatal(err)
	}
	if err := v.AssociateEnvFile(ctx, "/work/shop", "/work/shop/.env.production", ".env.production"); err != nil {
		t.Fatal(err)
	}

	var fileName string
	err := v.db.QueryRow(`SELECT env_file_name FROM project_envs WHERE project_path = ?`, "/work/shop").
		Scan(&fileName)
	if err != nil {
		t.Fatal(err)
	}
	if fileName != ".env.production" {
		t.Errorf("association = %q, want last write", fileName)
	}
}
