package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkerResolver(t *testing.T) {
	root := t.TempDir()

	// root/repo/.git, root/repo/service/.env
	repo := filepath.Join(root, "repo")
	service := filepath.Join(repo, "service")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(service, 0o755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(service, ".env")
	if err := os.WriteFile(envPath, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var r MarkerResolver

	got, err := r.Resolve(envPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != repo {
		t.Errorf("Resolve() = %q, want %q", got, repo)
	}
}

func TestMarkerResolverNearestAncestorWins(t *testing.T) {
	root := t.TempDir()

	// Outer repo has .git, inner package has go.mod; the inner one is the
	// nearest containing project root.
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "inner")
	if err := os.MkdirAll(filepath.Join(outer, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inner, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(inner, ".env.local")
	if err := os.WriteFile(envPath, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var r MarkerResolver

	got, err := r.Resolve(envPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != inner {
		t.Errorf("Resolve() = %q, want %q", got, inner)
	}
}

func TestMarkerResolverFallsBackToOwnDir(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var r MarkerResolver

	got, err := r.Resolve(envPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != dir {
		t.Errorf("Resolve() = %q, want %q", got, dir)
	}
}

func TestMarkerResolverDeterministic(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var r MarkerResolver
	first, err := r.Resolve(envPath)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(envPath)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("Resolve not deterministic: %q then %q", first, again)
		}
	}
}
