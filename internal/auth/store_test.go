package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admin_token")
	store := NewFileTokenStore(path)

	if tok, err := store.Load(); err != nil || tok != "" {
		t.Fatalf("Load() on missing file = %q, %v", tok, err)
	}

	if err := store.Save("tok-abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err := store.Load()
	if err != nil || tok != "tok-abc" {
		t.Fatalf("Load() = %q, %v", tok, err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("token file mode = %v, want 0600", info.Mode().Perm())
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatal("token survived Clear")
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileTokenStoreTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin_token")
	if err := os.WriteFile(path, []byte("tok-xyz\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileTokenStore(path)
	if tok, _ := store.Load(); tok != "tok-xyz" {
		t.Fatalf("Load() = %q", tok)
	}
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	if err := store.Save("t1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, _ := store.Load(); tok != "t1" {
		t.Fatalf("Load() = %q", tok)
	}
	store.Clear()
	if tok, _ := store.Load(); tok != "" {
		t.Fatal("token survived Clear")
	}
}
