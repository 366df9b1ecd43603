package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSessionRepository_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	repo := NewFileSessionRepository(path)
	ctx := context.Background()

	got, err := repo.Load(ctx, "expedientes_auth")
	if err != nil || got != nil {
		t.Fatalf("Load on missing file = %s, %v; want nil, nil", got, err)
	}

	payload := []byte(`{"token":"t","user":{"id":1,"username":"ana","rol":"tecnico"}}`)
	if err := repo.Save(ctx, "expedientes_auth", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, "other", []byte(`1`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh repository reads what the first one wrote.
	got, err = NewFileSessionRepository(path).Load(ctx, "expedientes_auth")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Load = %s; want %s", got, payload)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o; want 600", perm)
	}

	if err := repo.Remove(ctx, "expedientes_auth"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got, _ := repo.Load(ctx, "expedientes_auth"); got != nil {
		t.Errorf("expected key removed, got %s", got)
	}
	if got, _ := repo.Load(ctx, "other"); string(got) != "1" {
		t.Errorf("other key = %s; want 1", got)
	}
}

func TestFileSessionRepository_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	repo := NewFileSessionRepository(path)
	ctx := context.Background()

	if _, err := repo.Load(ctx, "expedientes_auth"); err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if err := repo.Remove(ctx, "expedientes_auth"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := repo.Load(ctx, "expedientes_auth")
	if err != nil || got != nil {
		t.Errorf("after reset Load = %s, %v; want nil, nil", got, err)
	}
}

func TestFileSessionRepository_RejectsInvalidJSON(t *testing.T) {
	repo := NewFileSessionRepository(filepath.Join(t.TempDir(), "s.json"))
	if err := repo.Save(context.Background(), "k", []byte("nope")); err == nil {
		t.Fatal("expected error")
	}
}
