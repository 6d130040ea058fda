package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := s.Upload(ctx, "u1/prices.csv", strings.NewReader("a,b\n")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Upload(ctx, "u1/.trash/old.csv", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload trash: %v", err)
	}

	objs, err := s.List(ctx, "u1/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 1 || objs[0].Key != "u1/prices.csv" || objs[0].Size != 4 {
		t.Fatalf("List: want only u1/prices.csv, got %+v", objs)
	}

	rc, err := s.Download(ctx, "u1/prices.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "a,b\n" {
		t.Fatalf("Download: want=%q got=%q", "a,b\n", body)
	}

	if err := s.Move(ctx, "u1/prices.csv", "u1/.trash/prices.csv"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := s.Download(ctx, "u1/prices.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("moved source: want ErrNotFound got %v", err)
	}
	trash, _ := s.List(ctx, "u1/.trash/")
	if len(trash) != 2 {
		t.Fatalf("trash: want 2 objects, got %+v", trash)
	}

	if err := s.Delete(ctx, "u1/.trash/prices.csv"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "u1/.trash/prices.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: want ErrNotFound got %v", err)
	}
}

func TestLocalStoreMissingPrefix(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir())
	objs, err := s.List(context.Background(), "nobody/")
	if err != nil || len(objs) != 0 {
		t.Fatalf("List on missing folder: objs=%v err=%v", objs, err)
	}
}

func TestCleanKey(t *testing.T) {
	bad := []string{"", "/abs", "../x", "u1/../../x", `u1\x`, "."}
	for _, k := range bad {
		if _, err := CleanKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CleanKey(%q): want ErrInvalidKey got %v", k, err)
		}
	}
	got, err := CleanKey("u1//a.csv")
	if err != nil || got != "u1/a.csv" {
		t.Fatalf("CleanKey: want=u1/a.csv got=%q err=%v", got, err)
	}
}
