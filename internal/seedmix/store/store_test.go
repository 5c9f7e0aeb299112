package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/chenzhangda16/seedmix/internal/seedmix/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return store.NewMemory() })
}

func TestFile(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.NewFile(t.TempDir())
		if err != nil {
			t.Fatalf("NewFile: %v", err)
		}
		return s
	})
}

func TestInstrumented(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return store.Instrument(store.NewMemory()) })
}

func TestFileLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := s.Put(context.Background(), 9, "Data", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "9", "Data.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	if err := s.Put(context.Background(), 9, "../escape", []byte("x")); err == nil {
		t.Fatalf("Put accepted a path-like key")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tcs := []struct {
		url  string
		want any
	}{
		{"", &store.Memory{}},
		{":memory:", &store.Memory{}},
		{"memory://", &store.Memory{}},
		{"file://" + dir, &store.File{}},
		{filepath.Join(dir, "bare"), &store.File{}},
	}
	for _, tc := range tcs {
		s, err := store.Open(ctx, tc.url)
		if err != nil {
			t.Fatalf("Open(%q): %v", tc.url, err)
		}
		switch tc.want.(type) {
		case *store.Memory:
			if _, ok := s.(*store.Memory); !ok {
				t.Fatalf("Open(%q) = %T, want *store.Memory", tc.url, s)
			}
		case *store.File:
			if _, ok := s.(*store.File); !ok {
				t.Fatalf("Open(%q) = %T, want *store.File", tc.url, s)
			}
		}
		_ = s.Close()
	}

	if _, err := store.Open(ctx, "carrier-pigeon://x"); !errors.Is(err, store.ErrUnknownBackend) {
		t.Fatalf("Open unknown scheme = %v, want %v", err, store.ErrUnknownBackend)
	}
}
