package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/chenzhangda16/seedmix/internal/seedmix/store/storetest"
)

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "seedmix.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
}

func TestBoltStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "seedmix.db")

	s, err := store.Open(ctx, "boltdb://"+path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if err := s.Put(ctx, 77, "Data", []byte("kept")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, ok, err := s2.Get(ctx, 77, "Data")
	if err != nil || !ok || string(v) != "kept" {
		t.Fatalf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}
