// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
)

// Run exercises a fresh Store returned by open. Run closes it.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		v, ok, err := s.Get(ctx, 1, "Data")
		if err != nil || ok || v != nil {
			t.Fatalf("Get absent = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("put get overwrite", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if err := s.Put(ctx, 1, "Data", []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Put(ctx, 1, "Data", []byte(`{"a":2}`)); err != nil {
			t.Fatalf("Put overwrite: %v", err)
		}
		v, ok, err := s.Get(ctx, 1, "Data")
		if err != nil || !ok || !bytes.Equal(v, []byte(`{"a":2}`)) {
			t.Fatalf("Get = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("saves are isolated", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if err := s.Put(ctx, 1, "Data", []byte("one")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Put(ctx, 1<<63+5, "Data", []byte("big")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if _, ok, _ := s.Get(ctx, 2, "Data"); ok {
			t.Fatalf("save 2 sees save 1 data")
		}
		v, ok, err := s.Get(ctx, 1<<63+5, "Data")
		if err != nil || !ok || string(v) != "big" {
			t.Fatalf("Get high save id = %q, %v, %v", v, ok, err)
		}
		if _, ok, _ := s.Get(ctx, 1, "Other"); ok {
			t.Fatalf("key Other sees key Data")
		}
	})

	t.Run("closed", func(t *testing.T) {
		s := open(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := s.Put(ctx, 1, "Data", []byte("x")); !errors.Is(err, store.ErrClosed) {
			t.Fatalf("Put after Close = %v, want %v", err, store.ErrClosed)
		}
	})
}
