// Package store keeps small per-save blobs keyed by (save id, key).
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

var (
	ErrClosed         = errors.New("store: closed")
	ErrUnknownBackend = errors.New("store: unknown backend")
)

// Store is a per-save key/value store. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, saveID uint64, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, saveID uint64, key string, value []byte) error
	Close() error
}

// Opener builds a Store from a parsed URL.
type Opener func(ctx context.Context, u *url.URL) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes a backend available to Open under scheme. Backends that need
// cgo or a server register from their own package's init.
func Register(scheme string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[scheme]; dup {
		panic("store: Register called twice for " + scheme)
	}
	registry[scheme] = open
}

func init() {
	Register("memory", func(context.Context, *url.URL) (Store, error) { return NewMemory(), nil })
	Register("file", func(_ context.Context, u *url.URL) (Store, error) { return NewFile(urlPath(u)) })
}

// Open selects a backend by URL scheme. An empty string or ":memory:" is memory://.
// A bare path without scheme is a file store.
func Open(ctx context.Context, raw string) (Store, error) {
	if raw == "" || raw == ":memory:" {
		raw = "memory://"
	}
	if !strings.Contains(raw, "://") {
		raw = "file://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("store: parse %q: %w", raw, err)
	}

	registryMu.RLock()
	open, ok := registry[u.Scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownBackend, u.Scheme, strings.Join(Schemes(), ", "))
	}
	s, err := open(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", u.Scheme, err)
	}
	return s, nil
}

func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// urlPath joins host and path so file://./data and file:///var/x both work.
func urlPath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// Path is urlPath for backends in other packages.
func Path(u *url.URL) string { return urlPath(u) }
