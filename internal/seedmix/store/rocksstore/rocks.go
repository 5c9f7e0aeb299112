// Package rocksstore is a RocksDB-backed store. Importing it registers the
// rocksdb:// scheme.
package rocksstore

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/tecbot/gorocksdb"
)

func init() {
	store.Register("rocksdb", func(_ context.Context, u *url.URL) (store.Store, error) {
		return Open(store.Path(u))
	})
}

type RocksStore struct {
	mu sync.RWMutex
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

func Open(path string) (*RocksStore, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	defer opts.Destroy()

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}

	wo := gorocksdb.NewDefaultWriteOptions()
	wo.SetSync(true)
	return &RocksStore{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: wo,
	}, nil
}

// Key lays out save:<saveID, zero padded>:<key> so one save's keys sort together.
func Key(saveID uint64, key string) []byte {
	return []byte(fmt.Sprintf("save:%020d:%s", saveID, key))
}

func (s *RocksStore) Get(ctx context.Context, saveID uint64, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, false, store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	val, err := s.db.Get(s.ro, Key(saveID, key))
	if err != nil {
		return nil, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return nil, false, nil
	}
	// val.Data() is RocksDB-owned memory and dies with Free.
	return append([]byte{}, val.Data()...), true, nil
}

func (s *RocksStore) Put(ctx context.Context, saveID uint64, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Put(s.wo, Key(saveID, key), value)
}

func (s *RocksStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ro != nil {
		s.ro.Destroy()
		s.ro = nil
	}
	if s.wo != nil {
		s.wo.Destroy()
		s.wo = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}
