// Package boltstore is a BoltDB-backed store. Importing it registers the
// boltdb:// scheme.
package boltstore

import (
	"context"
	"encoding/binary"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	bolt "go.etcd.io/bbolt"
)

// one bucket per save, named by the big-endian save id
var savesBucket = []byte("saves")

func init() {
	store.Register("boltdb", func(_ context.Context, u *url.URL) (store.Store, error) {
		return Open(store.Path(u))
	})
}

type BoltStore struct {
	db *bolt.DB
}

func Open(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) (err error) {
		_, err = tx.CreateBucketIfNotExists(savesBucket)
		return
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func saveName(saveID uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, saveID)
}

func (s *BoltStore) Get(ctx context.Context, saveID uint64, key string) (value []byte, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(savesBucket).Bucket(saveName(saveID))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// bolt memory is only valid inside the transaction
			value, ok = append([]byte{}, v...), true
		}
		return nil
	})
	return value, ok, closedErr(err)
}

func (s *BoltStore) Put(ctx context.Context, saveID uint64, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(savesBucket).CreateBucketIfNotExists(saveName(saveID))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	return closedErr(err)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func closedErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return store.ErrClosed
	}
	return err
}
