package cache

import (
	"context"
	"encoding/json"
	"log"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
)

// Key is the single per-save key the state is stored under.
const Key = "Data"

// Load reads the persisted state for a save. Missing fields keep their Unset
// values; absent, unreadable or corrupt data yields Unset. It never fails.
func Load(ctx context.Context, s store.Store, saveID uint64) State {
	b, ok, err := s.Get(ctx, saveID, Key)
	if err != nil {
		log.Printf("[cache] load failed, starting unset: save=%d err=%v", saveID, err)
		return Unset()
	}
	if !ok {
		return Unset()
	}
	st := Unset()
	if err := json.Unmarshal(b, &st); err != nil {
		log.Printf("[cache] corrupt state, starting unset: save=%d err=%v", saveID, err)
		return Unset()
	}
	return st
}

func Save(ctx context.Context, s store.Store, saveID uint64, st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.Put(ctx, saveID, Key, b)
}
