package store

import (
	"context"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
)

type instrumented struct {
	Store
}

// Instrument records latency and status of every Get and Put.
func Instrument(s Store) Store {
	return instrumented{s}
}

func (s instrumented) Get(ctx context.Context, saveID uint64, key string) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := s.Store.Get(ctx, saveID, key)
	observe("get", start, err)
	return v, ok, err
}

func (s instrumented) Put(ctx context.Context, saveID uint64, key string, value []byte) error {
	start := time.Now()
	err := s.Store.Put(ctx, saveID, key, value)
	observe("put", start, err)
	return err
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOps.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
