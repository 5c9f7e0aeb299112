// Package ready tells a supervising script that a process reached a usable
// state by writing one line to a named pipe.
package ready

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"
)

var ErrNoReader = errors.New("ready: no fifo reader before timeout")

const (
	DefaultTimeout = 8 * time.Second
	DefaultPayload = "READY\n"

	pollEvery = 80 * time.Millisecond
)

// Signal writes payload to the FIFO at path once a reader has it open.
// The open is non-blocking so a missing reader never wedges the caller; ENXIO
// is retried until ctx ends or timeout passes. An empty path is a no-op.
func Signal(ctx context.Context, path, payload string, timeout time.Duration) error {
	if path == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if payload == "" {
		payload = DefaultPayload
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollEvery)
	defer tick.Stop()

	for {
		fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			f := os.NewFile(uintptr(fd), path)
			_, werr := f.WriteString(payload)
			cerr := f.Close()
			if werr != nil {
				return fmt.Errorf("ready: write %s: %w", path, werr)
			}
			return cerr
		}
		if !errors.Is(err, syscall.ENXIO) {
			return fmt.Errorf("ready: open %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: path=%s timeout=%s", ErrNoReader, path, timeout)
		case <-tick.C:
		}
	}
}

// Go signals from a goroutine and logs the outcome.
func Go(ctx context.Context, path, payload string) {
	if path == "" {
		return
	}
	go func() {
		if err := Signal(ctx, path, payload, 0); err != nil {
			log.Printf("[ready] signal failed: path=%s err=%v", path, err)
			return
		}
		log.Printf("[ready] signaled: path=%s", path)
	}()
}
