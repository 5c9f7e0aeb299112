package obs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	bootID  atomic.Value // string
	rootDir string

	onceMu   sync.Mutex
	onceKeys = map[string]struct{}{}
)

// Init tags every later trace line with service#starttime and logs the boot line.
func Init(service string) string {
	cwd, _ := os.Getwd()
	rootDir = cwd

	id := service + "#" + time.Now().Format("20060102_150405.000000")
	bootID.Store(id)
	log.Printf("[boot] id=%s pid=%d root=%s", id, os.Getpid(), rootDir)
	return id
}

func BootID() string {
	id, _ := bootID.Load().(string)
	return id
}

// P logs with the boot id and the caller's file:line.
func P(format string, args ...any) {
	trace(2, format, args...)
}

// Once logs the first time key is seen and drops every repeat for the life
// of the process. It reports whether the line was written.
func Once(key, format string, args ...any) bool {
	onceMu.Lock()
	_, seen := onceKeys[key]
	if !seen {
		onceKeys[key] = struct{}{}
	}
	onceMu.Unlock()

	if seen {
		return false
	}
	trace(2, format, args...)
	return true
}

func trace(skip int, format string, args ...any) {
	_, file, line, ok := runtime.Caller(skip)
	loc := "?:0"
	if ok {
		if rel, err := filepath.Rel(rootDir, file); err == nil && rootDir != "" {
			loc = fmt.Sprintf("%s:%d", rel, line)
		} else {
			loc = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	ts := time.Now().Format("15:04:05.000000")
	log.Printf("[T=%s] %s %s "+format,
		append([]any{BootID(), ts, loc}, args...)...)
}
