package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	conf, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Algorithm != "xoshiro256" || conf.Storage != "memory://" || conf.Transport != "none" {
		t.Fatalf("unexpected defaults: %+v", conf)
	}
	if conf.RetryBase != 100*time.Millisecond || conf.OutboxSize != 64 {
		t.Fatalf("unexpected retry defaults: %+v", conf)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEEDMIX_ALGORITHM", "pcg")
	t.Setenv("SEEDMIX_UNIQUE_ID", "4242")
	t.Setenv("SEEDMIX_PEER_ID", "-7")
	t.Setenv("SEEDMIX_DAY_LENGTH", "1m")

	conf, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Algorithm != "pcg" || conf.UniqueID != 4242 || conf.PeerID != -7 || conf.DayLength != time.Minute {
		t.Fatalf("environment not applied: %+v", conf)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEEDMIX_UNIQUE_ID", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted a malformed UNIQUE_ID")
	}
}

func TestUsageListsPrefixedKeys(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	for _, key := range []string{"SEEDMIX_STORAGE", "SEEDMIX_KAFKA_BROKERS", "SEEDMIX_HTTP_LISTEN"} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("usage misses %s:\n%s", key, buf.String())
		}
	}
}

func TestHelpRequested(t *testing.T) {
	if !helpRequested([]string{"seedhost", "-h"}) || helpRequested([]string{"seedhost"}) {
		t.Fatalf("helpRequested mismatch")
	}
}
