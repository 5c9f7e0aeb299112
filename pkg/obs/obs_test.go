package obs

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestOnceLogsFirstOccurrenceOnly(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	if !Once("obs-test", "engine unavailable: err=%v", "boom") {
		t.Fatalf("first Once call was suppressed")
	}
	if Once("obs-test", "engine unavailable: err=%v", "boom") {
		t.Fatalf("second Once call was written")
	}
	if n := strings.Count(buf.String(), "engine unavailable"); n != 1 {
		t.Fatalf("logged %d times, want 1: %q", n, buf.String())
	}
	if !strings.Contains(buf.String(), "obs_test.go:") {
		t.Fatalf("missing caller location: %q", buf.String())
	}
}

func TestInitSetsBootID(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	id := Init("seedtest")
	if !strings.HasPrefix(id, "seedtest#") || BootID() != id {
		t.Fatalf("boot id = %q (BootID %q)", id, BootID())
	}
}
