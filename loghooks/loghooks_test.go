package loghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/synthcache"
)

func newHooks(t *testing.T, opts Options) (*Hooks, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

// TestEventLogging verifies each event lands with its identifying attributes.
func TestEventLogging(t *testing.T) {
	h, buf := newHooks(t, Options{})

	h.EntryCollected(3, synthcache.Key{Origin: "accessor", Shape: "s"})
	h.FallbackEngaged("accessor", "access_denied")
	h.NameCollision(3, "base", "base_0")
	h.ScopeDropped(3, 2)
	h.DumpFailed("acc_sx_0011", errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{
		"synthcache.entry_collected",
		"synthcache.fallback_engaged",
		"reason=access_denied",
		"synthcache.name_collision",
		"chosen=base_0",
		"synthcache.scope_dropped",
		"synthcache.dump_failed",
		"disk full",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

// TestSampling verifies the every-N counters admit only each Nth event.
func TestSampling(t *testing.T) {
	h, buf := newHooks(t, Options{CollectEvery: 5})
	for i := 0; i < 10; i++ {
		h.EntryCollected(1, synthcache.Key{Origin: "o", Shape: "s"})
	}
	if n := strings.Count(buf.String(), "entry_collected"); n != 2 {
		t.Fatalf("sampled %d events, want 2", n)
	}
}

// TestNilLogger verifies a nil logger silently drops everything.
func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.EntryCollected(1, synthcache.Key{})
	h.FallbackEngaged("o", "r")
	h.NameCollision(1, "a", "b")
	h.ScopeDropped(1, 0)
	h.DumpFailed("u", nil)
}
