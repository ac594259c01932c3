// Package loghooks logs cache events through log/slog.
package loghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/synthcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CollectEvery  uint64
	FallbackEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	collectCtr  atomic.Uint64
	fallbackCtr atomic.Uint64
}

var _ synthcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) EntryCollected(scopeID uint64, key synthcache.Key) {
	if h.l == nil || !sample(h.opts.CollectEvery, &h.collectCtr) {
		return
	}
	h.l.Debug("synthcache.entry_collected",
		"scope_id", scopeID,
		"origin", key.Origin,
		"shape", key.Shape)
}

func (h *Hooks) FallbackEngaged(origin, reason string) {
	if h.l == nil || !sample(h.opts.FallbackEvery, &h.fallbackCtr) {
		return
	}
	h.l.Debug("synthcache.fallback_engaged",
		"origin", origin,
		"reason", reason)
}

func (h *Hooks) NameCollision(scopeID uint64, base, chosen string) {
	if h.l == nil {
		return
	}
	h.l.Info("synthcache.name_collision",
		"scope_id", scopeID,
		"base", base,
		"chosen", chosen)
}

func (h *Hooks) ScopeDropped(scopeID uint64, entries int) {
	if h.l == nil {
		return
	}
	h.l.Debug("synthcache.scope_dropped",
		"scope_id", scopeID,
		"entries", entries)
}

func (h *Hooks) DumpFailed(unitName string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("synthcache.dump_failed",
		"unit", unitName,
		"err", err)
}
