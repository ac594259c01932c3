// Package asynchook decouples hook delivery from the synthesis path.
// Events are queued to a bounded channel and delivered by workers; a
// full queue drops the event rather than blocking a lookup.
//
// usage:
//
//	raw := loghooks.New(slog.Default(), loghooks.Options{CollectEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := synthcache.New[Unit](synthcache.Options[Unit]{
//	    Origin: "accessor",
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/synthcache"
)

type Hooks struct {
	inner synthcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ synthcache.Hooks = (*Hooks)(nil)

func New(inner synthcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) EntryCollected(id uint64, k synthcache.Key) {
	h.try(func() { h.inner.EntryCollected(id, k) })
}
func (h *Hooks) FallbackEngaged(o, r string) { h.try(func() { h.inner.FallbackEngaged(o, r) }) }
func (h *Hooks) NameCollision(id uint64, b, c string) {
	h.try(func() { h.inner.NameCollision(id, b, c) })
}
func (h *Hooks) ScopeDropped(id uint64, n int) { h.try(func() { h.inner.ScopeDropped(id, n) }) }
func (h *Hooks) DumpFailed(u string, err error) {
	h.try(func() { h.inner.DumpFailed(u, err) })
}
