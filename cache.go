package synthcache

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// entry is one cached synthesis result. Weak entries may report their target
// gone, which triggers a fresh synthesis.
type entry[V any] interface {
	value() (*V, bool)
}

type strongEntry[V any] struct{ v *V }

func (e strongEntry[V]) value() (*V, bool) { return e.v, true }

type weakEntry[V any] struct{ p weak.Pointer[V] }

func (e weakEntry[V]) value() (*V, bool) {
	v := e.p.Value()
	return v, v != nil
}

// bucket holds one scope's entries. It is only touched under that scope's
// lock, so no extra synchronization is needed here.
type bucket[V any] struct {
	entries map[Key]entry[V]
}

type registry[V any] map[uint64]*bucket[V]

type cache[V any] struct {
	origin string
	tag    string
	own    Ownership
	log    Logger
	hooks  Hooks
	sink   Sink

	// scope id -> bucket. The snapshot is replaced wholesale on first use of
	// a scope (rare), so readers never block on writers.
	reg   atomic.Pointer[registry[V]]
	regMu sync.Mutex

	hits       atomic.Uint64
	misses     atomic.Uint64
	collected  atomic.Uint64
	collisions atomic.Uint64
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Origin == "" {
		return nil, fmt.Errorf("synthcache: origin is required")
	}
	c := &cache[V]{
		origin: opts.Origin,
		own:    opts.Ownership,
		sink:   opts.Sink,
	}
	c.tag = coalesce[string](opts.NameTag, DefaultNameTag())
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return c, nil
}

func (c *cache[V]) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Collected:  c.collected.Load(),
		Collisions: c.collisions.Load(),
	}
}

// bucket returns the scope's bucket, materializing it under the coarse
// registry lock only on first use of that scope.
func (c *cache[V]) bucket(s *Scope) *bucket[V] {
	if r := c.reg.Load(); r != nil {
		if b, ok := (*r)[s.id]; ok {
			return b
		}
	}
	c.regMu.Lock()
	defer c.regMu.Unlock()
	cur := c.reg.Load()
	if cur != nil {
		if b, ok := (*cur)[s.id]; ok {
			return b
		}
	}
	next := make(registry[V], 1)
	if cur != nil {
		maps.Copy(next, *cur)
	}
	b := &bucket[V]{entries: make(map[Key]entry[V])}
	next[s.id] = b
	c.reg.Store(&next)
	// Tie bucket lifetime to the scope handle: when the scope becomes
	// unreachable the bucket is dropped, taking its entries with it.
	runtime.AddCleanup(s, func(id uint64) { c.dropScope(id) }, s.id)
	return b
}

func (c *cache[V]) dropScope(id uint64) {
	c.regMu.Lock()
	cur := c.reg.Load()
	if cur == nil {
		c.regMu.Unlock()
		return
	}
	b, ok := (*cur)[id]
	if !ok {
		c.regMu.Unlock()
		return
	}
	next := make(registry[V], len(*cur)-1)
	maps.Copy(next, *cur)
	delete(next, id)
	c.reg.Store(&next)
	c.regMu.Unlock()

	c.hooks.ScopeDropped(id, len(b.entries))
	c.log.Debug("scope dropped", Fields{"scope": id, "entries": len(b.entries)})
}

func (c *cache[V]) Obtain(scope *Scope, key Key, synth SynthFunc[V]) (*V, error) {
	if scope == nil {
		return nil, errors.New("synthcache: scope is required")
	}
	if synth == nil {
		return nil, errors.New("synthcache: synth func is required")
	}
	if key.Origin == "" {
		key.Origin = c.origin
	}

	b := c.bucket(scope)

	scope.mu.Lock()
	defer scope.mu.Unlock()

	if !scope.valid {
		return nil, &ScopeExpiredError{ScopeID: scope.id, Label: scope.label, Key: key}
	}

	if e, ok := b.entries[key]; ok {
		if v, alive := e.value(); alive {
			c.hits.Add(1)
			return v, nil
		}
		delete(b.entries, key)
		c.collected.Add(1)
		c.hooks.EntryCollected(scope.id, key)
		c.log.Debug("cached unit collected; re-synthesizing",
			Fields{"origin": key.Origin, "shape": key.Shape})
	}
	c.misses.Add(1)

	// Reserve the name before the body is constructed so differently-shaped
	// requests can never race into one name.
	base := baseName(key, c.tag)
	name, collided := scope.reserveLocked(base)
	if collided {
		c.collisions.Add(1)
		c.hooks.NameCollision(scope.id, base, name)
	}

	t := &Task{scope: scope, key: key, name: name, log: c.log, hooks: c.hooks, sink: c.sink}
	v, err := synth(t)
	if err != nil {
		var se *StructuralError
		var xe *ScopeExpiredError
		if errors.As(err, &se) || errors.As(err, &xe) {
			return nil, err
		}
		return nil, &CodegenError{Key: key, Err: err}
	}
	if v == nil {
		return nil, &CodegenError{Key: key, Err: errors.New("generator returned nil instance")}
	}

	// Publish only after the unit is fully installed; everything above ran
	// under the scope lock, so no reader can observe a half-built entry.
	if c.own == OwnStrong {
		b.entries[key] = strongEntry[V]{v: v}
	} else {
		b.entries[key] = weakEntry[V]{p: weak.Make(v)}
	}
	c.log.Debug("synthesized unit",
		Fields{"origin": key.Origin, "shape": key.Shape, "name": name})
	return v, nil
}
