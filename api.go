package synthcache

// Key identifies one synthesis request: which generator asked (Origin) and the
// canonical shape it asked for. Keys are plain comparable values and double as
// the cache lookup key.
type Key struct {
	Origin string // generator identity, e.g. "accessor", "keyobject"
	Shape  string // canonical shape signature produced by the generator
}

// Ownership controls how the cache holds a synthesized instance.
type Ownership uint8

const (
	// OwnWeak (default) lets the instance be collected once no caller holds
	// it; a later Obtain re-synthesizes under a fresh name.
	OwnWeak Ownership = iota
	// OwnStrong retains the instance for the lifetime of its scope.
	OwnStrong
)

// SynthFunc builds a new instance for a cache miss. It runs with the owning
// scope locked; the Task carries the reserved unit name and the install and
// dump surfaces. The returned pointer must be non-nil on success.
type SynthFunc[V any] func(t *Task) (*V, error)

// Cache is the obtain-or-synthesize front end. V is the instance type a
// generator produces for its shape.
type Cache[V any] interface {
	// Obtain returns the cached instance for (scope, key), synthesizing it
	// via synth at most once per distinct key per scope. Synthesis failures
	// other than *StructuralError and *ScopeExpiredError are wrapped into a
	// *CodegenError carrying the cause.
	Obtain(scope *Scope, key Key, synth SynthFunc[V]) (*V, error)

	// Stats returns cumulative counters for this cache.
	Stats() Stats
}

// Sink receives generated artifacts for debug inspection. See the dump
// subpackage for the file-writing implementation.
type Sink interface {
	DumpUnit(scopeLabel, unitName, origin, kind string, body any) error
}

// Stats are cumulative per-cache counters.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Collected  uint64 // weak entries found dead on lookup
	Collisions uint64 // base-name collisions resolved by suffixing
}

// Options tune a Cache. Only Origin is required.
type Options[V any] struct {
	// Origin is the generator identity embedded in keys and generated names.
	Origin string

	// NameTag is the fixed tag embedded in generated names to distinguish
	// synthesis origins. Empty means DefaultNameTag().
	NameTag string

	// Ownership selects weak (default) or strong retention of instances.
	Ownership Ownership

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
	Sink   Sink   // nil => no artifact dumping
}

// New builds a Cache from opts.
func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
