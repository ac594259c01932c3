package synthcache

// Hooks are lightweight callbacks for high-signal events. Implementations
// MUST be cheap and non-blocking; the cache calls them on hot paths. Wrap
// with hooks/async for expensive sinks.
type Hooks interface {
	// A weak entry's target had been collected; a fresh synthesis follows.
	EntryCollected(scopeID uint64, key Key)

	// A generator degraded to its reflective fallback.
	// reason ∈ {"access_denied", "direct_disabled"}
	FallbackEngaged(origin, reason string)

	// A base name was taken; chosen carries the suffixed name.
	NameCollision(scopeID uint64, base, chosen string)

	// A scope became unreachable and its bucket was dropped.
	// entries is the number of cache entries released with it.
	ScopeDropped(scopeID uint64, entries int)

	// Writing a generated artifact to the dump sink failed.
	DumpFailed(unitName string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) EntryCollected(uint64, Key)           {}
func (NopHooks) FallbackEngaged(string, string)       {}
func (NopHooks) NameCollision(uint64, string, string) {}
func (NopHooks) ScopeDropped(uint64, int)             {}
func (NopHooks) DumpFailed(string, error)             {}
