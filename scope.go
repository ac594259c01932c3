package synthcache

import (
	"strconv"
	"sync"
	"sync/atomic"
)

var scopeSeq atomic.Uint64

// Scope is an isolation boundary owning synthesized units. A scope bounds the
// maximum lifetime of every unit installed into it: once the scope becomes
// unreachable, all cache entries keyed to it become unreachable too.
//
// Synthesis for a scope is serialized by locking the scope handle itself, so
// duplicate synthesis of one key and interleaved construction of two units
// cannot happen within a scope. Work in one scope never blocks another.
type Scope struct {
	id    uint64
	label string

	mu       sync.Mutex
	valid    bool
	reserved map[string]struct{}
	units    map[string]any
}

// NewScope creates a live scope. The label is informational (logs, dumps).
func NewScope(label string) *Scope {
	return &Scope{
		id:       scopeSeq.Add(1),
		label:    label,
		valid:    true,
		reserved: make(map[string]struct{}),
		units:    make(map[string]any),
	}
}

func (s *Scope) ID() uint64    { return s.id }
func (s *Scope) Label() string { return s.label }

// Invalidate marks the scope expired. In-flight synthesis against it fails
// with *ScopeExpiredError at install time; new Obtain calls fail immediately.
func (s *Scope) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Valid reports whether the scope can still accept synthesis.
func (s *Scope) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Lookup resolves an installed unit by its generated name.
func (s *Scope) Lookup(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[name]
	return u, ok
}

// UnitCount returns the number of installed units.
func (s *Scope) UnitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

// reserveLocked claims a unique name derived from base. The base itself is
// preferred; on collision a numeric suffix is appended, starting at 0. The
// suffix start and increment are part of the external naming contract.
// Caller must hold s.mu.
func (s *Scope) reserveLocked(base string) (name string, collided bool) {
	if _, taken := s.reserved[base]; !taken {
		s.reserved[base] = struct{}{}
		return base, false
	}
	for i := 0; ; i++ {
		cand := base + "_" + strconv.Itoa(i)
		if _, taken := s.reserved[cand]; !taken {
			s.reserved[cand] = struct{}{}
			return cand, true
		}
	}
}

// installLocked binds a unit to its reserved name. Caller must hold s.mu and
// must have checked validity.
func (s *Scope) installLocked(name string, unit any) error {
	if _, exists := s.units[name]; exists {
		return ErrDuplicateName
	}
	// Units that know their own name must agree with the reserved one.
	if named, ok := unit.(interface{ Name() string }); ok && named.Name() != name {
		return ErrDefinitionMismatch
	}
	s.units[name] = unit
	return nil
}
