// Package dispatch compiles finite-case decision problems (string matching,
// overload resolution) into branch-code programs instead of linear scans.
//
// A compiled Program is the generated code in closure-table form: a tree of
// jump-table nodes with an unmatched-value branch to the default. For every
// strategy, Match selects the same case as an exhaustive scan over the case
// set under the matching equality semantics.
package dispatch

import (
	"fmt"
)

// Case is one (label, terminal-action) pair of a dispatch case set.
type Case struct {
	Label  string
	Action int
}

// Strategy selects how string case sets are compiled.
type Strategy uint8

const (
	// LengthTrie buckets by length, then by the character at increasing
	// index until singleton.
	LengthTrie Strategy = iota
	// HashBucket buckets by hash, then confirms by sequential equality.
	HashBucket
	// HashOnly skips the equality confirmation. Valid only when the caller
	// guarantees no undetected full-hash collision among candidates; a
	// collision detected at compile time is an error.
	HashOnly
)

var strategyNames = [...]string{
	LengthTrie: "length-trie",
	HashBucket: "hash-bucket",
	HashOnly:   "hash-only",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Options tune compilation.
type Options struct {
	// StressHash forces a single hash bucket so every label collides,
	// exercising the collision paths.
	StressHash bool
	// Seed overrides the hash seed for HashBucket/HashOnly. Zero means the
	// fixed default family.
	Seed uint64
}

// Program is one compiled string-dispatch decision tree.
type Program struct {
	strategy Strategy
	size     int
	root     node
}

func (p *Program) Strategy() Strategy { return p.strategy }
func (p *Program) Size() int          { return p.size }

// Match runs the compiled branch code. ok=false selects the default branch.
func (p *Program) Match(s string) (action int, ok bool) {
	return p.root.match(s)
}

// Describe returns a plain data description for debug dumps.
func (p *Program) Describe() map[string]any {
	return map[string]any{
		"strategy": p.strategy.String(),
		"cases":    p.size,
	}
}

// CompileStrings compiles a case set under the given strategy. Duplicate
// labels are rejected: a case set is a mapping, not a priority list.
func CompileStrings(cases []Case, strategy Strategy, opts Options) (*Program, error) {
	seen := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		if _, dup := seen[c.Label]; dup {
			return nil, fmt.Errorf("dispatch: duplicate label %q", c.Label)
		}
		seen[c.Label] = struct{}{}
	}

	p := &Program{strategy: strategy, size: len(cases)}
	if len(cases) == 0 {
		// Only the default branch.
		p.root = defaultNode{}
		return p, nil
	}

	switch strategy {
	case LengthTrie:
		p.root = buildLengthTrie(cases)
	case HashBucket:
		p.root = buildHashed(cases, opts, true)
	case HashOnly:
		root, err := buildHashOnly(cases, opts)
		if err != nil {
			return nil, err
		}
		p.root = root
	default:
		return nil, fmt.Errorf("dispatch: unknown strategy %d", strategy)
	}
	return p, nil
}

// MatchLinear is the reference semantics: an exhaustive scan over the case
// set. Compiled programs must agree with it on every input.
func MatchLinear(cases []Case, s string) (int, bool) {
	for _, c := range cases {
		if c.Label == s {
			return c.Action, true
		}
	}
	return 0, false
}

// node is one level of compiled branch code; (0, false) is the default branch.
type node interface {
	match(s string) (int, bool)
}

type defaultNode struct{}

func (defaultNode) match(string) (int, bool) { return 0, false }
