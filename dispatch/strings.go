package dispatch

import (
	"fmt"

	"github.com/unkn0wn-root/synthcache/internal/util"
)

// leaf accepts one candidate. confirm re-checks full equality for the
// positions the trie above it never examined; hash-only leaves skip it.
type leaf struct {
	label   string
	action  int
	confirm bool
}

func (l leaf) match(s string) (int, bool) {
	if l.confirm && s != l.label {
		return 0, false
	}
	return l.action, true
}

// lengthNode is a dense jump table over label length.
type lengthNode struct {
	min   int
	table []node
}

func (n *lengthNode) match(s string) (int, bool) {
	idx := len(s) - n.min
	if idx < 0 || idx >= len(n.table) || n.table[idx] == nil {
		return 0, false
	}
	return n.table[idx].match(s)
}

// charNode is a dense jump table over the byte at pos. All labels below a
// length bucket share one length, so pos is always in range for candidates;
// the bounds check only serves foreign inputs reaching the unmatched branch.
type charNode struct {
	pos   int
	min   byte
	table []node
}

func (n *charNode) match(s string) (int, bool) {
	if n.pos >= len(s) {
		return 0, false
	}
	idx := int(s[n.pos]) - int(n.min)
	if idx < 0 || idx >= len(n.table) || n.table[idx] == nil {
		return 0, false
	}
	return n.table[idx].match(s)
}

func buildLengthTrie(cases []Case) node {
	minL, maxL := len(cases[0].Label), len(cases[0].Label)
	for _, c := range cases[1:] {
		if l := len(c.Label); l < minL {
			minL = l
		} else if l > maxL {
			maxL = l
		}
	}
	table := make([]node, maxL-minL+1)
	for _, c := range cases {
		idx := len(c.Label) - minL
		bucket, _ := table[idx].(*trieBucket)
		if bucket == nil {
			bucket = &trieBucket{}
			table[idx] = bucket
		}
		bucket.cases = append(bucket.cases, c)
	}
	for i, n := range table {
		if b, ok := n.(*trieBucket); ok {
			table[i] = buildCharSplit(b.cases, 0)
		}
	}
	return &lengthNode{min: minL, table: table}
}

// trieBucket is a construction-time placeholder, replaced before use.
type trieBucket struct{ cases []Case }

func (*trieBucket) match(string) (int, bool) { return 0, false }

func buildCharSplit(cases []Case, idx int) node {
	if len(cases) == 1 {
		// Singleton buckets skip further partitioning; the leaf confirms
		// the positions never examined on the way down.
		return leaf{label: cases[0].Label, action: cases[0].Action, confirm: true}
	}
	groups := make(map[byte][]Case)
	minB, maxB := cases[0].Label[idx], cases[0].Label[idx]
	for _, c := range cases {
		b := c.Label[idx]
		groups[b] = append(groups[b], c)
		if b < minB {
			minB = b
		} else if b > maxB {
			maxB = b
		}
	}
	table := make([]node, int(maxB)-int(minB)+1)
	for b, sub := range groups {
		table[int(b)-int(minB)] = buildCharSplit(sub, idx+1)
	}
	return &charNode{pos: idx, min: minB, table: table}
}

// hashCase is one candidate within a hash bucket.
type hashCase struct {
	label  string
	hash   uint64
	action int
}

// hashNode buckets by hash value, then either confirms by sequential
// short-circuit equality (HashBucket) or by full-hash comparison (HashOnly).
type hashNode struct {
	seed    uint64
	buckets [][]hashCase
	confirm bool
}

func (n *hashNode) match(s string) (int, bool) {
	h := util.Hash64Seeded(n.seed, s)
	for _, c := range n.buckets[h%uint64(len(n.buckets))] {
		if n.confirm {
			if c.label == s {
				return c.action, true
			}
		} else if c.hash == h {
			return c.action, true
		}
	}
	return 0, false
}

func buildHashed(cases []Case, opts Options, confirm bool) *hashNode {
	nb := 1
	if !opts.StressHash {
		for nb < len(cases) {
			nb <<= 1
		}
	}
	n := &hashNode{seed: opts.Seed, buckets: make([][]hashCase, nb), confirm: confirm}
	for _, c := range cases {
		h := util.Hash64Seeded(opts.Seed, c.Label)
		i := h % uint64(nb)
		n.buckets[i] = append(n.buckets[i], hashCase{label: c.Label, hash: h, action: c.Action})
	}
	return n
}

func buildHashOnly(cases []Case, opts Options) (node, error) {
	byHash := make(map[uint64]string, len(cases))
	for _, c := range cases {
		h := util.Hash64Seeded(opts.Seed, c.Label)
		if prev, dup := byHash[h]; dup {
			return nil, fmt.Errorf("dispatch: hash collision between %q and %q under hash-only", prev, c.Label)
		}
		byHash[h] = c.Label
	}
	return buildHashed(cases, opts, false), nil
}
