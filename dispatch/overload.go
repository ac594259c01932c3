package dispatch

// Candidate is one overload: a member name and its ordered parameter
// type-name list.
type Candidate struct {
	Name   string
	Params []string
	Action int
}

// OverloadProgram resolves (name, argument type names) to a candidate action.
type OverloadProgram struct {
	names  *Program
	groups []onode
	size   int
}

func (p *OverloadProgram) Size() int { return p.size }

// Resolve runs the compiled resolution code. ok=false selects the default
// branch: unknown name, unknown arity, no type match, or an ambiguous
// candidate set that cannot be discriminated.
func (p *OverloadProgram) Resolve(name string, argTypes []string) (int, bool) {
	gi, ok := p.names.Match(name)
	if !ok {
		return 0, false
	}
	return p.groups[gi].resolve(argTypes)
}

// ResolveLinear is the reference semantics: scan all candidates for an exact
// (name, parameter type list) match.
func ResolveLinear(cands []Candidate, name string, argTypes []string) (int, bool) {
	for _, c := range cands {
		if c.Name != name || len(c.Params) != len(argTypes) {
			continue
		}
		match := true
		for i, p := range c.Params {
			if p != argTypes[i] {
				match = false
				break
			}
		}
		if match {
			return c.Action, true
		}
	}
	return 0, false
}

// Describe returns a plain data description for debug dumps.
func (p *OverloadProgram) Describe() map[string]any {
	return map[string]any{
		"kind":       "overload",
		"candidates": p.size,
		"names":      p.names.Describe(),
	}
}

// CompileOverloads compiles candidates into branch code: name bucket via
// string dispatch, arity jump table within a name, then greedy selection of
// the most discriminating parameter position. Candidates with identical
// (name, arity, parameter types) are not disambiguated; such sets resolve to
// the default branch at run time.
func CompileOverloads(cands []Candidate, opts Options) (*OverloadProgram, error) {
	p := &OverloadProgram{size: len(cands)}

	byName := make(map[string][]Candidate)
	var nameOrder []string
	for _, c := range cands {
		if _, seen := byName[c.Name]; !seen {
			nameOrder = append(nameOrder, c.Name)
		}
		byName[c.Name] = append(byName[c.Name], c)
	}

	nameCases := make([]Case, 0, len(nameOrder))
	for _, name := range nameOrder {
		g, err := buildArity(byName[name], opts)
		if err != nil {
			return nil, err
		}
		nameCases = append(nameCases, Case{Label: name, Action: len(p.groups)})
		p.groups = append(p.groups, g)
	}

	names, err := CompileStrings(nameCases, HashBucket, opts)
	if err != nil {
		return nil, err
	}
	p.names = names
	return p, nil
}

type onode interface {
	resolve(args []string) (int, bool)
}

type odefault struct{}

func (odefault) resolve([]string) (int, bool) { return 0, false }

// oleaf accepts one candidate after verifying every parameter position the
// discrimination above it never examined. The verification guards
// covariant/contravariant mismatches sharing a prefix of checked positions.
type oleaf struct {
	c        Candidate
	residual []int
}

func (l oleaf) resolve(args []string) (int, bool) {
	for _, pos := range l.residual {
		if args[pos] != l.c.Params[pos] {
			return 0, false
		}
	}
	return l.c.Action, true
}

// arityNode is a dense jump table over parameter count.
type arityNode struct {
	min   int
	table []onode
}

func (n *arityNode) resolve(args []string) (int, bool) {
	idx := len(args) - n.min
	if idx < 0 || idx >= len(n.table) || n.table[idx] == nil {
		return 0, false
	}
	return n.table[idx].resolve(args)
}

// paramSwitch dispatches on the type name at one parameter position via
// compiled string dispatch.
type paramSwitch struct {
	pos      int
	types    *Program
	children []onode
}

func (n *paramSwitch) resolve(args []string) (int, bool) {
	ci, ok := n.types.Match(args[n.pos])
	if !ok {
		return 0, false
	}
	return n.children[ci].resolve(args)
}

func buildArity(cands []Candidate, opts Options) (onode, error) {
	minA, maxA := len(cands[0].Params), len(cands[0].Params)
	for _, c := range cands[1:] {
		if a := len(c.Params); a < minA {
			minA = a
		} else if a > maxA {
			maxA = a
		}
	}
	byArity := make(map[int][]Candidate)
	for _, c := range cands {
		byArity[len(c.Params)] = append(byArity[len(c.Params)], c)
	}
	table := make([]onode, maxA-minA+1)
	for arity, sub := range byArity {
		n, err := discriminate(sub, make([]bool, arity), opts)
		if err != nil {
			return nil, err
		}
		table[arity-minA] = n
	}
	return &arityNode{min: minA, table: table}, nil
}

// discriminate greedily picks the parameter position producing the most
// distinct type-name buckets. The count is recomputed fresh at each
// recursion, never cached across sibling calls.
func discriminate(cands []Candidate, checked []bool, opts Options) (onode, error) {
	if len(cands) == 1 {
		var residual []int
		for pos, done := range checked {
			if !done {
				residual = append(residual, pos)
			}
		}
		return oleaf{c: cands[0], residual: residual}, nil
	}

	bestPos, bestCount := -1, 1
	for pos := range checked {
		if checked[pos] {
			continue
		}
		distinct := make(map[string]struct{}, len(cands))
		for _, c := range cands {
			distinct[c.Params[pos]] = struct{}{}
		}
		if len(distinct) > bestCount {
			bestPos, bestCount = pos, len(distinct)
		}
	}
	if bestPos < 0 {
		// No position separates the candidates: identical parameter lists.
		// Explicitly left unresolved; runs into the default branch.
		return odefault{}, nil
	}

	byType := make(map[string][]Candidate)
	var typeOrder []string
	for _, c := range cands {
		t := c.Params[bestPos]
		if _, seen := byType[t]; !seen {
			typeOrder = append(typeOrder, t)
		}
		byType[t] = append(byType[t], c)
	}

	sw := &paramSwitch{pos: bestPos}
	typeCases := make([]Case, 0, len(typeOrder))
	for _, t := range typeOrder {
		sub := byType[t]
		subChecked := make([]bool, len(checked))
		copy(subChecked, checked)
		subChecked[bestPos] = true
		child, err := discriminate(sub, subChecked, opts)
		if err != nil {
			return nil, err
		}
		typeCases = append(typeCases, Case{Label: t, Action: len(sw.children)})
		sw.children = append(sw.children, child)
	}
	types, err := CompileStrings(typeCases, HashBucket, opts)
	if err != nil {
		return nil, err
	}
	sw.types = types
	return sw, nil
}
