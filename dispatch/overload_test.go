package dispatch

import (
	"fmt"
	"testing"
)

func compileOverloads(t *testing.T, cands []Candidate, opts Options) *OverloadProgram {
	t.Helper()
	p, err := CompileOverloads(cands, opts)
	if err != nil {
		t.Fatalf("CompileOverloads: %v", err)
	}
	return p
}

type probe struct {
	name string
	args []string
}

// agreeOverloads asserts the compiled resolver and the linear reference agree
// on every probe.
func agreeOverloads(t *testing.T, p *OverloadProgram, cands []Candidate, probes []probe) {
	t.Helper()
	for _, pr := range probes {
		wantA, wantOK := ResolveLinear(cands, pr.name, pr.args)
		gotA, gotOK := p.Resolve(pr.name, pr.args)
		if gotA != wantA || gotOK != wantOK {
			t.Fatalf("Resolve(%q,%v) = (%d,%v), linear = (%d,%v)",
				pr.name, pr.args, gotA, gotOK, wantA, wantOK)
		}
	}
}

// ==============================
// Resolution
// ==============================

// TestResolveTwoOverloads covers the canonical pair: one name, same arity,
// discriminated by a single parameter type.
func TestResolveTwoOverloads(t *testing.T) {
	cands := []Candidate{
		{Name: "set", Params: []string{"int"}, Action: 1},
		{Name: "set", Params: []string{"string"}, Action: 2},
	}
	p := compileOverloads(t, cands, Options{})

	if a, ok := p.Resolve("set", []string{"int"}); !ok || a != 1 {
		t.Fatalf("set(int) = (%d,%v)", a, ok)
	}
	if a, ok := p.Resolve("set", []string{"string"}); !ok || a != 2 {
		t.Fatalf("set(string) = (%d,%v)", a, ok)
	}
	if _, ok := p.Resolve("set", []string{"float64"}); ok {
		t.Fatalf("set(float64) resolved")
	}
	if _, ok := p.Resolve("get", []string{"int"}); ok {
		t.Fatalf("unregistered name resolved")
	}
	if _, ok := p.Resolve("set", nil); ok {
		t.Fatalf("wrong arity resolved")
	}
}

// TestResolveAgreesWithLinear covers mixed names, arities, and shared
// parameter prefixes needing residual verification.
func TestResolveAgreesWithLinear(t *testing.T) {
	cands := []Candidate{
		{Name: "put", Params: []string{"string", "int"}, Action: 1},
		{Name: "put", Params: []string{"string", "string"}, Action: 2},
		{Name: "put", Params: []string{"int", "int"}, Action: 3},
		{Name: "put", Params: []string{"string"}, Action: 4},
		{Name: "put", Params: nil, Action: 5},
		{Name: "del", Params: []string{"string"}, Action: 6},
		// Same second type, distinct first: discrimination may check pos 1
		// first and must still verify pos 0 at the leaf.
		{Name: "mix", Params: []string{"int", "bool"}, Action: 7},
		{Name: "mix", Params: []string{"string", "bool"}, Action: 8},
		{Name: "mix", Params: []string{"string", "int"}, Action: 9},
	}
	probes := []probe{
		{"put", []string{"string", "int"}},
		{"put", []string{"string", "string"}},
		{"put", []string{"int", "int"}},
		{"put", []string{"int", "string"}},
		{"put", []string{"string"}},
		{"put", []string{"int"}},
		{"put", nil},
		{"put", []string{"string", "int", "int"}},
		{"del", []string{"string"}},
		{"del", []string{"int"}},
		{"mix", []string{"int", "bool"}},
		{"mix", []string{"string", "bool"}},
		{"mix", []string{"string", "int"}},
		{"mix", []string{"int", "int"}},
		{"mix", []string{"bool", "bool"}},
		{"nosuch", []string{"int"}},
	}
	for _, stress := range []bool{false, true} {
		p := compileOverloads(t, cands, Options{StressHash: stress})
		agreeOverloads(t, p, cands, probes)
	}
}

// TestAmbiguousCandidates verifies identical (name, arity, params) sets are
// left unresolved rather than arbitrarily picked.
func TestAmbiguousCandidates(t *testing.T) {
	cands := []Candidate{
		{Name: "f", Params: []string{"int"}, Action: 1},
		{Name: "f", Params: []string{"int"}, Action: 2},
	}
	p := compileOverloads(t, cands, Options{})
	if _, ok := p.Resolve("f", []string{"int"}); ok {
		t.Fatalf("ambiguous candidate set resolved")
	}
}

// TestEmptyCandidateSet resolves nothing.
func TestEmptyCandidateSet(t *testing.T) {
	p := compileOverloads(t, nil, Options{})
	if _, ok := p.Resolve("x", nil); ok {
		t.Fatalf("empty program resolved")
	}
	if p.Size() != 0 {
		t.Fatalf("Size = %d", p.Size())
	}
}

// TestOverloadWide stresses a generated candidate matrix against the linear
// reference.
func TestOverloadWide(t *testing.T) {
	types := []string{"int", "int64", "float64", "string", "bool"}
	var cands []Candidate
	action := 1
	for n := 0; n < 6; n++ {
		name := fmt.Sprintf("op%d", n)
		for arity := 0; arity <= 3; arity++ {
			for v := 0; v < 4; v++ {
				params := make([]string, arity)
				for i := range params {
					params[i] = types[(v+i*2)%len(types)]
				}
				cands = append(cands, Candidate{Name: name, Params: params, Action: action})
				action++
			}
		}
	}
	// Prune exact duplicates; the builder treats them as ambiguous.
	seen := make(map[string]bool)
	uniq := cands[:0]
	for _, c := range cands {
		k := c.Name + "|" + fmt.Sprint(c.Params)
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, c)
		}
	}

	var probes []probe
	for _, c := range uniq {
		probes = append(probes, probe{c.Name, c.Params})
		if len(c.Params) > 0 {
			mut := append([]string(nil), c.Params...)
			mut[0] = "uint8"
			probes = append(probes, probe{c.Name, mut})
		}
	}

	p := compileOverloads(t, uniq, Options{})
	agreeOverloads(t, p, uniq, probes)
}
