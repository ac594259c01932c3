package keyobject

import (
	"fmt"
	"strings"
	"testing"

	"github.com/unkn0wn-root/synthcache"
)

func newGenerator(t *testing.T, optsOpt func(*Options)) *Generator {
	t.Helper()
	opts := Options{}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	g, err := NewGenerator(opts)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func produce(t *testing.T, g *Generator, scope *synthcache.Scope, params []ParamShape) *Class {
	t.Helper()
	c, err := g.Produce(scope, params)
	if err != nil {
		t.Fatalf("Produce(%v): %v", params, err)
	}
	return c
}

func mustKey(t *testing.T, c *Class, values ...any) *Key {
	t.Helper()
	k, err := c.New(values...)
	if err != nil {
		t.Fatalf("New(%v): %v", values, err)
	}
	return k
}

var strIntShape = []ParamShape{{TypeName: "string"}, {TypeName: "int"}}

// ==============================
// Class synthesis
// ==============================

// TestProduceClass covers shape caching and the load-time hash constants.
func TestProduceClass(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")

	c := produce(t, g, scope, strIntShape)
	if c.Arity() != 2 {
		t.Fatalf("Arity = %d", c.Arity())
	}
	if c.Mult()%2 != 1 {
		t.Fatalf("multiplier %d is even", c.Mult())
	}
	if c.Seed() == 0 {
		t.Fatalf("seed is zero outside stress mode")
	}

	// Same shape -> same cached class; the unit is installed under its name.
	if again := produce(t, g, scope, strIntShape); again != c {
		t.Fatalf("equal shapes produced distinct classes")
	}
	if _, ok := scope.Lookup(c.Name()); !ok {
		t.Fatalf("unit %q not installed", c.Name())
	}

	// Distinct shapes get distinct constants.
	d := produce(t, g, scope, []ParamShape{{TypeName: "string"}})
	if d.Seed() == c.Seed() && d.Mult() == c.Mult() {
		t.Fatalf("distinct shapes share hash constants")
	}

	// Customizer changes are shape changes.
	e := produce(t, g, scope, []ParamShape{{TypeName: "string", Custom: Display}, {TypeName: "int"}})
	if e == c {
		t.Fatalf("customizer variant shares the class")
	}
}

// TestStressConstants verifies the degenerate constants under stress mode.
func TestStressConstants(t *testing.T) {
	g := newGenerator(t, func(o *Options) { o.StressHash = true })
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, strIntShape)
	if c.Seed() != 0 || c.Mult() != 1 {
		t.Fatalf("stress constants = (%d,%d), want (0,1)", c.Seed(), c.Mult())
	}

	// Equality still discriminates when hashes collapse.
	a := mustKey(t, c, "user", 1)
	b := mustKey(t, c, "user", 2)
	if a.Equal(b) {
		t.Fatalf("distinct keys equal under stress constants")
	}
	if !a.Equal(mustKey(t, c, "user", 1)) {
		t.Fatalf("equal keys unequal under stress constants")
	}
}

// ==============================
// Key semantics
// ==============================

// TestKeyEquality covers structural equality, hashing, and class separation.
func TestKeyEquality(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, strIntShape)

	a := mustKey(t, c, "user", 42)
	b := mustKey(t, c, "user", 42)
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatalf("structurally equal keys unequal")
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("equal keys hash differently: %d vs %d", a.Hash(), b.Hash())
	}
	if a.Equal(mustKey(t, c, "user", 43)) {
		t.Fatalf("distinct values equal")
	}
	if a.Equal(mustKey(t, c, "admin", 42)) {
		t.Fatalf("distinct values equal")
	}
	if a.Equal(nil) {
		t.Fatalf("Equal(nil) = true")
	}

	// Same parameter list under a different class never compares equal.
	scope2 := synthcache.NewScope("other")
	c2 := produce(t, g, scope2, strIntShape)
	if a.Equal(mustKey(t, c2, "user", 42)) {
		t.Fatalf("keys of distinct classes equal")
	}
}

// TestKeyString pins the display form and its delimiter.
func TestKeyString(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, strIntShape)

	k := mustKey(t, c, "user", 42)
	if got := k.String(); got != "user"+Delimiter+"42" {
		t.Fatalf("String = %q", got)
	}

	empty := produce(t, g, scope, nil)
	if got := mustKey(t, empty).String(); got != "" {
		t.Fatalf("empty key String = %q", got)
	}
}

// TestKeyValuesStoredOnInstance verifies values round-trip through the unit's
// constructor-stored fields.
func TestKeyValuesStoredOnInstance(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, strIntShape)

	k := mustKey(t, c, "user", 42)
	if v, err := k.Instance().Field("p0"); err != nil || v != "user" {
		t.Fatalf("p0 = %v, %v", v, err)
	}
	if v, err := k.Instance().Field("p1"); err != nil || v != 42 {
		t.Fatalf("p1 = %v, %v", v, err)
	}
}

// ==============================
// Customizers
// ==============================

// TestIdentityCustomizer compares reference parameters by pointer identity.
func TestIdentityCustomizer(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, []ParamShape{{Custom: Identity}})

	p1 := &struct{ n int }{1}
	p2 := &struct{ n int }{1}

	a := mustKey(t, c, p1)
	b := mustKey(t, c, p1)
	d := mustKey(t, c, p2)
	if !a.Equal(b) {
		t.Fatalf("same pointer unequal under identity")
	}
	if a.Equal(d) {
		t.Fatalf("distinct pointers equal under identity")
	}
	if a.Hash() == d.Hash() {
		t.Fatalf("distinct pointers share an identity hash")
	}
}

// TestDisplayCustomizer compares display forms regardless of dynamic type.
func TestDisplayCustomizer(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, []ParamShape{{Custom: Display}})

	a := mustKey(t, c, 42)
	b := mustKey(t, c, int64(42))
	if !a.Equal(b) {
		t.Fatalf("same display forms unequal under display")
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("same display forms hash differently")
	}
	if a.Equal(mustKey(t, c, 43)) {
		t.Fatalf("distinct display forms equal")
	}

	// Default semantics distinguish the same pair.
	cd := produce(t, g, scope, []ParamShape{{Custom: Default}})
	if mustKey(t, cd, 42).Equal(mustKey(t, cd, int64(42))) {
		t.Fatalf("distinct dynamic types equal under default")
	}
}

// ==============================
// Validation
// ==============================

// TestNewRejects covers arity and type-name enforcement.
func TestNewRejects(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")
	c := produce(t, g, scope, strIntShape)

	if _, err := c.New("user"); err == nil || !strings.Contains(err.Error(), "takes 2") {
		t.Fatalf("arity mismatch: %v", err)
	}
	if _, err := c.New("user", "42"); err == nil {
		t.Fatalf("type mismatch accepted")
	}
	if _, err := c.New(7, 42); err == nil {
		t.Fatalf("type mismatch accepted")
	}
}

// TestManyShapes synthesizes a spread of shapes and checks hash spread plus
// per-shape determinism.
func TestManyShapes(t *testing.T) {
	g := newGenerator(t, nil)
	scope := synthcache.NewScope("req")

	seeds := make(map[uint64]string)
	for i := 0; i < 20; i++ {
		params := make([]ParamShape, i%4+1)
		for j := range params {
			params[j] = ParamShape{TypeName: []string{"int", "string", "float64"}[(i+j)%3]}
		}
		c := produce(t, g, scope, params)
		sig := fmt.Sprint(params)
		if prev, dup := seeds[c.Seed()]; dup && prev != sig {
			t.Fatalf("shapes %s and %s share seed %d", prev, sig, c.Seed())
		}
		seeds[c.Seed()] = sig
	}
}
