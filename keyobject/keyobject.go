// Package keyobject synthesizes value units with structural equality over an
// ordered parameter list: a hash function whose seed and multiplier are
// derived deterministically from the parameter shape, equality per parameter,
// and a display form joining parameter values with a fixed delimiter.
// Per-parameter behavior is customizable via a small closed set of hooks.
package keyobject

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/synthcache"
	"github.com/unkn0wn-root/synthcache/emit"
	"github.com/unkn0wn-root/synthcache/internal/util"
)

// Customizer selects per-parameter hash/equality behavior. The set is closed;
// shapes resolve their customizers once, at synthesis.
type Customizer uint8

const (
	// Default compares parameter values structurally.
	Default Customizer = iota
	// Identity compares reference shapes by pointer identity.
	Identity
	// Display compares display forms, insensitive to reference identity.
	Display
)

var customizerNames = [...]string{
	Default:  "default",
	Identity: "identity",
	Display:  "display",
}

func (c Customizer) String() string {
	if int(c) < len(customizerNames) {
		return customizerNames[c]
	}
	return fmt.Sprintf("customizer(%d)", uint8(c))
}

// ParamShape describes one key parameter. TypeName, when set, is enforced
// against constructed values.
type ParamShape struct {
	TypeName string
	Custom   Customizer
}

// Delimiter joins parameter display forms in Key.String. Fixed by contract.
const Delimiter = ":"

const origin = "keyobject"

// Options tune a Generator.
type Options struct {
	// Backend hosts synthesized units. Nil means a private backend.
	Backend *emit.ClosureBackend
	// StressHash forces degenerate hash constants (seed 0, multiplier 1).
	// Defaults to the SYNTHCACHE_STRESS_HASH toggle.
	StressHash bool

	Ownership synthcache.Ownership
	NameTag   string
	Logger    synthcache.Logger
	Hooks     synthcache.Hooks
	Sink      synthcache.Sink
}

// Generator produces key classes, one synthesis per distinct parameter shape
// per scope.
type Generator struct {
	cache  synthcache.Cache[Class]
	be     *emit.ClosureBackend
	stress bool
}

func NewGenerator(opts Options) (*Generator, error) {
	cache, err := synthcache.New[Class](synthcache.Options[Class]{
		Origin:    origin,
		NameTag:   opts.NameTag,
		Ownership: opts.Ownership,
		Logger:    opts.Logger,
		Hooks:     opts.Hooks,
		Sink:      opts.Sink,
	})
	if err != nil {
		return nil, err
	}
	be := opts.Backend
	if be == nil {
		be = emit.NewClosureBackend()
	}
	return &Generator{
		cache:  cache,
		be:     be,
		stress: opts.StressHash || synthcache.StressHash(),
	}, nil
}

// Produce returns the key class for the ordered parameter list, synthesizing
// it at most once per scope.
func (g *Generator) Produce(scope *synthcache.Scope, params []ParamShape) (*Class, error) {
	key := synthcache.Key{Origin: origin, Shape: signature(params)}
	return g.cache.Obtain(scope, key, func(t *synthcache.Task) (*Class, error) {
		return g.synthesize(t, params)
	})
}

func signature(params []ParamShape) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.TypeName + "/" + p.Custom.String()
	}
	return strconv.Itoa(len(params)) + ";" + strings.Join(parts, ",")
}

// Class is one synthesized key shape: the loaded unit plus the hash constants
// its static hook computed at load.
type Class struct {
	name   string
	params []ParamShape
	seed   uint64
	mult   uint64
	unit   *emit.Unit
}

func (c *Class) Name() string     { return c.name }
func (c *Class) Arity() int       { return len(c.params) }
func (c *Class) Seed() uint64     { return c.seed }
func (c *Class) Mult() uint64     { return c.mult }
func (c *Class) Unit() *emit.Unit { return c.unit }

func (g *Generator) synthesize(t *synthcache.Task, params []ParamShape) (*Class, error) {
	sig := signature(params)

	// Distinct shapes get distinct constants for better bucket spread; the
	// stress toggle collapses them to exercise collision handling.
	seed := util.Hash64("seed\x1f" + sig)
	mult := util.Hash64("mult\x1f"+sig) | 1
	if g.stress {
		seed, mult = 0, 1
	}

	em, err := emit.NewUnit(g.be, t.Name(), "", []string{"keyobject"}, origin)
	if err != nil {
		return nil, err
	}

	i64 := emit.Shape{Kind: emit.KindInt64, TypeName: "uint64"}
	if err := em.DeclareField("seed", i64, emit.FlagStatic, nil); err != nil {
		return nil, err
	}
	if err := em.DeclareField("mult", i64, emit.FlagStatic, nil); err != nil {
		return nil, err
	}

	ctorParams := make([]emit.Shape, len(params))
	for i, p := range params {
		shape := paramShape(p)
		ctorParams[i] = shape
		if err := em.DeclareField(fieldName(i), shape, 0, nil); err != nil {
			return nil, err
		}
	}

	// The hash constants are once-at-load state: contributed through the
	// static hook, which the real initializer invokes exactly once.
	hk, err := em.Hook()
	if err != nil {
		return nil, err
	}
	hk.Const(seed)
	hk.StoreField("seed")
	hk.Const(mult)
	hk.StoreField("mult")

	ctor, err := em.Method(emit.Signature{Name: emit.CtorName, Params: ctorParams}, 0)
	if err != nil {
		return nil, err
	}
	for i := range params {
		ctor.LoadArg(i)
		ctor.StoreField(fieldName(i))
	}
	ctor.Ret()
	if err := ctor.End(); err != nil {
		return nil, err
	}

	art, err := em.Finish()
	if err != nil {
		return nil, err
	}
	unit, err := emit.Load(art)
	if err != nil {
		return nil, err
	}
	if err := t.Install(unit); err != nil {
		return nil, err
	}
	t.Dump("unit", art.Describe())

	loadedSeed, _ := unit.Static("seed")
	loadedMult, _ := unit.Static("mult")
	return &Class{
		name:   t.Name(),
		params: append([]ParamShape(nil), params...),
		seed:   loadedSeed.(uint64),
		mult:   loadedMult.(uint64),
		unit:   unit,
	}, nil
}

func fieldName(i int) string { return "p" + strconv.Itoa(i) }

func paramShape(p ParamShape) emit.Shape {
	switch p.TypeName {
	case "bool":
		return emit.Shape{Kind: emit.KindBool}
	case "int":
		return emit.Shape{Kind: emit.KindInt}
	case "int64":
		return emit.Shape{Kind: emit.KindInt64}
	case "float64":
		return emit.Shape{Kind: emit.KindFloat64}
	case "string":
		return emit.Shape{Kind: emit.KindString}
	default:
		return emit.Shape{Kind: emit.KindRef, TypeName: p.TypeName}
	}
}

// New constructs a key instance. Values are stored through the unit's
// constructor; the hash is computed eagerly with the class constants.
func (c *Class) New(values ...any) (*Key, error) {
	if len(values) != len(c.params) {
		return nil, fmt.Errorf("keyobject: %s takes %d parameters, got %d",
			c.name, len(c.params), len(values))
	}
	for i, p := range c.params {
		if p.TypeName != "" && values[i] != nil && emit.TypeNameOf(values[i]) != p.TypeName {
			return nil, fmt.Errorf("keyobject: parameter %d of %s is %s, want %s",
				i, c.name, emit.TypeNameOf(values[i]), p.TypeName)
		}
	}
	inst, err := c.unit.NewInstance(values...)
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(values))
	for i := range values {
		v, err := inst.Field(fieldName(i))
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &Key{class: c, inst: inst, values: vals, hash: c.hashOf(vals)}, nil
}

func (c *Class) hashOf(values []any) uint64 {
	h := c.seed
	for i, v := range values {
		h = h*c.mult + elemHash(v, c.params[i].Custom)
	}
	return h
}

// Key is one constructed key value.
type Key struct {
	class  *Class
	inst   *emit.Instance
	values []any
	hash   uint64
}

func (k *Key) Class() *Class            { return k.class }
func (k *Key) Instance() *emit.Instance { return k.inst }
func (k *Key) Hash() uint64             { return k.hash }

// Equal implements structural equality: same class, then per-parameter
// comparison under the parameter's customizer. The hash comparison is only a
// fast-path reject.
func (k *Key) Equal(o *Key) bool {
	if o == nil || k.class != o.class {
		return false
	}
	if k.hash != o.hash {
		return false
	}
	for i := range k.values {
		if !elemEqual(k.values[i], o.values[i], k.class.params[i].Custom) {
			return false
		}
	}
	return true
}

// String joins parameter display forms with the fixed delimiter.
func (k *Key) String() string {
	parts := make([]string, len(k.values))
	for i, v := range k.values {
		parts[i] = display(v)
	}
	return strings.Join(parts, Delimiter)
}

func display(v any) string { return fmt.Sprintf("%v", v) }

func elemHash(v any, custom Customizer) uint64 {
	switch custom {
	case Identity:
		if p, ok := pointerOf(v); ok {
			return p
		}
		return util.Hash64(display(v))
	case Display:
		return util.Hash64(display(v))
	default:
		switch t := v.(type) {
		case nil:
			return 0
		case bool:
			if t {
				return 1
			}
			return 2
		case int:
			return uint64(t)
		case int64:
			return uint64(t)
		case uint64:
			return t
		case float64:
			return math.Float64bits(t)
		case string:
			return util.Hash64(t)
		default:
			return util.Hash64(display(v))
		}
	}
}

func elemEqual(a, b any, custom Customizer) bool {
	switch custom {
	case Identity:
		pa, oka := pointerOf(a)
		pb, okb := pointerOf(b)
		if oka && okb {
			return pa == pb
		}
		return reflect.DeepEqual(a, b)
	case Display:
		return display(a) == display(b)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func pointerOf(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return uint64(rv.Pointer()), true
	default:
		return 0, false
	}
}
