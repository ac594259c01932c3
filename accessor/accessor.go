// Package accessor synthesizes specialized member accessors. When direct
// access is structurally permitted (the member is exported), a minimal unit
// is emitted and installed into the requesting scope; otherwise the request
// degrades silently and permanently to a generic descriptor-driven reflective
// accessor. Both paths return identical read results and identical post-write
// state.
package accessor

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/unkn0wn-root/synthcache"
	"github.com/unkn0wn-root/synthcache/emit"
)

// Shape names one target member.
type Shape struct {
	Target   reflect.Type // struct type or pointer to struct
	Field    string
	ReadOnly bool
}

// ReadOnlyError is returned by Set on a read-only member. It is permanent
// for the accessor and names the target type and the attempted value.
type ReadOnlyError struct {
	Type  string
	Field string
	Value any
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("accessor: %s.%s is read-only (attempted write of %v)",
		e.Type, e.Field, e.Value)
}

// Accessor reads and writes one member of a target value.
type Accessor interface {
	Name() string
	// Direct reports whether the accessor runs a synthesized unit rather
	// than the reflective fallback.
	Direct() bool
	Get(target any) (any, error)
	Set(target any, value any) error
}

// Options tune a Generator. All fields are optional.
type Options struct {
	// Backend hosts synthesized units. Nil means a private backend.
	Backend *emit.ClosureBackend
	// DisableDirect forces the reflective fallback for every shape.
	DisableDirect bool

	Ownership synthcache.Ownership
	NameTag   string
	Logger    synthcache.Logger
	Hooks     synthcache.Hooks
	Sink      synthcache.Sink
}

const origin = "accessor"

// Generator produces accessors, synthesizing each distinct shape at most
// once per scope.
type Generator struct {
	cache         synthcache.Cache[bound]
	be            *emit.ClosureBackend
	disableDirect bool
}

func NewGenerator(opts Options) (*Generator, error) {
	cache, err := synthcache.New[bound](synthcache.Options[bound]{
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
	return &Generator{cache: cache, be: be, disableDirect: opts.DisableDirect}, nil
}

// Produce returns the accessor for shape in scope. Equal shapes yield the
// cached instance; synthesis happens at most once per scope.
func (g *Generator) Produce(scope *synthcache.Scope, shape Shape) (Accessor, error) {
	st, err := structTypeOf(shape.Target)
	if err != nil {
		return nil, err
	}
	key := synthcache.Key{Origin: origin, Shape: canonicalShape(st, shape)}
	return g.cache.Obtain(scope, key, func(t *synthcache.Task) (*bound, error) {
		return g.synthesize(t, st, shape)
	})
}

// bound is the produced instance: name, policy bits, and the two call paths.
type bound struct {
	name     string
	typeName string
	field    string
	readOnly bool
	direct   bool
	get      func(any) (any, error)
	set      func(any, any) error
}

func (b *bound) Name() string { return b.name }
func (b *bound) Direct() bool { return b.direct }

func (b *bound) Get(target any) (any, error) { return b.get(target) }

func (b *bound) Set(target any, value any) error {
	if b.readOnly {
		return &ReadOnlyError{Type: b.typeName, Field: b.field, Value: value}
	}
	return b.set(target, value)
}

func (g *Generator) synthesize(t *synthcache.Task, st reflect.Type, shape Shape) (*bound, error) {
	f, ok := st.FieldByName(shape.Field)
	if !ok {
		return nil, fmt.Errorf("accessor: %s has no member %q", st, shape.Field)
	}

	b := &bound{
		name:     t.Name(),
		typeName: st.String(),
		field:    shape.Field,
		readOnly: shape.ReadOnly,
	}

	if f.PkgPath != "" || g.disableDirect {
		reason := "access_denied"
		if f.PkgPath == "" {
			reason = "direct_disabled"
		}
		t.Hooks().FallbackEngaged(origin, reason)
		t.Log().Debug("reflective fallback engaged",
			synthcache.Fields{"type": b.typeName, "member": shape.Field, "reason": reason})
		b.get = fallbackGetter(st, shape.Field)
		b.set = fallbackSetter(st, shape.Field)
		return b, nil
	}

	unit, err := g.emitDirect(t, st, f)
	if err != nil {
		return nil, err
	}
	b.direct = true
	b.get = func(target any) (any, error) {
		return unit.Invoke("get", nil, target)
	}
	b.set = func(target, value any) error {
		_, err := unit.Invoke("set", nil, target, value)
		return err
	}
	return b, nil
}

// emitDirect builds the minimal direct-access unit: two static methods that
// delegate to thunks resolved once, at synthesis time, from the member's
// index path.
func (g *Generator) emitDirect(t *synthcache.Task, st reflect.Type, f reflect.StructField) (*emit.Unit, error) {
	// Thunk names carry the scope to stay unique across scopes that reuse
	// a base name.
	getKey := fmt.Sprintf("%s@%d$get", t.Name(), t.Scope().ID())
	setKey := fmt.Sprintf("%s@%d$set", t.Name(), t.Scope().ID())
	if err := g.be.RegisterFunc(getKey, directGetter(st, f)); err != nil {
		return nil, err
	}
	if err := g.be.RegisterFunc(setKey, directSetter(st, f)); err != nil {
		return nil, err
	}

	em, err := emit.NewUnit(g.be, t.Name(), "", []string{"accessor"}, origin)
	if err != nil {
		return nil, err
	}
	if err := em.DeclareField("member", emit.Shape{Kind: emit.KindString}, emit.FlagStatic, f.Name); err != nil {
		return nil, err
	}

	refShape := emit.Shape{Kind: emit.KindRef, TypeName: st.String()}
	get, err := em.Method(emit.Signature{
		Name:   "get",
		Params: []emit.Shape{refShape},
		Result: emit.Shape{Kind: emit.KindRef},
	}, emit.FlagStatic)
	if err != nil {
		return nil, err
	}
	get.LoadArg(0)
	get.Call(emit.CallStatic, getKey, 1)
	get.Ret()
	if err := get.End(); err != nil {
		return nil, err
	}

	set, err := em.Method(emit.Signature{
		Name:   "set",
		Params: []emit.Shape{refShape, {Kind: emit.KindRef}},
	}, emit.FlagStatic)
	if err != nil {
		return nil, err
	}
	set.LoadArg(0)
	set.LoadArg(1)
	set.Call(emit.CallStatic, setKey, 2)
	set.Ret()
	if err := set.End(); err != nil {
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
	return unit, nil
}

func structTypeOf(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("accessor: target type is required")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("accessor: target %s is not a struct", t)
	}
	return t, nil
}

func canonicalShape(st reflect.Type, shape Shape) string {
	mode := "rw"
	if shape.ReadOnly {
		mode = "ro"
	}
	return st.String() + "." + shape.Field + "|" + mode
}

// directGetter resolves the member's index path once; per call it only
// validates and walks the target.
func directGetter(st reflect.Type, f reflect.StructField) emit.NativeFunc {
	index := f.Index
	return func(args []any) (any, error) {
		v, err := derefTarget(args[0], st)
		if err != nil {
			return nil, err
		}
		return v.FieldByIndex(index).Interface(), nil
	}
}

func directSetter(st reflect.Type, f reflect.StructField) emit.NativeFunc {
	index := f.Index
	ft := f.Type
	return func(args []any) (any, error) {
		target, value := args[0], args[1]
		pv := reflect.ValueOf(target)
		if pv.Kind() != reflect.Pointer || pv.IsNil() {
			return nil, fmt.Errorf("accessor: write target must be a non-nil *%s", st)
		}
		ev := pv.Elem()
		if ev.Type() != st {
			return nil, fmt.Errorf("accessor: target is %s, want %s", ev.Type(), st)
		}
		fv := ev.FieldByIndex(index)
		return nil, assign(fv, ft, value)
	}
}

// fallbackGetter is the generic descriptor-driven path: member resolution
// happens on every call, and unexported members are reached through their
// address.
func fallbackGetter(st reflect.Type, field string) func(any) (any, error) {
	return func(target any) (any, error) {
		v, err := derefTarget(target, st)
		if err != nil {
			return nil, err
		}
		sf, ok := v.Type().FieldByName(field)
		if !ok {
			return nil, fmt.Errorf("accessor: %s has no member %q", v.Type(), field)
		}
		fv := v.FieldByIndex(sf.Index)
		if sf.PkgPath != "" {
			if !fv.CanAddr() {
				return nil, fmt.Errorf("accessor: unexported member %s.%s needs an addressable target", st, field)
			}
			fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}
		return fv.Interface(), nil
	}
}

func fallbackSetter(st reflect.Type, field string) func(any, any) error {
	return func(target, value any) error {
		pv := reflect.ValueOf(target)
		if pv.Kind() != reflect.Pointer || pv.IsNil() {
			return fmt.Errorf("accessor: write target must be a non-nil *%s", st)
		}
		ev := pv.Elem()
		if ev.Type() != st {
			return fmt.Errorf("accessor: target is %s, want %s", ev.Type(), st)
		}
		sf, ok := ev.Type().FieldByName(field)
		if !ok {
			return fmt.Errorf("accessor: %s has no member %q", ev.Type(), field)
		}
		fv := ev.FieldByIndex(sf.Index)
		if sf.PkgPath != "" {
			fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}
		return assign(fv, sf.Type, value)
	}
}

func derefTarget(target any, st reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, fmt.Errorf("accessor: nil target, want %s", st)
	}
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("accessor: nil target, want %s", st)
		}
		v = v.Elem()
	}
	if v.Type() != st {
		return reflect.Value{}, fmt.Errorf("accessor: target is %s, want %s", v.Type(), st)
	}
	return v, nil
}

func assign(fv reflect.Value, ft reflect.Type, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(ft))
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(ft) {
		return fmt.Errorf("accessor: cannot assign %s to member of type %s", rv.Type(), ft)
	}
	fv.Set(rv)
	return nil
}
