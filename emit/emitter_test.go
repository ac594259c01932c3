package emit

import (
	"errors"
	"testing"

	"github.com/unkn0wn-root/synthcache"
)

func newEmitter(t *testing.T, be *ClosureBackend, name string) *UnitEmitter {
	t.Helper()
	e, err := NewUnit(be, name, "", nil, "test")
	if err != nil {
		t.Fatalf("NewUnit: %v", err)
	}
	return e
}

// ==============================
// Field declaration
// ==============================

// TestDeclareFieldIdempotent verifies re-declaring an identical shape is a
// no-op while a conflicting shape is a structural error.
func TestDeclareFieldIdempotent(t *testing.T) {
	be := NewClosureBackend()
	e := newEmitter(t, be, "u1")

	sh := Shape{Kind: KindInt}
	if err := e.DeclareField("count", sh, 0, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := e.DeclareField("count", sh, 0, nil); err != nil {
		t.Fatalf("re-declare same shape: %v", err)
	}

	err := e.DeclareField("count", Shape{Kind: KindString}, 0, nil)
	var se *synthcache.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("conflicting re-declare: %v, want StructuralError", err)
	}
	if se.Name != "u1.count" || se.Existing != "int" || se.Declared != "string" {
		t.Fatalf("StructuralError = %+v", se)
	}

	// The conflict must not have altered the declaration.
	art, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(art.fields) != 1 || art.fields[0].Shape != sh {
		t.Fatalf("fields = %+v", art.fields)
	}
}

// ==============================
// Static hook
// ==============================

// TestHookRunsOnceAtLoad verifies hook contributions from independent callers
// execute exactly once when the artifact is loaded, in call order.
func TestHookRunsOnceAtLoad(t *testing.T) {
	be := NewClosureBackend()
	var ran []string
	mustRegister(t, be, "mark:a", func([]any) (any, error) { ran = append(ran, "a"); return nil, nil })
	mustRegister(t, be, "mark:b", func([]any) (any, error) { ran = append(ran, "b"); return nil, nil })

	e := newEmitter(t, be, "hooked")
	if err := e.DeclareField("seed", Shape{Kind: KindInt64}, FlagStatic, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}

	// Two independent contributions to the same hook.
	hk, err := e.Hook()
	if err != nil {
		t.Fatalf("Hook: %v", err)
	}
	hk.Const(int64(7))
	hk.StoreField("seed")
	hk.Call(CallStatic, "mark:a", 0)
	hk.Pop()

	hk2, err := e.Hook()
	if err != nil {
		t.Fatalf("Hook (second): %v", err)
	}
	if hk2 != hk {
		t.Fatalf("second Hook returned a different cursor")
	}
	hk2.Call(CallStatic, "mark:b", 0)
	hk2.Pop()

	art, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(ran) != 0 {
		t.Fatalf("hook ran before load: %v", ran)
	}

	u, err := Load(art)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Fatalf("hook contributions ran %v, want [a b]", ran)
	}
	if seed, ok := u.Static("seed"); !ok || seed != int64(7) {
		t.Fatalf("seed = %v, %v", seed, ok)
	}
}

// TestNoHookNoInit verifies a unit without hook contributions loads without a
// static initializer at all.
func TestNoHookNoInit(t *testing.T) {
	be := NewClosureBackend()
	e := newEmitter(t, be, "plain")
	art, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, ok := art.methods[StaticInitName]; ok {
		t.Fatalf("static initializer emitted without contributions")
	}
	if _, err := Load(art); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

// TestStaticInitThenHook verifies client static-init code and hook wiring
// coexist on one initializer.
func TestStaticInitThenHook(t *testing.T) {
	be := NewClosureBackend()
	e := newEmitter(t, be, "mixed")
	if err := e.DeclareField("a", Shape{Kind: KindInt}, FlagStatic, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := e.DeclareField("b", Shape{Kind: KindInt}, FlagStatic, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}

	ci, err := e.StaticInit()
	if err != nil {
		t.Fatalf("StaticInit: %v", err)
	}
	ci.Const(1)
	ci.StoreField("a")

	hk, err := e.Hook()
	if err != nil {
		t.Fatalf("Hook: %v", err)
	}
	hk.Const(2)
	hk.StoreField("b")

	art, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	u, err := Load(art)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a, _ := u.Static("a"); a != 1 {
		t.Fatalf("a = %v", a)
	}
	if b, _ := u.Static("b"); b != 2 {
		t.Fatalf("b = %v", b)
	}
}

// ==============================
// Guard rails
// ==============================

// TestReservedMethodNames verifies the initializer and hook names cannot be
// taken via Method.
func TestReservedMethodNames(t *testing.T) {
	be := NewClosureBackend()
	e := newEmitter(t, be, "guarded")
	if _, err := e.Method(Signature{Name: StaticInitName}, FlagStatic); err == nil {
		t.Fatalf("Method accepted the static initializer name")
	}
	if _, err := e.Method(Signature{Name: HookName}, FlagStatic); err == nil {
		t.Fatalf("Method accepted the hook name")
	}
}

// TestFinishTwice verifies double finalization is refused.
func TestFinishTwice(t *testing.T) {
	be := NewClosureBackend()
	e := newEmitter(t, be, "once")
	if _, err := e.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := e.Finish(); err == nil {
		t.Fatalf("second Finish succeeded")
	}
}
