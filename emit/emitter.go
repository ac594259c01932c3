package emit

import (
	"fmt"

	"github.com/unkn0wn-root/synthcache"
)

// UnitEmitter wraps a Builder with the conveniences generators rely on:
//
//   - DeclareField is idempotent by name. Re-declaring an existing name with
//     the same shape is a no-op; a different shape is a structural error, not
//     a silent overwrite.
//   - Hook lazily creates a static "hook" routine that independent callers
//     populate with once-at-load side effects. Finish wires exactly one call
//     to it from the real static initializer, so no caller has to own the
//     initializer outright.
//
// Cursors returned by StaticInit and Hook are finalized by Finish; cursors
// from Method must be Ret/End'ed by the caller before Finish.
type UnitEmitter struct {
	b    Builder
	name string

	fields map[string]Shape

	clinit Cursor
	hook   Cursor

	finished bool
}

// NewUnit begins a unit under the given (already reserved) name.
func NewUnit(be Backend, name, super string, contracts []string, origin string) (*UnitEmitter, error) {
	b, err := be.BeginUnit(name, super, contracts, origin)
	if err != nil {
		return nil, err
	}
	return &UnitEmitter{
		b:      b,
		name:   name,
		fields: make(map[string]Shape),
	}, nil
}

func (e *UnitEmitter) Name() string { return e.name }

// DeclareField declares a data member, idempotent by name.
func (e *UnitEmitter) DeclareField(name string, shape Shape, flags Flags, constant any) error {
	if have, ok := e.fields[name]; ok {
		if have == shape {
			return nil
		}
		return &synthcache.StructuralError{
			Name:     e.name + "." + name,
			Existing: have.String(),
			Declared: shape.String(),
		}
	}
	if err := e.b.DeclareField(name, shape, flags, constant); err != nil {
		return err
	}
	e.fields[name] = shape
	return nil
}

// Method begins a regular method body.
func (e *UnitEmitter) Method(sig Signature, flags Flags) (Cursor, error) {
	if sig.Name == StaticInitName || sig.Name == HookName {
		return nil, fmt.Errorf("emit: %q is reserved; use StaticInit or Hook", sig.Name)
	}
	return e.b.BeginMethod(sig, flags)
}

// StaticInit returns the lazily-created static initializer cursor.
func (e *UnitEmitter) StaticInit() (Cursor, error) {
	if e.clinit == nil {
		cur, err := e.b.BeginMethod(Signature{Name: StaticInitName}, FlagStatic)
		if err != nil {
			return nil, err
		}
		e.clinit = cur
	}
	return e.clinit, nil
}

// Hook returns the lazily-created static hook cursor. Multiple callers get
// the same cursor and append their contributions in call order.
func (e *UnitEmitter) Hook() (Cursor, error) {
	if e.hook == nil {
		cur, err := e.b.BeginMethod(Signature{Name: HookName}, FlagStatic)
		if err != nil {
			return nil, err
		}
		e.hook = cur
	}
	return e.hook, nil
}

// Finish finalizes hook wiring and delegates to the backend. If a hook was
// created, the static initializer calls it exactly once at load.
func (e *UnitEmitter) Finish() (*Artifact, error) {
	if e.finished {
		return nil, fmt.Errorf("emit: unit %q already finished", e.name)
	}
	e.finished = true

	if e.hook != nil {
		e.hook.Ret()
		if err := e.hook.End(); err != nil {
			return nil, err
		}
		ci, err := e.StaticInit()
		if err != nil {
			return nil, err
		}
		ci.Call(CallStatic, HookName, 0)
		ci.Pop()
	}
	if e.clinit != nil {
		e.clinit.Ret()
		if err := e.clinit.End(); err != nil {
			return nil, err
		}
	}
	return e.b.EndUnit()
}
