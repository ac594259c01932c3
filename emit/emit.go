// Package emit defines the structured emission interface that turns unit
// descriptions into loadable artifacts, plus a wrapper (UnitEmitter) adding
// idempotent field declaration and static-initialization hook wiring.
//
// The default backend (ClosureBackend) realizes emission as an in-process
// instruction table with a compact stack evaluator. Portability only requires
// that evaluated units behave like the described branch code, not that any
// particular binary format exists.
package emit

import (
	"fmt"
	"reflect"
)

// Kind is the closed set of literal/value kinds the emission surface accepts.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt64
	KindFloat64
	KindString
	KindRef
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindInt64:   "int64",
	KindFloat64: "float64",
	KindString:  "string",
	KindRef:     "ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Shape describes a field or value slot. For KindRef, TypeName names the
// referenced type; for primitive kinds it is optional.
type Shape struct {
	Kind     Kind
	TypeName string
}

func (s Shape) String() string {
	if s.TypeName != "" {
		return s.TypeName
	}
	return s.Kind.String()
}

// Flags qualify fields and methods.
type Flags uint8

const (
	FlagStatic Flags = 1 << iota
	FlagReadOnly
)

// Signature describes a method head.
type Signature struct {
	Name   string
	Params []Shape
	Result Shape
}

// CallKind selects the call form for Cursor.Call.
type CallKind uint8

const (
	CallStatic CallKind = iota
	CallVirtual
	CallInterface
	CallConstructor
)

// Label marks a branch target inside one method body.
type Label int

// Reserved method names. The emitter owns the static initializer and the
// hook; client code must not begin methods under these names directly.
const (
	StaticInitName = "<static-init>"
	HookName       = "<static-hook>"
	CtorName       = "<init>"
)

// Cursor builds one method body. Ops push and pop an implicit operand stack.
// Virtual/interface calls expect the receiver pushed before the arguments.
// Bodies are finished with Ret followed by End.
type Cursor interface {
	Const(v any)
	LoadArg(i int)
	LoadLocal(slot int)
	StoreLocal(slot int)
	LoadField(name string)
	StoreField(name string)
	Call(kind CallKind, target string, argc int)
	NewLabel() Label
	Bind(l Label)
	Jump(l Label)
	BranchIfFalse(l Label)
	// JumpTable pops an integer and jumps to labels[v], or def when v is
	// outside [0, len(labels)).
	JumpTable(labels []Label, def Label)
	Construct(typeName string, argc int)
	TypeCheck(typeName string)
	Cast(to Shape)
	Pop()
	Ret()
	End() error
}

// Builder assembles one unit under construction.
type Builder interface {
	DeclareField(name string, shape Shape, flags Flags, constant any) error
	BeginMethod(sig Signature, flags Flags) (Cursor, error)
	EndUnit() (*Artifact, error)
}

// Backend is the abstract emission lower layer.
type Backend interface {
	BeginUnit(name, super string, contracts []string, originTag string) (Builder, error)
}

// NativeFunc backs static call and construct targets that are not defined on
// the unit itself (bound thunks, intrinsics).
type NativeFunc func(args []any) (any, error)

// TypeNameOf returns the runtime type name used by type-check ops and
// overload verification: the closed primitive kinds by their Go names, unit
// instances by their unit name, everything else by its reflect type string.
func TypeNameOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int:
		return "int"
	case int64:
		return "int64"
	case float64:
		return "float64"
	case string:
		return "string"
	case *Instance:
		return t.unit.Name()
	default:
		return reflect.TypeOf(v).String()
	}
}
