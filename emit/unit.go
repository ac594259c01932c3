package emit

import (
	"fmt"
)

type fieldDecl struct {
	Name  string
	Shape Shape
	Flags Flags
	Const any
}

type method struct {
	Sig     Signature
	Flags   Flags
	code    []instr
	nlocals int
}

// Artifact is the loadable output of a finished unit. Load turns it into an
// installed Unit; the static initializer runs exactly once, at load.
type Artifact struct {
	name      string
	super     string
	contracts []string
	origin    string
	fields    []fieldDecl
	slots     map[string]int // instance field name -> slot
	statics   map[string]struct{}
	methods   map[string]*method
	be        *ClosureBackend
}

func (a *Artifact) Name() string { return a.name }

func (a *Artifact) buildSlots() {
	a.slots = make(map[string]int)
	a.statics = make(map[string]struct{})
	slot := 0
	for _, f := range a.fields {
		if f.Flags&FlagStatic != 0 {
			a.statics[f.Name] = struct{}{}
			continue
		}
		a.slots[f.Name] = slot
		slot++
	}
}

// Describe returns a plain data description of the artifact for debug dumps.
func (a *Artifact) Describe() map[string]any {
	fields := make([]map[string]any, 0, len(a.fields))
	for _, f := range a.fields {
		fields = append(fields, map[string]any{
			"name":   f.Name,
			"shape":  f.Shape.String(),
			"static": f.Flags&FlagStatic != 0,
		})
	}
	methods := make(map[string]any, len(a.methods))
	for name, m := range a.methods {
		params := make([]string, len(m.Sig.Params))
		for i, p := range m.Sig.Params {
			params[i] = p.String()
		}
		methods[name] = map[string]any{
			"params": params,
			"result": m.Sig.Result.String(),
			"ops":    len(m.code),
		}
	}
	return map[string]any{
		"name":      a.name,
		"super":     a.super,
		"contracts": a.contracts,
		"origin":    a.origin,
		"fields":    fields,
		"methods":   methods,
	}
}

// Unit is a loaded artifact: statics initialized, methods invocable.
type Unit struct {
	art     *Artifact
	statics map[string]any
}

// Load initializes an artifact into a Unit. Constant statics are seeded
// first, then the static initializer (and through it the hook) runs once.
func Load(a *Artifact) (*Unit, error) {
	u := &Unit{art: a, statics: make(map[string]any)}
	for _, f := range a.fields {
		if f.Flags&FlagStatic != 0 && f.Const != nil {
			u.statics[f.Name] = f.Const
		}
	}
	if m, ok := a.methods[StaticInitName]; ok {
		if _, err := u.run(m, nil, nil); err != nil {
			return nil, fmt.Errorf("emit: static init of %q: %w", a.name, err)
		}
	}
	return u, nil
}

func (u *Unit) Name() string        { return u.art.name }
func (u *Unit) Origin() string      { return u.art.origin }
func (u *Unit) Contracts() []string { return u.art.contracts }

// Static reads a static field.
func (u *Unit) Static(name string) (any, bool) {
	v, ok := u.statics[name]
	return v, ok
}

// Invoke runs a method. recv may be nil for static methods only.
func (u *Unit) Invoke(name string, recv *Instance, args ...any) (any, error) {
	m, ok := u.art.methods[name]
	if !ok {
		return nil, fmt.Errorf("emit: unit %q has no method %q", u.art.name, name)
	}
	if m.Flags&FlagStatic == 0 && recv == nil {
		return nil, fmt.Errorf("emit: method %q of %q needs a receiver", name, u.art.name)
	}
	return u.run(m, recv, args)
}

// NewInstance allocates an instance and runs the constructor, if declared.
func (u *Unit) NewInstance(args ...any) (*Instance, error) {
	inst := &Instance{unit: u, fields: make([]any, len(u.art.slots))}
	if ctor, ok := u.art.methods[CtorName]; ok {
		if _, err := u.run(ctor, inst, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Instance is one value of a synthesized unit.
type Instance struct {
	unit   *Unit
	fields []any
}

func (i *Instance) Unit() *Unit { return i.unit }

// Field reads an instance field by declared name.
func (i *Instance) Field(name string) (any, error) {
	slot, ok := i.unit.art.slots[name]
	if !ok {
		return nil, fmt.Errorf("emit: unit %q has no field %q", i.unit.art.name, name)
	}
	return i.fields[slot], nil
}

func (u *Unit) run(m *method, recv *Instance, args []any) (any, error) {
	var stack []any
	push := func(v any) { stack = append(stack, v) }
	pop := func() (any, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("stack underflow in %q", m.Sig.Name)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	var locals []any
	if m.nlocals > 0 {
		locals = make([]any, m.nlocals)
	}

	for pc := 0; pc < len(m.code); pc++ {
		in := m.code[pc]
		switch in.op {
		case opConst:
			push(in.v)

		case opLoadArg:
			if in.a < 0 || in.a >= len(args) {
				return nil, fmt.Errorf("arg %d out of range in %q", in.a, m.Sig.Name)
			}
			push(args[in.a])

		case opLoadLocal:
			push(locals[in.a])

		case opStoreLocal:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			locals[in.a] = v

		case opLoadField:
			if slot, ok := u.art.slots[in.s]; ok {
				if recv == nil {
					return nil, fmt.Errorf("field %q needs a receiver in %q", in.s, m.Sig.Name)
				}
				push(recv.fields[slot])
			} else if _, ok := u.art.statics[in.s]; ok {
				push(u.statics[in.s])
			} else {
				return nil, fmt.Errorf("unknown field %q in %q", in.s, m.Sig.Name)
			}

		case opStoreField:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if slot, ok := u.art.slots[in.s]; ok {
				if recv == nil {
					return nil, fmt.Errorf("field %q needs a receiver in %q", in.s, m.Sig.Name)
				}
				recv.fields[slot] = v
			} else if _, ok := u.art.statics[in.s]; ok {
				u.statics[in.s] = v
			} else {
				return nil, fmt.Errorf("unknown field %q in %q", in.s, m.Sig.Name)
			}

		case opCall:
			argc := in.a
			if len(stack) < argc {
				return nil, fmt.Errorf("stack underflow calling %q in %q", in.s, m.Sig.Name)
			}
			callArgs := make([]any, argc)
			copy(callArgs, stack[len(stack)-argc:])
			stack = stack[:len(stack)-argc]

			switch CallKind(in.b) {
			case CallStatic:
				if sm, ok := u.art.methods[in.s]; ok && sm.Flags&FlagStatic != 0 {
					res, err := u.run(sm, nil, callArgs)
					if err != nil {
						return nil, err
					}
					push(res)
					break
				}
				fn, ok := u.art.be.nativeFunc(in.s)
				if !ok {
					return nil, fmt.Errorf("unresolved static call %q in %q", in.s, m.Sig.Name)
				}
				res, err := fn(callArgs)
				if err != nil {
					return nil, err
				}
				push(res)

			case CallVirtual, CallInterface:
				rv, err := pop()
				if err != nil {
					return nil, err
				}
				ri, ok := rv.(*Instance)
				if !ok {
					return nil, fmt.Errorf("receiver of %q is not a unit instance in %q", in.s, m.Sig.Name)
				}
				res, err := ri.unit.Invoke(in.s, ri, callArgs...)
				if err != nil {
					return nil, err
				}
				push(res)

			case CallConstructor:
				fn, ok := u.art.be.nativeFunc("ctor:" + in.s)
				if !ok {
					return nil, fmt.Errorf("unresolved constructor %q in %q", in.s, m.Sig.Name)
				}
				res, err := fn(callArgs)
				if err != nil {
					return nil, err
				}
				push(res)

			default:
				return nil, fmt.Errorf("bad call kind %d in %q", in.b, m.Sig.Name)
			}

		case opJump:
			pc = in.a - 1

		case opBranchFalse:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			cond, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("branch condition is %s, not bool, in %q", TypeNameOf(v), m.Sig.Name)
			}
			if !cond {
				pc = in.a - 1
			}

		case opJumpTable:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			idx, ok := asInt(v)
			tbl := in.v.([]int)
			if !ok || idx < 0 || idx >= len(tbl) {
				pc = in.a - 1
			} else {
				pc = tbl[idx] - 1
			}

		case opConstruct:
			argc := in.a
			if len(stack) < argc {
				return nil, fmt.Errorf("stack underflow constructing %q in %q", in.s, m.Sig.Name)
			}
			callArgs := make([]any, argc)
			copy(callArgs, stack[len(stack)-argc:])
			stack = stack[:len(stack)-argc]
			fn, ok := u.art.be.nativeFunc("ctor:" + in.s)
			if !ok {
				return nil, fmt.Errorf("unresolved constructor %q in %q", in.s, m.Sig.Name)
			}
			res, err := fn(callArgs)
			if err != nil {
				return nil, err
			}
			push(res)

		case opTypeCheck:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			push(TypeNameOf(v) == in.s)

		case opCast:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			casted, err := castValue(v, in.v.(Shape))
			if err != nil {
				return nil, fmt.Errorf("%v in %q", err, m.Sig.Name)
			}
			push(casted)

		case opPop:
			if _, err := pop(); err != nil {
				return nil, err
			}

		case opRet:
			if len(stack) > 0 {
				return stack[len(stack)-1], nil
			}
			return nil, nil

		default:
			return nil, fmt.Errorf("bad opcode %d in %q", in.op, m.Sig.Name)
		}
	}
	return nil, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func castValue(v any, to Shape) (any, error) {
	switch to.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		if n, ok := asInt(v); ok {
			return n, nil
		}
		if f, ok := v.(float64); ok {
			return int(f), nil
		}
	case KindInt64:
		if n, ok := asInt(v); ok {
			return int64(n), nil
		}
		if f, ok := v.(float64); ok {
			return int64(f), nil
		}
	case KindFloat64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindRef:
		if to.TypeName == "" || TypeNameOf(v) == to.TypeName {
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot cast %s to %s", TypeNameOf(v), to)
}
