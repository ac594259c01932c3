package emit

import (
	"fmt"
	"sync"
)

type opcode uint8

const (
	opConst opcode = iota
	opLoadArg
	opLoadLocal
	opStoreLocal
	opLoadField
	opStoreField
	opCall
	opJump
	opBranchFalse
	opJumpTable
	opConstruct
	opTypeCheck
	opCast
	opPop
	opRet
)

// instr is one evaluated instruction. a/b carry small integers (slots, argc,
// jump targets), s carries names, v carries constants, jump tables and shapes.
type instr struct {
	op opcode
	a  int
	b  int
	s  string
	v  any
}

// ClosureBackend is the default in-process emission backend. Method bodies
// become instruction tables evaluated by a small stack machine; static call
// and construct targets outside the unit resolve through a registered native
// function table.
type ClosureBackend struct {
	mu    sync.RWMutex
	funcs map[string]NativeFunc
}

func NewClosureBackend() *ClosureBackend {
	return &ClosureBackend{funcs: make(map[string]NativeFunc)}
}

// RegisterFunc binds a native function as a static call target. Re-binding an
// existing name is a structural mistake and reports an error.
func (be *ClosureBackend) RegisterFunc(name string, fn NativeFunc) error {
	if fn == nil {
		return fmt.Errorf("emit: nil native func %q", name)
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	if _, exists := be.funcs[name]; exists {
		return fmt.Errorf("emit: native func %q already registered", name)
	}
	be.funcs[name] = fn
	return nil
}

func (be *ClosureBackend) nativeFunc(name string) (NativeFunc, bool) {
	be.mu.RLock()
	fn, ok := be.funcs[name]
	be.mu.RUnlock()
	return fn, ok
}

func (be *ClosureBackend) BeginUnit(name, super string, contracts []string, originTag string) (Builder, error) {
	if name == "" {
		return nil, fmt.Errorf("emit: unit name is required")
	}
	return &unitBuilder{
		be: be,
		art: &Artifact{
			name:      name,
			super:     super,
			contracts: append([]string(nil), contracts...),
			origin:    originTag,
			methods:   make(map[string]*method),
			be:        be,
		},
	}, nil
}

type unitBuilder struct {
	be    *ClosureBackend
	art   *Artifact
	open  []*cursor
	ended bool
}

func (b *unitBuilder) DeclareField(name string, shape Shape, flags Flags, constant any) error {
	if b.ended {
		return fmt.Errorf("emit: unit %q already ended", b.art.name)
	}
	if name == "" {
		return fmt.Errorf("emit: field name is required")
	}
	for _, f := range b.art.fields {
		if f.Name == name {
			return fmt.Errorf("emit: field %q already declared on %q", name, b.art.name)
		}
	}
	b.art.fields = append(b.art.fields, fieldDecl{
		Name:  name,
		Shape: shape,
		Flags: flags,
		Const: constant,
	})
	return nil
}

func (b *unitBuilder) BeginMethod(sig Signature, flags Flags) (Cursor, error) {
	if b.ended {
		return nil, fmt.Errorf("emit: unit %q already ended", b.art.name)
	}
	if sig.Name == "" {
		return nil, fmt.Errorf("emit: method name is required")
	}
	if _, exists := b.art.methods[sig.Name]; exists {
		return nil, fmt.Errorf("emit: method %q already declared on %q", sig.Name, b.art.name)
	}
	m := &method{Sig: sig, Flags: flags}
	b.art.methods[sig.Name] = m
	cur := &cursor{m: m}
	b.open = append(b.open, cur)
	return cur, nil
}

func (b *unitBuilder) EndUnit() (*Artifact, error) {
	if b.ended {
		return nil, fmt.Errorf("emit: unit %q already ended", b.art.name)
	}
	for _, cur := range b.open {
		if !cur.ended {
			return nil, fmt.Errorf("emit: method %q of %q not ended", cur.m.Sig.Name, b.art.name)
		}
	}
	b.art.buildSlots()
	b.ended = true
	return b.art, nil
}

// cursor builds one instruction table. Labels are recorded as indexes into
// labels and patched to instruction offsets at End.
type cursor struct {
	m      *method
	labels []int // label -> pc; -1 while unbound
	ended  bool
}

func (c *cursor) emit(in instr) {
	c.m.code = append(c.m.code, in)
}

func (c *cursor) Const(v any)           { c.emit(instr{op: opConst, v: v}) }
func (c *cursor) LoadArg(i int)         { c.emit(instr{op: opLoadArg, a: i}) }
func (c *cursor) LoadLocal(slot int)    { c.emit(instr{op: opLoadLocal, a: slot}) }
func (c *cursor) StoreLocal(slot int)   { c.emit(instr{op: opStoreLocal, a: slot}) }
func (c *cursor) LoadField(name string) { c.emit(instr{op: opLoadField, s: name}) }
func (c *cursor) StoreField(name string) {
	c.emit(instr{op: opStoreField, s: name})
}

func (c *cursor) Call(kind CallKind, target string, argc int) {
	c.emit(instr{op: opCall, a: argc, b: int(kind), s: target})
}

func (c *cursor) NewLabel() Label {
	c.labels = append(c.labels, -1)
	return Label(len(c.labels) - 1)
}

func (c *cursor) Bind(l Label) {
	c.labels[int(l)] = len(c.m.code)
}

func (c *cursor) Jump(l Label)          { c.emit(instr{op: opJump, a: int(l)}) }
func (c *cursor) BranchIfFalse(l Label) { c.emit(instr{op: opBranchFalse, a: int(l)}) }

func (c *cursor) JumpTable(labels []Label, def Label) {
	tbl := make([]int, len(labels))
	for i, l := range labels {
		tbl[i] = int(l)
	}
	c.emit(instr{op: opJumpTable, a: int(def), v: tbl})
}

func (c *cursor) Construct(typeName string, argc int) {
	c.emit(instr{op: opConstruct, a: argc, s: typeName})
}

func (c *cursor) TypeCheck(typeName string) { c.emit(instr{op: opTypeCheck, s: typeName}) }
func (c *cursor) Cast(to Shape)             { c.emit(instr{op: opCast, v: to}) }
func (c *cursor) Pop()                      { c.emit(instr{op: opPop}) }
func (c *cursor) Ret()                      { c.emit(instr{op: opRet}) }

// End patches label references to instruction offsets and finalizes the body.
func (c *cursor) End() error {
	if c.ended {
		return fmt.Errorf("emit: method %q already ended", c.m.Sig.Name)
	}
	for li, pc := range c.labels {
		if pc < 0 {
			return fmt.Errorf("emit: unbound label %d in %q", li, c.m.Sig.Name)
		}
	}
	nlocals := 0
	for i, in := range c.m.code {
		switch in.op {
		case opJump, opBranchFalse:
			c.m.code[i].a = c.labels[in.a]
		case opJumpTable:
			tbl := in.v.([]int)
			patched := make([]int, len(tbl))
			for j, l := range tbl {
				patched[j] = c.labels[l]
			}
			c.m.code[i].v = patched
			c.m.code[i].a = c.labels[in.a]
		case opLoadLocal, opStoreLocal:
			if in.a+1 > nlocals {
				nlocals = in.a + 1
			}
		}
	}
	c.m.nlocals = nlocals
	c.ended = true
	return nil
}
