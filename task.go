package synthcache

// Task is the explicit context of one synthesis call. It replaces any ambient
// "currently synthesizing" state: everything a generator needs while building
// a unit travels on the task. A task is only valid inside its SynthFunc; the
// owning scope is locked for the whole call.
type Task struct {
	scope *Scope
	key   Key
	name  string
	log   Logger
	hooks Hooks
	sink  Sink
}

// Scope returns the owning scope. Do not lock it; it is already held.
func (t *Task) Scope() *Scope { return t.scope }

// Key returns the synthesis key being built.
func (t *Task) Key() Key { return t.key }

// Name returns the collision-free unit name reserved for this task. It was
// reserved before the task started, so the body can be constructed under it
// without racing other requests.
func (t *Task) Name() string { return t.name }

func (t *Task) Log() Logger  { return t.log }
func (t *Task) Hooks() Hooks { return t.hooks }

// Install binds the finished unit to the task's reserved name in the owning
// scope. It fails with *ScopeExpiredError if the scope was invalidated since
// synthesis began, ErrDuplicateName if the name is already bound, and
// ErrDefinitionMismatch if the unit reports a different name than reserved.
func (t *Task) Install(unit any) error {
	if !t.scope.valid {
		return &ScopeExpiredError{ScopeID: t.scope.id, Label: t.scope.label, Key: t.key}
	}
	return t.scope.installLocked(t.name, unit)
}

// Dump hands a generated artifact description to the configured sink, if any.
// Sink failures never fail synthesis; they surface through Hooks.DumpFailed.
func (t *Task) Dump(kind string, body any) {
	if t.sink == nil {
		return
	}
	if err := t.sink.DumpUnit(t.scope.label, t.name, t.key.Origin, kind, body); err != nil {
		t.hooks.DumpFailed(t.name, err)
		t.log.Warn("artifact dump failed", Fields{"unit": t.name, "err": err})
	}
}
