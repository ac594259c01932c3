package synthcache

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned by Task.Install when the reserved name is
	// already bound to a live unit in the scope.
	ErrDuplicateName = errors.New("synthcache: duplicate unit name in scope")

	// ErrDefinitionMismatch is returned by Task.Install when the installed
	// unit carries a name other than the one reserved for the task.
	ErrDefinitionMismatch = errors.New("synthcache: unit name does not match reserved name")
)

// StructuralError reports a conflicting shape declared for the same name in
// one unit or scope. It is fatal and never retried.
type StructuralError struct {
	Name     string
	Existing string
	Declared string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("synthcache: conflicting declaration for %q: have %s, got %s",
		e.Name, e.Existing, e.Declared)
}

// CodegenError is the single generic wrapper for emission or installation
// failures during synthesis. The cause is preserved for unwrapping.
type CodegenError struct {
	Key Key
	Err error
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("synthcache: code generation failed for %s/%s: %v",
		e.Key.Origin, e.Key.Shape, e.Err)
}

func (e *CodegenError) Unwrap() error { return e.Err }

// ScopeExpiredError reports that the owning scope was invalidated before or
// during synthesis. Fatal; no other scope can be substituted.
type ScopeExpiredError struct {
	ScopeID uint64
	Label   string
	Key     Key
}

func (e *ScopeExpiredError) Error() string {
	return fmt.Sprintf("synthcache: scope %d (%s) expired while synthesizing %s/%s",
		e.ScopeID, e.Label, e.Key.Origin, e.Key.Shape)
}
