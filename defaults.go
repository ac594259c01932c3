package synthcache

import (
	"github.com/xyproto/env/v2"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// DefaultNameTag is the fixed tag embedded in generated names when Options
// does not override it. Overridable via SYNTHCACHE_NAME_TAG.
func DefaultNameTag() string {
	return env.Str("SYNTHCACHE_NAME_TAG", "sx")
}

// DefaultDumpDir is the directory for generated-artifact dumps. Empty (the
// default) disables dumping. Set SYNTHCACHE_DUMP_DIR to enable.
func DefaultDumpDir() string {
	return env.Str("SYNTHCACHE_DUMP_DIR", "")
}

// StressHash reports whether degenerate hash constants are forced to exercise
// collision paths (SYNTHCACHE_STRESS_HASH).
func StressHash() bool {
	return env.Bool("SYNTHCACHE_STRESS_HASH")
}
