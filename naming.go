package synthcache

import (
	"github.com/unkn0wn-root/synthcache/internal/util"
)

// baseName derives the deterministic base name for a key:
// <origin>_<tag>_<hash12>, where hash12 is the first 12 hex chars of the
// 64-bit hash over (origin, shape). Collisions are resolved by the scope's
// reserved-name set, not here.
func baseName(key Key, tag string) string {
	h := util.Hash64(key.Origin + "\x1f" + key.Shape)
	return key.Origin + "_" + tag + "_" + util.ShortHex(h, 12)
}
