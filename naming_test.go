package synthcache

import (
	"strings"
	"testing"
)

// TestBaseNameDeterministic verifies the name layout and that equal keys map
// to equal names while distinct keys diverge.
func TestBaseNameDeterministic(t *testing.T) {
	k := Key{Origin: "accessor", Shape: "User.Name|rw"}

	a := baseName(k, "sx")
	b := baseName(k, "sx")
	if a != b {
		t.Fatalf("baseName not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "accessor_sx_") {
		t.Fatalf("name %q lacks origin/tag prefix", a)
	}
	hash := strings.TrimPrefix(a, "accessor_sx_")
	if len(hash) != 12 {
		t.Fatalf("hash part %q has length %d, want 12", hash, len(hash))
	}
	for _, r := range hash {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("hash part %q contains non-hex %q", hash, r)
		}
	}

	if baseName(Key{Origin: "accessor", Shape: "User.Age|ro"}, "sx") == a {
		t.Fatalf("distinct shapes map to one name")
	}
	if baseName(Key{Origin: "keyobject", Shape: "User.Name|rw"}, "sx") == a {
		t.Fatalf("distinct origins map to one name")
	}
	if baseName(k, "alt") == a {
		t.Fatalf("distinct tags map to one name")
	}
}
