package util

import "testing"

// TestHash64Seeded verifies seeds yield independent hash families.
func TestHash64Seeded(t *testing.T) {
	if Hash64Seeded(1, "abc") == Hash64Seeded(2, "abc") {
		t.Fatalf("distinct seeds hash equal for one input")
	}
	if Hash64Seeded(7, "abc") != Hash64Seeded(7, "abc") {
		t.Fatalf("seeded hash not deterministic")
	}
	if Hash64("abc") != Hash64("abc") {
		t.Fatalf("hash not deterministic")
	}
}

// TestShortHex checks lengths and the clamp at 16 digits.
func TestShortHex(t *testing.T) {
	if got := ShortHex(0, 4); got != "0000" {
		t.Fatalf("ShortHex(0,4) = %q", got)
	}
	if got := ShortHex(0xabc, 3); got != "abc" {
		t.Fatalf("ShortHex(0xabc,3) = %q", got)
	}
	if got := ShortHex(0xffffffffffffffff, 32); len(got) != 16 {
		t.Fatalf("ShortHex clamp: len=%d", len(got))
	}
}
