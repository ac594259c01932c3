package util

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const hexdigits = "0123456789abcdef"

// Hash64 hashes s with xxhash64 (seed 0).
func Hash64(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Hash64Seeded hashes s after folding an explicit 8-byte seed prefix into the
// digest, yielding independent hash families per seed.
func Hash64Seeded(seed uint64, s string) uint64 {
	d := xxhash.New()
	var pre [8]byte
	binary.LittleEndian.PutUint64(pre[:], seed)
	_, _ = d.Write(pre[:])
	_, _ = d.WriteString(s)
	return d.Sum64()
}

// ShortHex renders the low-to-high nibbles of h as up to n hex chars (n <= 16).
func ShortHex(h uint64, n int) string {
	if n > 16 {
		n = 16
	}
	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = hexdigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}
