package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1

	// KindRecord frames one encoded dump record.
	KindRecord byte = 1
)

var (
	ErrCorrupt = errors.New("synthcache: corrupt dump frame")
	magic4     = [...]byte{'S', 'Y', 'N', 'B'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame: magic(4) | ver(1) | kind(1) | plen(u32 be) | payload(plen)
func Encode(kind byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func Decode(b []byte) (kind byte, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	kind = b[5]

	plen := binary.BigEndian.Uint32(b[6:10])
	if uint32(len(b)-hdr) != plen {
		return 0, nil, ErrCorrupt
	}
	return kind, b[hdr:], nil
}
