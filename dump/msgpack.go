package dump

import "github.com/vmihailenco/msgpack/v5"

// Msgpack encodes records as MessagePack. Compact, for high-volume dumps.
type Msgpack struct{}

func (Msgpack) Marshal(rec Record) ([]byte, error) {
	return msgpack.Marshal(rec)
}

func (Msgpack) Unmarshal(b []byte, rec *Record) error {
	return msgpack.Unmarshal(b, rec)
}

func (Msgpack) Ext() string { return "msgpack" }
