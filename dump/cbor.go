package dump

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes records with deterministic map ordering so dumps of the
// same artifact are byte comparable across runs.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds a CBOR encoder with core deterministic encoding and
// RFC 3339 timestamps.
func NewCBOR() (*CBOR, error) {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	enc, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("dump: cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("dump: cbor decode mode: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (c *CBOR) Marshal(rec Record) ([]byte, error) {
	return c.enc.Marshal(rec)
}

func (c *CBOR) Unmarshal(b []byte, rec *Record) error {
	return c.dec.Unmarshal(b, rec)
}

func (c *CBOR) Ext() string { return "cbor" }
