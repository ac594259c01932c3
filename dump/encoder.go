package dump

import "encoding/json"

// Encoder converts records to and from bytes. Ext names the file
// extension used for files written with this encoder.
type Encoder interface {
	Marshal(Record) ([]byte, error)
	Unmarshal([]byte, *Record) error
	Ext() string
}

// JSON encodes records as indented JSON. It is the default encoder.
type JSON struct{}

func (JSON) Marshal(rec Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

func (JSON) Unmarshal(b []byte, rec *Record) error {
	return json.Unmarshal(b, rec)
}

func (JSON) Ext() string { return "json" }
