package dump

import (
	"encoding/json"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoStruct encodes records as a protobuf google.protobuf.Struct, for
// consumers that already speak proto. Records pass through a JSON
// projection, so Body must be JSON representable.
type ProtoStruct struct{}

func (ProtoStruct) Marshal(rec Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func (ProtoStruct) Unmarshal(b []byte, rec *Record) error {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return err
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, rec)
}

func (ProtoStruct) Ext() string { return "pb" }
