// Package dump writes generated artifacts to a configured location for
// debugging. Records are encoded by a pluggable Encoder (JSON, CBOR,
// Msgpack, ProtoStruct) and framed by the internal wire container, so a
// reader can reject foreign or truncated files.
package dump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/unkn0wn-root/synthcache"
	"github.com/unkn0wn-root/synthcache/internal/wire"
)

// Record is one dumped artifact description.
type Record struct {
	Scope   string    `json:"scope" msgpack:"scope"`
	Unit    string    `json:"unit" msgpack:"unit"`
	Origin  string    `json:"origin" msgpack:"origin"`
	Kind    string    `json:"kind" msgpack:"kind"`
	Body    any       `json:"body" msgpack:"body"`
	Written time.Time `json:"written" msgpack:"written"`
}

// Dumper writes framed records to a directory, one file per unit.
type Dumper struct {
	dir string
	enc Encoder
	log synthcache.Logger
}

var _ synthcache.Sink = (*Dumper)(nil)

// New creates a Dumper. An empty dir falls back to the configured default
// (SYNTHCACHE_DUMP_DIR); having neither is an error. A nil enc means JSON.
func New(dir string, enc Encoder, log synthcache.Logger) (*Dumper, error) {
	if dir == "" {
		dir = synthcache.DefaultDumpDir()
	}
	if dir == "" {
		return nil, fmt.Errorf("dump: no directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	if enc == nil {
		enc = JSON{}
	}
	if log == nil {
		log = synthcache.NopLogger{}
	}
	return &Dumper{dir: dir, enc: enc, log: log}, nil
}

// DumpUnit implements synthcache.Sink.
func (d *Dumper) DumpUnit(scopeLabel, unitName, origin, kind string, body any) error {
	rec := Record{
		Scope:   scopeLabel,
		Unit:    unitName,
		Origin:  origin,
		Kind:    kind,
		Body:    body,
		Written: time.Now(),
	}
	payload, err := d.enc.Marshal(rec)
	if err != nil {
		return fmt.Errorf("dump: encode %q: %w", unitName, err)
	}
	name := sanitize(scopeLabel) + "_" + sanitize(unitName) + "." + d.enc.Ext()
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, wire.Encode(wire.KindRecord, payload), 0o644); err != nil {
		return fmt.Errorf("dump: write %q: %w", path, err)
	}
	d.log.Debug("dumped artifact", synthcache.Fields{"unit": unitName, "path": path})
	return nil
}

// ReadFile reads back one dumped record, validating the frame.
func ReadFile(path string, enc Encoder) (Record, error) {
	var rec Record
	raw, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	kind, payload, err := wire.Decode(raw)
	if err != nil {
		return rec, err
	}
	if kind != wire.KindRecord {
		return rec, fmt.Errorf("dump: unexpected frame kind %d", kind)
	}
	if enc == nil {
		enc = JSON{}
	}
	if err := enc.Unmarshal(payload, &rec); err != nil {
		return rec, fmt.Errorf("dump: decode %q: %w", path, err)
	}
	return rec, nil
}

func sanitize(s string) string {
	if s == "" {
		return "x"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
