package readstata13

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// A Dataset is the in-memory form of one dta file: the data matrix
// with its schema, plus the label tables, characteristics records and
// (for releases 117+) the long-string pool.
type Dataset struct {
	// The format release the data was read from; Writer takes its own
	// target release and ignores this field.
	Release int

	// The byte order the file was read with, and the order a Writer
	// will emit.  Nil defaults to little-endian (LSF).
	ByteOrder binary.ByteOrder

	// A short text label for the data set.
	Label string

	// The Stata timestamp, 17 bytes ("04 Jul 2016 10:05") or empty.
	TimeStamp string

	Columns []*Column

	// Value-label tables, keyed into by Column.ValueLabelName.
	LabelSets []*LabelSet

	// Free-form (varname, name, contents) annotations, in file order.
	Characteristics []Characteristic

	// The strL pool.  Cells of strL columns hold 20-digit ids that
	// resolve here.
	StrLs []*StrL
}

// A LabelSet maps integer codes to text labels.
type LabelSet struct {
	Name    string
	Entries map[int32]string
}

// A Characteristic is one free-form annotation record.
type Characteristic struct {
	VarName  string
	Name     string
	Contents string
}

// A StrL is one entry of the long-string pool.  T is 129 for raw
// binary payloads and 130 for text payloads stored with a trailing
// null.
type StrL struct {
	V       int32
	O       int32
	T       uint8
	Payload []byte
}

// Id returns the 20-digit decimal key that data cells use to reference
// this entry.
func (s *StrL) Id() string {
	return strlId(s.V, s.O)
}

func strlId(v, o int32) string {
	return fmt.Sprintf("%010d%010d", v, o)
}

// Value returns the payload for presentation.  Text payloads drop the
// trailing null.
func (s *StrL) Value() string {
	if s.T == 130 && len(s.Payload) > 0 && s.Payload[len(s.Payload)-1] == 0 {
		return string(s.Payload[:len(s.Payload)-1])
	}
	return string(s.Payload)
}

// RowCount returns the number of observations.
func (ds *Dataset) RowCount() int {
	if len(ds.Columns) == 0 {
		return 0
	}
	return ds.Columns[0].Length()
}

// StrLValue resolves the 20-digit id held in a strL cell through the
// pool.
func (ds *Dataset) StrLValue(id string) (string, bool) {
	for _, s := range ds.StrLs {
		if s.Id() == id {
			return s.Value(), true
		}
	}
	return "", false
}

// LabelSetByName returns the label set a column's ValueLabelName
// refers to, or nil.
func (ds *Dataset) LabelSetByName(name string) *LabelSet {
	for _, ls := range ds.LabelSets {
		if ls.Name == name {
			return ls
		}
	}
	return nil
}

// parseStrlRef splits a 20-digit cell id back into its (v,o) pair.
func parseStrlRef(id string) (int32, int32, error) {
	if len(id) != 20 {
		return 0, 0, fmt.Errorf("strL reference %q is not a 20-digit id", id)
	}
	v, err := strconv.Atoi(id[:10])
	if err != nil {
		return 0, 0, fmt.Errorf("strL reference %q: %v", id, err)
	}
	o, err := strconv.Atoi(id[10:])
	if err != nil {
		return 0, 0, fmt.Errorf("strL reference %q: %v", id, err)
	}
	return int32(v), int32(o), nil
}

// check validates the model invariants a Writer relies on: uniform
// column lengths, distinct non-empty variable names, distinct label
// set names, a well-formed timestamp, and strL references that resolve
// to exactly one pool entry.
func (ds *Dataset) check() error {
	if len(ds.TimeStamp) != 0 && len(ds.TimeStamp) != 17 {
		return &SchemaViolationError{Detail: fmt.Sprintf("timestamp must be empty or 17 bytes, got %d", len(ds.TimeStamp))}
	}

	n := ds.RowCount()
	names := make(map[string]bool)
	for _, c := range ds.Columns {
		if c.Name == "" {
			return &SchemaViolationError{Detail: "empty variable name"}
		}
		if names[c.Name] {
			return &SchemaViolationError{Detail: "duplicate variable name " + c.Name}
		}
		names[c.Name] = true
		if err := c.checkData(); err != nil {
			return err
		}
		if c.Length() != n {
			return &SchemaViolationError{Detail: fmt.Sprintf("variable %s has %d cells, want %d", c.Name, c.Length(), n)}
		}
	}

	labnames := make(map[string]bool)
	for _, ls := range ds.LabelSets {
		if ls.Name == "" {
			return &SchemaViolationError{Detail: "empty label set name"}
		}
		if labnames[ls.Name] {
			return &SchemaViolationError{Detail: "duplicate label set name " + ls.Name}
		}
		labnames[ls.Name] = true
	}

	pool := make(map[string]bool)
	for _, s := range ds.StrLs {
		id := s.Id()
		if pool[id] {
			return &SchemaViolationError{Detail: "duplicate strL pool entry " + id}
		}
		pool[id] = true
		if s.T != 129 && s.T != 130 {
			return &SchemaViolationError{Detail: fmt.Sprintf("strL entry %s has storage flag %d", id, s.T)}
		}
	}
	for _, c := range ds.Columns {
		if c.Type.Kind != KindStrL {
			continue
		}
		for _, id := range c.data.([]string) {
			if _, _, err := parseStrlRef(id); err != nil {
				return &SchemaViolationError{Detail: err.Error()}
			}
			if !pool[id] {
				return &SchemaViolationError{Detail: fmt.Sprintf("variable %s references strL %s not in the pool", c.Name, id)}
			}
		}
	}

	return nil
}
