package readstata13

import "fmt"

// A Column is a fixed-type sequence of cells with an optional mask for
// missing values, plus the per-variable metadata the file carries.
// The cells live in one typed slice whose element type follows the
// column type: []int8, []int16, []int32, []float32, []float64, or
// []string for fixed strings and strL references.
type Column struct {
	Name           string
	VarLabel       string
	Format         string
	ValueLabelName string
	Type           VarType

	// The data, a slice of primitives.
	data interface{}

	// Indicators that numeric cells are missing.  If nil, there are
	// no missing values.
	missing []bool
}

// NewColumn returns a column over the given cells.  The data slice
// parameter is not copied and must match the element type implied by
// t; the missing mask may be nil.
func NewColumn(name string, t VarType, data interface{}, missing []bool) (*Column, error) {
	c := &Column{Name: name, Type: t, data: data, missing: missing}
	if err := c.checkData(); err != nil {
		return nil, err
	}
	return c, nil
}

// Length returns the number of cells.
func (c *Column) Length() int {
	switch d := c.data.(type) {
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []string:
		return len(d)
	}
	return 0
}

// Data returns the cells as a typed slice.  The slice is not copied.
func (c *Column) Data() interface{} {
	return c.data
}

// Missing returns the missing mask, which may be nil.
func (c *Column) Missing() []bool {
	return c.missing
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	return c.missing != nil && c.missing[i]
}

// Strings returns the cells of a string-typed column.
func (c *Column) Strings() ([]string, bool) {
	d, ok := c.data.([]string)
	return d, ok
}

// UpcastNumeric returns the cells of a numeric column as float64
// values.
func (c *Column) UpcastNumeric() ([]float64, error) {
	switch d := c.data.(type) {
	case []float64:
		return d, nil
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot upcast %T to numeric", c.data)
}

// checkData verifies that the data slice matches the column type and
// that the missing mask, when present, covers every cell.
func (c *Column) checkData() error {
	var ok bool
	switch c.Type.Kind {
	case KindByte:
		_, ok = c.data.([]int8)
	case KindShortInt:
		_, ok = c.data.([]int16)
	case KindInt:
		_, ok = c.data.([]int32)
	case KindFloat:
		_, ok = c.data.([]float32)
	case KindDouble:
		_, ok = c.data.([]float64)
	case KindFixedStr:
		_, ok = c.data.([]string)
		if ok && c.Type.Len < 1 {
			return &SchemaViolationError{Detail: fmt.Sprintf("variable %s has fixed string width %d", c.Name, c.Type.Len)}
		}
	case KindStrL:
		_, ok = c.data.([]string)
	default:
		return &SchemaViolationError{Detail: fmt.Sprintf("variable %s has unknown type", c.Name)}
	}
	if !ok {
		return &SchemaViolationError{Detail: fmt.Sprintf("variable %s: cells of type %T do not match %s", c.Name, c.data, c.Type)}
	}
	if c.missing != nil && len(c.missing) != c.Length() {
		return &SchemaViolationError{Detail: fmt.Sprintf("variable %s: missing mask has %d entries, want %d", c.Name, len(c.missing), c.Length())}
	}
	return nil
}
