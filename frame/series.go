package frame

// Series is a single named, typed column of a batch. A nil cell is a null.
// Series values are treated as immutable once handed to a downstream
// operator; transformations allocate a new Series.
type Series struct {
	name   string
	typ    Type
	values []interface{}
}

// NewSeries wraps values already in the Go representation of typ. No
// conversion is performed.
func NewSeries(name string, typ Type, values []interface{}) *Series {
	return &Series{name: name, typ: typ, values: values}
}

// NewSeriesOf converts each value into the representation of typ, failing on
// the first unconvertible cell.
func NewSeriesOf(name string, typ Type, values []interface{}) (*Series, error) {
	converted := make([]interface{}, len(values))
	for i, v := range values {
		c, err := typ.Convert(v)
		if err != nil {
			return nil, err
		}
		converted[i] = c
	}
	return NewSeries(name, typ, converted), nil
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Type returns the column type.
func (s *Series) Type() Type { return s.typ }

// Len returns the number of cells.
func (s *Series) Len() int { return len(s.values) }

// Value returns the cell at position i.
func (s *Series) Value(i int) interface{} { return s.values[i] }

// Values returns the backing cells. Callers must not mutate the result.
func (s *Series) Values() []interface{} { return s.values }

// IsNull reports whether the cell at position i is null.
func (s *Series) IsNull(i int) bool { return s.values[i] == nil }

// NullCount returns the number of null cells.
func (s *Series) NullCount() int {
	var n int
	for _, v := range s.values {
		if v == nil {
			n++
		}
	}
	return n
}

// WithName returns the same series under a different name.
func (s *Series) WithName(name string) *Series {
	return &Series{name: name, typ: s.typ, values: s.values}
}

// WithType returns the same cells under a different type without conversion.
// The caller asserts that the cells already belong to typ.
func (s *Series) WithType(typ Type) *Series {
	return &Series{name: s.name, typ: typ, values: s.values}
}

// Slice returns the [offset, offset+length) window of the series. Bounds are
// clamped to the series length.
func (s *Series) Slice(offset, length int) *Series {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.values) {
		offset = len(s.values)
	}
	end := offset + length
	if length < 0 || end > len(s.values) {
		end = len(s.values)
	}
	return &Series{name: s.name, typ: s.typ, values: s.values[offset:end]}
}

// Take returns a new series with the cells at the given positions, in order.
func (s *Series) Take(indices []int) *Series {
	values := make([]interface{}, len(indices))
	for i, idx := range indices {
		values[i] = s.values[idx]
	}
	return &Series{name: s.name, typ: s.typ, values: values}
}

// Extend returns the concatenation of s and other. Types must promote; the
// result carries the promoted type.
func (s *Series) Extend(other *Series) (*Series, error) {
	typ, err := Promote(s.typ, other.typ)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(s.values)+len(other.values))
	for _, v := range s.values {
		c, err := typ.Convert(v)
		if err != nil {
			return nil, err
		}
		values = append(values, c)
	}
	for _, v := range other.values {
		c, err := typ.Convert(v)
		if err != nil {
			return nil, err
		}
		values = append(values, c)
	}
	return &Series{name: s.name, typ: typ, values: values}, nil
}

// Repeat returns a series of n copies of the single cell of a length-1
// series. It is used to broadcast literals and scalar aggregates.
func (s *Series) Repeat(n int) *Series {
	values := make([]interface{}, n)
	for i := range values {
		values[i] = s.values[0]
	}
	return &Series{name: s.name, typ: s.typ, values: values}
}
