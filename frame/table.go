package frame

import "fmt"

// Table is a materialized batch: an ordered sequence of equal-length named
// columns. Tables are values; operators consume their inputs and produce new
// tables rather than mutating batches already handed downstream.
type Table struct {
	cols []*Series
	rows int
}

// NewTable builds a table from the given columns, validating equal lengths
// and unique names.
func NewTable(cols ...*Series) (*Table, error) {
	var rows int
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, ok := seen[c.Name()]; ok {
			return nil, ErrDuplicateColumn.New(c.Name())
		}
		seen[c.Name()] = struct{}{}
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, ErrShape.New(fmt.Sprintf(
				"column %q has %d rows, expected %d", c.Name(), c.Len(), rows))
		}
	}
	return &Table{cols: cols, rows: rows}, nil
}

// EmptyTable returns a zero-row table with the given schema.
func EmptyTable(schema Schema) *Table {
	cols := make([]*Series, len(schema))
	for i, c := range schema {
		cols[i] = NewSeries(c.Name, c.Type, nil)
	}
	return &Table{cols: cols}
}

// Schema returns the table's schema in column order.
func (t *Table) Schema() Schema {
	schema := make(Schema, len(t.cols))
	for i, c := range t.cols {
		schema[i] = &Column{Name: c.Name(), Type: c.Type()}
	}
	return schema
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.cols) }

// Columns returns the backing columns. Callers must not mutate the result.
func (t *Table) Columns() []*Series { return t.cols }

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Series { return t.cols[i] }

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Series, error) {
	for _, c := range t.cols {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, ErrColumnNotFound.New(name)
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []interface{} {
	row := make([]interface{}, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Value(i)
	}
	return row
}

// Slice returns the [offset, offset+length) window of the table, clamped.
func (t *Table) Slice(offset, length int) *Table {
	cols := make([]*Series, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Slice(offset, length)
	}
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	return &Table{cols: cols, rows: rows}
}

// Take returns a new table with the rows at the given positions, in order.
func (t *Table) Take(indices []int) *Table {
	cols := make([]*Series, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(indices)
	}
	return &Table{cols: cols, rows: len(indices)}
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]*Series, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return NewTable(cols...)
}

// WithColumn returns a table with the given column appended, or replacing an
// existing column of the same name in place.
func (t *Table) WithColumn(s *Series) (*Table, error) {
	if t.NumColumns() > 0 && s.Len() != t.rows {
		return nil, ErrShape.New(fmt.Sprintf(
			"column %q has %d rows, expected %d", s.Name(), s.Len(), t.rows))
	}
	cols := make([]*Series, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	for i, c := range cols {
		if c.Name() == s.Name() {
			cols[i] = s
			return &Table{cols: cols, rows: t.rows}, nil
		}
	}
	cols = append(cols, s)
	rows := t.rows
	if len(cols) == 1 {
		rows = s.Len()
	}
	return &Table{cols: cols, rows: rows}, nil
}

// HStack returns a table with the other table's columns appended. Row counts
// must match; duplicate names are an error.
func (t *Table) HStack(other *Table) (*Table, error) {
	if other.NumRows() != t.rows {
		return nil, ErrShape.New(fmt.Sprintf(
			"cannot stack %d rows next to %d rows", other.NumRows(), t.rows))
	}
	cols := make([]*Series, 0, len(t.cols)+other.NumColumns())
	cols = append(cols, t.cols...)
	cols = append(cols, other.cols...)
	return NewTable(cols...)
}

// VStack returns the row-wise concatenation of both tables. Column names
// must match in order; types are promoted.
func (t *Table) VStack(other *Table) (*Table, error) {
	if t.NumColumns() != other.NumColumns() {
		return nil, ErrSchema.New(fmt.Sprintf(
			"cannot concat %d columns with %d columns", t.NumColumns(), other.NumColumns()))
	}
	cols := make([]*Series, len(t.cols))
	for i, c := range t.cols {
		oc := other.cols[i]
		if c.Name() != oc.Name() {
			return nil, ErrSchema.New(fmt.Sprintf(
				"cannot concat column %q with column %q", c.Name(), oc.Name()))
		}
		ext, err := c.Extend(oc)
		if err != nil {
			return nil, err
		}
		cols[i] = ext
	}
	return NewTable(cols...)
}
