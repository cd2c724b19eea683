package frame

// Column is the definition of a column in a schema: a unique name plus a
// type.
type Column struct {
	Name string
	Type Type
}

// NewColumn creates a column definition.
func NewColumn(name string, typ Type) *Column {
	return &Column{Name: name, Type: typ}
}

// Schema is an ordered mapping from column name to type. Names are unique
// within one schema and insertion order is the materialization order.
type Schema []*Column

// NewSchema builds a schema from the given columns, checking name
// uniqueness.
func NewSchema(cols ...*Column) (Schema, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := seen[c.Name]; ok {
			return nil, ErrDuplicateColumn.New(c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return Schema(cols), nil
}

// IndexOf returns the position of the column with the given name, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Contains reports whether the schema has a column with the given name.
func (s Schema) Contains(name string) bool { return s.IndexOf(name) >= 0 }

// ColumnType returns the type of the named column.
func (s Schema) ColumnType(name string) (Type, error) {
	i := s.IndexOf(name)
	if i < 0 {
		return nil, ErrColumnNotFound.New(name)
	}
	return s[i].Type, nil
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Equals reports whether both schemas have the same columns in the same
// order with the same types.
func (s Schema) Equals(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Name != other[i].Name || s[i].Type.Name() != other[i].Type.Name() {
			return false
		}
	}
	return true
}
