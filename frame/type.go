package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Type is the type of a column. The set of types is closed: every cell value
// of a column typed T has the Go representation returned by T.Convert.
type Type interface {
	// Name returns the canonical name of the type.
	Name() string
	// Convert coerces a value into the Go representation of this type. A nil
	// value converts to nil (null).
	Convert(v interface{}) (interface{}, error)
	// Compare orders two non-nil values of this type. It returns a negative
	// number if a < b, zero if equal and a positive number if a > b.
	Compare(a, b interface{}) (int, error)
	// Zero returns the zero value for this type.
	Zero() interface{}
}

var (
	// Boolean is a bool column type.
	Boolean Type = booleanType{}
	// Int32 is a 32-bit integer column type.
	Int32 Type = numberType{name: "int32"}
	// Int64 is a 64-bit integer column type.
	Int64 Type = numberType{name: "int64"}
	// Float64 is a 64-bit floating point column type.
	Float64 Type = numberType{name: "float64"}
	// Utf8 is a string column type.
	Utf8 Type = stringType{}
	// Datetime is an instant column type with microsecond precision.
	Datetime Type = datetimeType{}
	// Null is the type of an all-null column with no better type known.
	Null Type = nullType{}
)

// List returns a list column type with the given inner type. Cells are
// []interface{} slices whose elements belong to the inner type.
func List(inner Type) Type { return listType{inner} }

// Struct returns a struct column type with the given ordered fields. Cells
// are map[string]interface{} values keyed by field name.
func Struct(fields ...*Column) Type { return structType{fields} }

// IsNumeric reports whether the type is a numeric type.
func IsNumeric(t Type) bool {
	_, ok := t.(numberType)
	return ok
}

// IsInteger reports whether the type is an integer type.
func IsInteger(t Type) bool { return t == Int32 || t == Int64 }

// IsFloat reports whether the type is a floating point type.
func IsFloat(t Type) bool { return t == Float64 }

// IsList reports whether the type is a list type.
func IsList(t Type) bool {
	_, ok := t.(listType)
	return ok
}

// ListInner returns the inner type of a list type.
func ListInner(t Type) (Type, bool) {
	lt, ok := t.(listType)
	if !ok {
		return nil, false
	}
	return lt.inner, true
}

// StructFields returns the fields of a struct type.
func StructFields(t Type) ([]*Column, bool) {
	st, ok := t.(structType)
	if !ok {
		return nil, false
	}
	return st.fields, true
}

// Promote returns the common type two operand types are widened to before an
// arithmetic operation or comparison. Integer types widen to the larger
// integer, integers promote to floats, Null promotes to anything. String and
// non-string never promote implicitly; an explicit cast is required.
func Promote(a, b Type) (Type, error) {
	if a.Name() == b.Name() {
		return a, nil
	}
	if a == Null {
		return b, nil
	}
	if b == Null {
		return a, nil
	}
	if IsNumeric(a) && IsNumeric(b) {
		if IsFloat(a) || IsFloat(b) {
			return Float64, nil
		}
		return Int64, nil
	}
	if ia, aList := ListInner(a); aList {
		if ib, bList := ListInner(b); bList {
			inner, err := Promote(ia, ib)
			if err != nil {
				return nil, err
			}
			return List(inner), nil
		}
	}
	return nil, ErrInvalidType.New(fmt.Sprintf("no promotion from %s to %s", a.Name(), b.Name()))
}

// TypeFromName resolves a canonical type name back to a Type. It is the
// inverse of Type.Name and is used by the plan interchange format.
func TypeFromName(name string) (Type, error) {
	switch name {
	case "boolean":
		return Boolean, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "float64":
		return Float64, nil
	case "utf8":
		return Utf8, nil
	case "datetime":
		return Datetime, nil
	case "null":
		return Null, nil
	}
	if strings.HasPrefix(name, "list[") && strings.HasSuffix(name, "]") {
		inner, err := TypeFromName(name[len("list[") : len(name)-1])
		if err != nil {
			return nil, err
		}
		return List(inner), nil
	}
	return nil, ErrInvalidType.New(name)
}

type numberType struct {
	name string
}

func (t numberType) Name() string { return t.name }

func (t numberType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t.name {
	case "int32":
		n, err := cast.ToInt32E(v)
		if err != nil {
			return nil, ErrInvalidType.New(err.Error())
		}
		return n, nil
	case "int64":
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, ErrInvalidType.New(err.Error())
		}
		return n, nil
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, ErrInvalidType.New(err.Error())
		}
		return n, nil
	}
}

func (t numberType) Compare(a, b interface{}) (int, error) {
	if IsFloat(t) {
		fa, err := cast.ToFloat64E(a)
		if err != nil {
			return 0, ErrInvalidType.New(err.Error())
		}
		fb, err := cast.ToFloat64E(b)
		if err != nil {
			return 0, ErrInvalidType.New(err.Error())
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}

	ia, err := cast.ToInt64E(a)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	ib, err := cast.ToInt64E(b)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	switch {
	case ia < ib:
		return -1, nil
	case ia > ib:
		return 1, nil
	}
	return 0, nil
}

func (t numberType) Zero() interface{} {
	switch t.name {
	case "int32":
		return int32(0)
	case "int64":
		return int64(0)
	default:
		return float64(0)
	}
}

type booleanType struct{}

func (t booleanType) Name() string { return "boolean" }

func (t booleanType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, ErrInvalidType.New(err.Error())
	}
	return b, nil
}

func (t booleanType) Compare(a, b interface{}) (int, error) {
	ba, err := cast.ToBoolE(a)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	bb, err := cast.ToBoolE(b)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	switch {
	case ba == bb:
		return 0, nil
	case !ba:
		return -1, nil
	}
	return 1, nil
}

func (t booleanType) Zero() interface{} { return false }

type stringType struct{}

func (t stringType) Name() string { return "utf8" }

func (t stringType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, ErrInvalidType.New(err.Error())
	}
	return s, nil
}

func (t stringType) Compare(a, b interface{}) (int, error) {
	sa, err := cast.ToStringE(a)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	sb, err := cast.ToStringE(b)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	return strings.Compare(sa, sb), nil
}

func (t stringType) Zero() interface{} { return "" }

type datetimeType struct{}

func (t datetimeType) Name() string { return "datetime" }

func (t datetimeType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	ts, err := cast.ToTimeE(v)
	if err != nil {
		return nil, ErrInvalidType.New(err.Error())
	}
	return ts.UTC().Truncate(time.Microsecond), nil
}

func (t datetimeType) Compare(a, b interface{}) (int, error) {
	ta, err := cast.ToTimeE(a)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	tb, err := cast.ToTimeE(b)
	if err != nil {
		return 0, ErrInvalidType.New(err.Error())
	}
	switch {
	case ta.Before(tb):
		return -1, nil
	case ta.After(tb):
		return 1, nil
	}
	return 0, nil
}

func (t datetimeType) Zero() interface{} { return time.Time{} }

type nullType struct{}

func (t nullType) Name() string { return "null" }

func (t nullType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return nil, ErrInvalidType.New(fmt.Sprintf("cannot convert %v to null", v))
}

func (t nullType) Compare(a, b interface{}) (int, error) { return 0, nil }

func (t nullType) Zero() interface{} { return nil }

type listType struct {
	inner Type
}

func (t listType) Name() string { return fmt.Sprintf("list[%s]", t.inner.Name()) }

func (t listType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	vs, ok := v.([]interface{})
	if !ok {
		return nil, ErrInvalidType.New(fmt.Sprintf("cannot convert %T to %s", v, t.Name()))
	}
	out := make([]interface{}, len(vs))
	for i, el := range vs {
		converted, err := t.inner.Convert(el)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func (t listType) Compare(a, b interface{}) (int, error) {
	la, ok := a.([]interface{})
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("cannot compare %T as %s", a, t.Name()))
	}
	lb, ok := b.([]interface{})
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("cannot compare %T as %s", b, t.Name()))
	}
	for i := 0; i < len(la) && i < len(lb); i++ {
		c, err := t.inner.Compare(la[i], lb[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return len(la) - len(lb), nil
}

func (t listType) Zero() interface{} { return []interface{}{} }

type structType struct {
	fields []*Column
}

func (t structType) Name() string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = fmt.Sprintf("%s: %s", f.Name, f.Type.Name())
	}
	return fmt.Sprintf("struct[%s]", strings.Join(names, ", "))
}

func (t structType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidType.New(fmt.Sprintf("cannot convert %T to %s", v, t.Name()))
	}
	out := make(map[string]interface{}, len(t.fields))
	for _, f := range t.fields {
		converted, err := f.Type.Convert(m[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = converted
	}
	return out, nil
}

func (t structType) Compare(a, b interface{}) (int, error) {
	ma, ok := a.(map[string]interface{})
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("cannot compare %T as %s", a, t.Name()))
	}
	mb, ok := b.(map[string]interface{})
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("cannot compare %T as %s", b, t.Name()))
	}
	for _, f := range t.fields {
		va, vb := ma[f.Name], mb[f.Name]
		if va == nil || vb == nil {
			if va != nil {
				return 1, nil
			}
			if vb != nil {
				return -1, nil
			}
			continue
		}
		c, err := f.Type.Compare(va, vb)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func (t structType) Zero() interface{} { return map[string]interface{}{} }
