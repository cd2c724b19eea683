package source

import (
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	goavro "github.com/linkedin/goavro/v2"

	"github.com/framelab/go-frame-engine/frame"
)

// Avro is a source reading an Avro object container file of records. Union
// types with null become nullable columns of the non-null branch; logical
// timestamp types become datetime columns.
type Avro struct {
	name   string
	path   string
	schema frame.Schema
}

// avroField is the subset of an Avro record schema the source cares about.
type avroField struct {
	Name string      `json:"name"`
	Type interface{} `json:"type"`
}

// NewAvro opens the file at the given path and resolves its schema. Row data
// is decoded at scan time.
func NewAvro(path string) (*Avro, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, frame.ErrCompute.New("avro: " + err.Error())
	}
	schema, err := avroSchema(r.Codec().Schema())
	if err != nil {
		return nil, err
	}
	return &Avro{name: filepath.Base(path), path: path, schema: schema}, nil
}

// Name implements the Source interface.
func (a *Avro) Name() string { return a.name }

// Schema implements the Source interface.
func (a *Avro) Schema() (frame.Schema, error) { return a.schema, nil }

// Capabilities implements the Source interface.
func (a *Avro) Capabilities() frame.SourceCapabilities {
	return frame.SourceCapabilities{Limit: true}
}

// Scan implements the Source interface.
func (a *Avro) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, frame.ErrCompute.New("avro: " + err.Error())
	}

	limit := int64(-1)
	if req != nil && req.Limit >= 0 {
		limit = req.Limit
	}

	columns := make([][]interface{}, len(a.schema))
	var read int64
	for r.Scan() {
		if limit >= 0 && read == limit {
			break
		}
		datum, err := r.Read()
		if err != nil {
			return nil, frame.ErrCompute.New("avro: " + err.Error())
		}
		record, ok := datum.(map[string]interface{})
		if !ok {
			return nil, frame.ErrInvalidType.New("avro: file does not contain records")
		}
		for i, c := range a.schema {
			cell, err := avroCell(record[c.Name], c.Type)
			if err != nil {
				return nil, err
			}
			columns[i] = append(columns[i], cell)
		}
		read++
	}
	if err := r.Err(); err != nil {
		return nil, frame.ErrCompute.New("avro: " + err.Error())
	}

	cols := make([]*frame.Series, len(a.schema))
	for i, c := range a.schema {
		values := columns[i]
		if values == nil {
			values = []interface{}{}
		}
		cols[i] = frame.NewSeries(c.Name, c.Type, values)
	}
	return frame.NewTable(cols...)
}

func avroSchema(schemaJSON string) (frame.Schema, error) {
	var record struct {
		Type   string      `json:"type"`
		Fields []avroField `json:"fields"`
	}
	if err := jsoniter.UnmarshalFromString(schemaJSON, &record); err != nil {
		return nil, frame.ErrCompute.New("avro: " + err.Error())
	}
	if record.Type != "record" {
		return nil, frame.ErrInvalidType.New("avro: top-level schema must be a record")
	}
	cols := make([]*frame.Column, len(record.Fields))
	for i, field := range record.Fields {
		typ, err := avroType(field.Type)
		if err != nil {
			return nil, err
		}
		cols[i] = &frame.Column{Name: field.Name, Type: typ}
	}
	return frame.NewSchema(cols...)
}

func avroType(t interface{}) (frame.Type, error) {
	switch t := t.(type) {
	case string:
		switch t {
		case "null":
			return frame.Null, nil
		case "boolean":
			return frame.Boolean, nil
		case "int":
			return frame.Int32, nil
		case "long":
			return frame.Int64, nil
		case "float", "double":
			return frame.Float64, nil
		case "string", "bytes":
			return frame.Utf8, nil
		}
	case []interface{}:
		// Unions with null select the non-null branch; the null branch only
		// marks the column nullable, which every column already is.
		out := frame.Null
		for _, branch := range t {
			bt, err := avroType(branch)
			if err != nil {
				return nil, err
			}
			if out, err = frame.Promote(out, bt); err != nil {
				return nil, err
			}
		}
		return out, nil
	case map[string]interface{}:
		if lt, ok := t["logicalType"].(string); ok {
			switch lt {
			case "timestamp-micros", "timestamp-millis":
				return frame.Datetime, nil
			}
		}
		if at, ok := t["type"].(string); ok && at == "array" {
			inner, err := avroType(t["items"])
			if err != nil {
				return nil, err
			}
			return frame.List(inner), nil
		}
		if at, ok := t["type"]; ok {
			return avroType(at)
		}
	}
	return nil, frame.ErrInvalidType.New("avro: unsupported field type")
}

// avroCell normalizes a decoded Avro value into the Go representation of the
// column type, unwrapping the single-entry maps goavro uses for unions.
func avroCell(v interface{}, typ frame.Type) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if union, ok := v.(map[string]interface{}); ok && len(union) == 1 {
		for _, inner := range union {
			return avroCell(inner, typ)
		}
	}
	switch v := v.(type) {
	case float32:
		return float64(v), nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.UTC().Truncate(time.Microsecond), nil
	case []interface{}:
		inner, _ := frame.ListInner(typ)
		out := make([]interface{}, len(v))
		for i, el := range v {
			cell, err := avroCell(el, inner)
			if err != nil {
				return nil, err
			}
			out[i] = cell
		}
		return out, nil
	}
	return typ.Convert(v)
}
