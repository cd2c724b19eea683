package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/framelab/go-frame-engine/frame"
)

// JSONL is a source reading a newline-delimited JSON file, one object per
// line. Columns are the union of all keys in first-seen order; objects
// missing a key contribute a null. Numbers become int64 when every value in
// the column is integral, float64 otherwise; arrays become list columns and
// nested objects struct columns.
type JSONL struct {
	name  string
	table *frame.Table
}

// NewJSONL opens and parses the file at the given path.
func NewJSONL(path string) (*JSONL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	api := jsoniter.Config{UseNumber: true}.Froze()
	var keys []string
	seen := make(map[string]struct{})
	var rows []map[string]interface{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row map[string]interface{}
		if err := api.UnmarshalFromString(line, &row); err != nil {
			return nil, frame.ErrCompute.New("jsonl: " + err.Error())
		}
		// First-seen key order keeps column order deterministic across
		// files whose objects share a layout.
		var lineKeys []string
		iter := api.BorrowIterator([]byte(line))
		for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
			iter.Skip()
			lineKeys = append(lineKeys, field)
		}
		api.ReturnIterator(iter)
		for _, k := range lineKeys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, frame.ErrCompute.New("jsonl: " + err.Error())
	}
	if len(rows) == 0 {
		return nil, frame.ErrNoData.New(path)
	}

	cols := make([]*frame.Series, len(keys))
	for i, key := range keys {
		values := make([]interface{}, len(rows))
		for j, row := range rows {
			values[j] = row[key]
		}
		col, err := jsonColumn(key, values)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	table, err := frame.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	return &JSONL{name: filepath.Base(path), table: table}, nil
}

// Name implements the Source interface.
func (j *JSONL) Name() string { return j.name }

// Schema implements the Source interface.
func (j *JSONL) Schema() (frame.Schema, error) { return j.table.Schema(), nil }

// Capabilities implements the Source interface.
func (j *JSONL) Capabilities() frame.SourceCapabilities {
	return frame.SourceCapabilities{Limit: true}
}

// Scan implements the Source interface.
func (j *JSONL) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	return applyRequest(ctx, j.table, j.Capabilities(), req)
}

func jsonColumn(name string, raw []interface{}) (*frame.Series, error) {
	typ := frame.Null
	for _, v := range raw {
		vt, err := jsonType(v)
		if err != nil {
			return nil, err
		}
		if typ, err = frame.Promote(typ, vt); err != nil {
			return nil, err
		}
	}
	values := make([]interface{}, len(raw))
	for i, v := range raw {
		converted, err := jsonValue(v)
		if err != nil {
			return nil, err
		}
		if converted == nil {
			continue
		}
		if values[i], err = typ.Convert(converted); err != nil {
			return nil, err
		}
	}
	return frame.NewSeries(name, typ, values), nil
}

func jsonType(v interface{}) (frame.Type, error) {
	switch v := v.(type) {
	case nil:
		return frame.Null, nil
	case bool:
		return frame.Boolean, nil
	case string:
		return frame.Utf8, nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return frame.Int64, nil
		}
		return frame.Float64, nil
	case []interface{}:
		inner := frame.Null
		for _, el := range v {
			et, err := jsonType(el)
			if err != nil {
				return nil, err
			}
			if inner, err = frame.Promote(inner, et); err != nil {
				return nil, err
			}
		}
		return frame.List(inner), nil
	case map[string]interface{}:
		var fields []*frame.Column
		for key, fv := range v {
			ft, err := jsonType(fv)
			if err != nil {
				return nil, err
			}
			fields = append(fields, &frame.Column{Name: key, Type: ft})
		}
		sortFields(fields)
		return frame.Struct(fields...), nil
	}
	return nil, frame.ErrInvalidType.New("jsonl: unsupported value")
}

// sortFields orders inferred struct fields by name, since Go map iteration
// would otherwise make the schema nondeterministic.
func sortFields(fields []*frame.Column) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
}

func jsonValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, el := range v {
			converted, err := jsonValue(el)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, fv := range v {
			converted, err := jsonValue(fv)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	}
	return v, nil
}
