package source

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/framelab/go-frame-engine/frame"
)

// Parquet is a source reading a parquet file with a flat schema. Boolean,
// integer, floating point, string and timestamp leaves map to the matching
// column types; timestamps become microsecond datetimes.
type Parquet struct {
	name   string
	path   string
	schema frame.Schema
}

// NewParquet opens the file at the given path and resolves its schema. Row
// data is read at scan time.
func NewParquet(path string) (*Parquet, error) {
	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, size)
	if err != nil {
		return nil, frame.ErrCompute.New("parquet: " + err.Error())
	}
	schema, err := parquetSchema(pf)
	if err != nil {
		return nil, err
	}
	return &Parquet{name: filepath.Base(path), path: path, schema: schema}, nil
}

// Name implements the Source interface.
func (p *Parquet) Name() string { return p.name }

// Schema implements the Source interface.
func (p *Parquet) Schema() (frame.Schema, error) { return p.schema, nil }

// Capabilities implements the Source interface.
func (p *Parquet) Capabilities() frame.SourceCapabilities {
	return frame.SourceCapabilities{Projection: true, Limit: true}
}

// Scan implements the Source interface.
func (p *Parquet) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	f, size, err := openFile(p.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, size)
	if err != nil {
		return nil, frame.ErrCompute.New("parquet: " + err.Error())
	}

	limit := int64(-1)
	if req != nil && req.Limit >= 0 {
		limit = req.Limit
	}

	columns := make([][]interface{}, len(p.schema))
	var read int64
	buf := make([]parquet.Row, 256)
rowGroups:
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				if limit >= 0 && read == limit {
					break
				}
				for _, v := range row {
					ci := v.Column()
					cell, cerr := parquetCell(v, p.schema[ci].Type)
					if cerr != nil {
						rows.Close()
						return nil, cerr
					}
					columns[ci] = append(columns[ci], cell)
				}
				read++
			}
			if limit >= 0 && read == limit {
				rows.Close()
				break rowGroups
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, frame.ErrCompute.New("parquet: " + err.Error())
			}
		}
		rows.Close()
	}

	cols := make([]*frame.Series, len(p.schema))
	for i, c := range p.schema {
		values := columns[i]
		if values == nil {
			values = []interface{}{}
		}
		cols[i] = frame.NewSeries(c.Name, c.Type, values)
	}
	t, err := frame.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	if req != nil && req.Projection != nil {
		return t.Select(req.Projection)
	}
	return t, nil
}

func openFile(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func parquetSchema(pf *parquet.File) (frame.Schema, error) {
	fields := pf.Schema().Fields()
	cols := make([]*frame.Column, len(fields))
	for i, field := range fields {
		if !field.Leaf() {
			return nil, frame.ErrInvalidType.New(
				"parquet: nested field " + field.Name() + " is not supported")
		}
		typ, err := parquetType(field)
		if err != nil {
			return nil, err
		}
		cols[i] = &frame.Column{Name: field.Name(), Type: typ}
	}
	return frame.NewSchema(cols...)
}

func parquetType(field parquet.Field) (frame.Type, error) {
	if lt := field.Type().LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil:
			return frame.Utf8, nil
		case lt.Timestamp != nil:
			return frame.Datetime, nil
		}
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return frame.Boolean, nil
	case parquet.Int32:
		return frame.Int32, nil
	case parquet.Int64:
		return frame.Int64, nil
	case parquet.Float, parquet.Double:
		return frame.Float64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return frame.Utf8, nil
	}
	return nil, frame.ErrInvalidType.New(
		"parquet: unsupported type for field " + field.Name())
}

func parquetCell(v parquet.Value, typ frame.Type) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch typ {
	case frame.Boolean:
		return v.Boolean(), nil
	case frame.Int32:
		return v.Int32(), nil
	case frame.Int64:
		return v.Int64(), nil
	case frame.Float64:
		if v.Kind() == parquet.Float {
			return float64(v.Float()), nil
		}
		return v.Double(), nil
	case frame.Utf8:
		return string(v.ByteArray()), nil
	case frame.Datetime:
		// Stored as microseconds since the epoch by convention; other units
		// are normalized by the writer's logical type annotation, which the
		// parquet library surfaces already scaled.
		return time.UnixMicro(v.Int64()).UTC(), nil
	}
	return nil, frame.ErrInvalidType.New("parquet: unsupported cell type " + typ.Name())
}
