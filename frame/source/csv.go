package source

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// CSV is a source reading a comma-separated file with a header row. Without
// an explicit schema, column types are inferred from the cells: int64 when
// every non-empty cell parses as an integer, float64 when every cell parses
// as a number, boolean for true/false columns, utf8 otherwise. Empty cells
// are nulls.
type CSV struct {
	name   string
	path   string
	schema frame.Schema
	table  *frame.Table
}

// NewCSV opens and parses the file at the given path. Type inference has to
// see every cell, so the whole file is materialized once here and scans
// slice the result.
func NewCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, frame.ErrCompute.New("csv: " + err.Error())
	}
	if len(records) == 0 {
		return nil, frame.ErrNoData.New(path)
	}

	header := records[0]
	rows := records[1:]
	cols := make([]*frame.Series, len(header))
	for i, name := range header {
		cells := make([]string, len(rows))
		for j, row := range rows {
			cells[j] = row[i]
		}
		cols[i] = inferColumn(name, cells)
	}
	table, err := frame.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	return &CSV{name: filepath.Base(path), path: path, schema: table.Schema(), table: table}, nil
}

// NewCSVWithSchema creates a source decoding cells through the given schema
// instead of inferring types. Nothing is read until a scan, and a scan stops
// reading the file as soon as its row limit is satisfied.
func NewCSVWithSchema(path string, schema frame.Schema) *CSV {
	return &CSV{name: filepath.Base(path), path: path, schema: schema}
}

// Name implements the Source interface.
func (c *CSV) Name() string { return c.name }

// Schema implements the Source interface.
func (c *CSV) Schema() (frame.Schema, error) { return c.schema, nil }

// Capabilities implements the Source interface.
func (c *CSV) Capabilities() frame.SourceCapabilities {
	return frame.SourceCapabilities{Projection: true, Limit: true}
}

// Scan implements the Source interface.
func (c *CSV) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	t := c.table
	if t == nil {
		limit := int64(-1)
		if req != nil {
			limit = req.Limit
		}
		var err error
		if t, err = c.read(limit); err != nil {
			return nil, err
		}
	}
	return applyRequest(ctx, t, c.Capabilities(), req)
}

// read streams the file through the explicit schema, stopping after limit
// rows when limit is non-negative.
func (c *CSV) read(limit int64) (*frame.Table, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, frame.ErrNoData.New(c.path)
	}
	if err != nil {
		return nil, frame.ErrCompute.New("csv: " + err.Error())
	}

	positions := make([]int, len(c.schema))
	for i, col := range c.schema {
		positions[i] = -1
		for j, name := range header {
			if name == col.Name {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return nil, frame.ErrColumnNotFound.New(col.Name)
		}
	}

	values := make([][]interface{}, len(c.schema))
	for limit != 0 {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, frame.ErrCompute.New("csv: " + err.Error())
		}
		for i, col := range c.schema {
			cell := record[positions[i]]
			if cell == "" {
				values[i] = append(values[i], nil)
				continue
			}
			v, err := col.Type.Convert(cell)
			if err != nil {
				return nil, err
			}
			values[i] = append(values[i], v)
		}
		if limit > 0 {
			limit--
		}
	}

	cols := make([]*frame.Series, len(c.schema))
	for i, col := range c.schema {
		cols[i] = frame.NewSeries(col.Name, col.Type, values[i])
	}
	return frame.NewTable(cols...)
}

func inferColumn(name string, cells []string) *frame.Series {
	isInt, isFloat, isBool := true, true, true
	empty := true
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		empty = false
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isFloat = false
		}
		switch strings.ToLower(cell) {
		case "true", "false":
		default:
			isBool = false
		}
	}

	typ := frame.Utf8
	switch {
	case empty:
		typ = frame.Null
	case isInt:
		typ = frame.Int64
	case isFloat:
		typ = frame.Float64
	case isBool:
		typ = frame.Boolean
	}

	values := make([]interface{}, len(cells))
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		switch typ {
		case frame.Int64:
			values[i], _ = strconv.ParseInt(cell, 10, 64)
		case frame.Float64:
			values[i], _ = strconv.ParseFloat(cell, 64)
		case frame.Boolean:
			values[i] = strings.EqualFold(cell, "true")
		default:
			values[i] = cell
		}
	}
	return frame.NewSeries(name, typ, values)
}
