// Package source provides the connectors plans read their input batches
// from: in-memory tables and CSV, JSONL, Parquet and Avro files.
//
// Every connector declares which scan hints it honors. The optimizer only
// attaches hints a connector declares, and the executor compensates above
// the scan for anything the connector does not support, so connectors stay
// simple without changing query results.
package source

import (
	"path/filepath"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Open creates a file-backed source for the given path, dispatching on the
// file extension.
func Open(path string) (frame.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSV(path)
	case ".jsonl", ".ndjson":
		return NewJSONL(path)
	case ".parquet":
		return NewParquet(path)
	case ".avro":
		return NewAvro(path)
	}
	return nil, frame.ErrInvalidType.New("no source for file " + path)
}

// applyRequest applies the hints of a scan request to a fully materialized
// table, in predicate, projection, limit order. Connectors that load whole
// files share it; the executor never re-applies hints a connector declared.
func applyRequest(ctx *frame.Context, t *frame.Table, caps frame.SourceCapabilities, req *frame.ScanRequest) (*frame.Table, error) {
	if req == nil {
		return t, nil
	}
	if caps.Predicate && req.Predicate != nil {
		mask, err := req.Predicate.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		var keep []int
		for i := 0; i < mask.Len(); i++ {
			if v, ok := mask.Value(i).(bool); ok && v {
				keep = append(keep, i)
			}
		}
		t = t.Take(keep)
	}
	if caps.Projection && req.Projection != nil {
		projected, err := t.Select(req.Projection)
		if err != nil {
			return nil, err
		}
		t = projected
	}
	if caps.Limit && req.Limit >= 0 && int64(t.NumRows()) > req.Limit {
		t = t.Slice(0, int(req.Limit))
	}
	return t, nil
}
