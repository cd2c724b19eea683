package source

import (
	"sync/atomic"

	"github.com/framelab/go-frame-engine/frame"
)

// Memory is a source backed by an in-memory table. It honors every scan
// hint. Tests also use it to observe how often and with which hints a plan
// actually scans.
type Memory struct {
	name  string
	table *frame.Table
	caps  frame.SourceCapabilities

	scans   int64
	lastReq atomic.Value
}

// NewMemory creates a new in-memory source over the given table.
func NewMemory(name string, table *frame.Table) *Memory {
	return &Memory{
		name:  name,
		table: table,
		caps:  frame.SourceCapabilities{Predicate: true, Projection: true, Limit: true},
	}
}

// WithCapabilities returns a copy of the source declaring only the given
// hints. Scan counters are not shared with the original.
func (m *Memory) WithCapabilities(caps frame.SourceCapabilities) *Memory {
	return &Memory{name: m.name, table: m.table, caps: caps}
}

// Name implements the Source interface.
func (m *Memory) Name() string { return m.name }

// Schema implements the Source interface.
func (m *Memory) Schema() (frame.Schema, error) {
	return m.table.Schema(), nil
}

// Capabilities implements the Source interface.
func (m *Memory) Capabilities() frame.SourceCapabilities { return m.caps }

// Scan implements the Source interface.
func (m *Memory) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	atomic.AddInt64(&m.scans, 1)
	if req != nil {
		m.lastReq.Store(*req)
	}
	return applyRequest(ctx, m.table, m.caps, req)
}

// ScanCount returns how many times the source has been scanned.
func (m *Memory) ScanCount() int64 { return atomic.LoadInt64(&m.scans) }

// LastRequest returns the hints of the most recent scan, if any.
func (m *Memory) LastRequest() (frame.ScanRequest, bool) {
	v := m.lastReq.Load()
	if v == nil {
		return frame.ScanRequest{}, false
	}
	return v.(frame.ScanRequest), true
}
