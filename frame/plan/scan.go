package plan

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// Scan is the leaf node reading batches from a source connector. The
// optimizer attaches pushdown hints to it: a projection, a source-level
// predicate and a row limit. Hints restrict what the scan materializes, they
// never change row contents.
type Scan struct {
	Src frame.Source
	// Projection, if non-nil, restricts the output to these columns, in
	// source schema order.
	Projection []string
	// Predicate, if non-nil, filters rows at scan level.
	Predicate frame.Expression
	// RowLimit, if non-negative, allows the scan to stop after this many
	// rows.
	RowLimit int64
}

// NewScan creates a scan of the given source with no hints.
func NewScan(src frame.Source) *Scan {
	return &Scan{Src: src, RowLimit: -1}
}

// Schema implements the Node interface.
func (s *Scan) Schema() (frame.Schema, error) {
	schema, err := s.Src.Schema()
	if err != nil {
		return nil, err
	}
	if s.Projection == nil {
		return schema, nil
	}
	cols := make([]*frame.Column, len(s.Projection))
	for i, name := range s.Projection {
		idx := schema.IndexOf(name)
		if idx < 0 {
			return nil, frame.ErrColumnNotFound.New(name)
		}
		cols[i] = schema[idx]
	}
	return frame.NewSchema(cols...)
}

// Children implements the Node interface.
func (s *Scan) Children() []frame.Node { return nil }

// WithChildren implements the Node interface.
func (s *Scan) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 0 {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(children), 0)
	}
	return s, nil
}

// WithProjection returns a copy of the scan with the projection hint set.
func (s *Scan) WithProjection(names []string) *Scan {
	ns := *s
	ns.Projection = names
	return &ns
}

// WithPredicate returns a copy of the scan with the predicate hint set.
func (s *Scan) WithPredicate(pred frame.Expression) *Scan {
	ns := *s
	ns.Predicate = pred
	return &ns
}

// WithRowLimit returns a copy of the scan limited to the given number of
// rows. An existing tighter limit wins.
func (s *Scan) WithRowLimit(limit int64) *Scan {
	ns := *s
	if ns.RowLimit < 0 || limit < ns.RowLimit {
		ns.RowLimit = limit
	}
	return &ns
}

func (s *Scan) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Scan(%s)", s.Src.Name())
	var children []string
	if s.Projection != nil {
		children = append(children, fmt.Sprintf("projection: %v", s.Projection))
	}
	if s.Predicate != nil {
		children = append(children, fmt.Sprintf("predicate: %s", s.Predicate))
	}
	if s.RowLimit >= 0 {
		children = append(children, fmt.Sprintf("limit: %d", s.RowLimit))
	}
	_ = p.WriteChildren(children...)
	return p.String()
}
