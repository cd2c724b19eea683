package frame

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrNodeAlreadyWritten is returned when the node of a tree printer has
	// already been written.
	ErrNodeAlreadyWritten = errors.NewKind("treeprinter: node already written")
	// ErrNodeNotWritten is returned when the children are printed before the
	// node.
	ErrNodeNotWritten = errors.NewKind("treeprinter: node must be written before the children")
	// ErrChildrenAlreadyWritten is returned when the children of a tree
	// printer node have already been written.
	ErrChildrenAlreadyWritten = errors.NewKind("treeprinter: children already written")
)

// TreePrinter prints a plan or expression as an indented tree, one node per
// WriteNode call plus its already-rendered children.
type TreePrinter struct {
	buf             bytes.Buffer
	nodeWritten     bool
	childrenWritten bool
}

// NewTreePrinter creates a new tree printer.
func NewTreePrinter() *TreePrinter {
	return new(TreePrinter)
}

// WriteNode writes the header of the node.
func (p *TreePrinter) WriteNode(format string, args ...interface{}) error {
	if p.nodeWritten {
		return ErrNodeAlreadyWritten.New()
	}
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteRune('\n')
	p.nodeWritten = true
	return nil
}

// WriteChildren writes the children of the node, which are expected to be
// already-rendered (possibly multi-line) subtrees.
func (p *TreePrinter) WriteChildren(children ...string) error {
	if !p.nodeWritten {
		return ErrNodeNotWritten.New()
	}
	if p.childrenWritten {
		return ErrChildrenAlreadyWritten.New()
	}
	p.childrenWritten = true

	for i, child := range children {
		last := i+1 == len(children)
		p.writeChild(child, last)
	}
	return nil
}

func (p *TreePrinter) writeChild(child string, last bool) {
	connector, indent := " ├─ ", " │  "
	if last {
		connector, indent = " └─ ", "    "
	}
	lines := strings.Split(strings.TrimRight(child, "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			p.buf.WriteString(connector)
		} else {
			p.buf.WriteString(indent)
		}
		p.buf.WriteString(line)
		p.buf.WriteRune('\n')
	}
}

// String returns the rendered tree.
func (p *TreePrinter) String() string {
	return p.buf.String()
}
