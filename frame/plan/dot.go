package plan

import (
	"fmt"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// ToDot renders the plan as a graphviz digraph, one box per node labeled
// with the first line of the node's String().
func ToDot(node frame.Node) string {
	var b strings.Builder
	b.WriteString("digraph plan {\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	next := 0
	writeDotNode(&b, node, &next)
	b.WriteString("}\n")
	return b.String()
}

func writeDotNode(b *strings.Builder, node frame.Node, next *int) int {
	id := *next
	*next++
	fmt.Fprintf(b, "  n%d [label=%q];\n", id, nodeLabel(node))
	for _, child := range node.Children() {
		childID := writeDotNode(b, child, next)
		fmt.Fprintf(b, "  n%d -> n%d;\n", id, childID)
	}
	return id
}

func nodeLabel(node frame.Node) string {
	s := node.String()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
