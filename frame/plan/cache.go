package plan

import (
	uuid "github.com/satori/go.uuid"

	"github.com/framelab/go-frame-engine/frame"
)

// Cache marks a subplan whose result should be materialized once and shared
// by every consumer in the same run. The executor keys its published results
// by Id, so two plans sharing the same *Cache value share the work.
type Cache struct {
	UnaryNode
	Id string
}

// NewCache creates a new cache node with a fresh identity.
func NewCache(child frame.Node) *Cache {
	return &Cache{UnaryNode{child}, uuid.NewV4().String()}
}

// Schema implements the Node interface.
func (c *Cache) Schema() (frame.Schema, error) {
	return c.Child.Schema()
}

// WithChildren implements the Node interface. The identity is kept so that
// optimizer rewrites below the cache do not split it from its consumers.
func (c *Cache) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(c, len(children), 1)
	}
	return &Cache{UnaryNode{children[0]}, c.Id}, nil
}

func (c *Cache) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Cache(%s)", c.Id[:8])
	_ = p.WriteChildren(c.Child.String())
	return p.String()
}
