// Package serde encodes logical plans to JSON and back, so a plan built on
// one process can be shipped to and executed on another. Scan nodes are
// encoded by source name only; the decoder resolves them against a registry
// of sources supplied by the caller. Plans holding opaque Go functions
// (user map functions, scalar functions) cannot cross a process boundary
// and refuse to serialize.
package serde

import (
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/framelab/go-frame-engine/frame"
)

var (
	// ErrNotSerializable is returned when a plan holds an opaque Go value,
	// such as a user function, that has no JSON form.
	ErrNotSerializable = errors.NewKind("plan is not serializable: %s")

	// ErrUnknownKind is returned when the decoder meets a kind tag it does
	// not recognize.
	ErrUnknownKind = errors.NewKind("unknown %s kind %q")

	// ErrSourceNotFound is returned when a decoded scan references a source
	// name absent from the decoder's registry.
	ErrSourceNotFound = errors.NewKind("source %q is not registered with the decoder")
)

var json = jsoniter.Config{UseNumber: true}.Froze()

// planJSON is the interchange form of a plan node. Kind selects the node
// type; the other fields are populated as that kind requires.
type planJSON struct {
	Kind string `json:"kind"`

	Input    *planJSON   `json:"input,omitempty"`
	Left     *planJSON   `json:"left,omitempty"`
	Right    *planJSON   `json:"right,omitempty"`
	Inputs   []*planJSON `json:"inputs,omitempty"`
	Contexts []*planJSON `json:"contexts,omitempty"`

	Source     string    `json:"source,omitempty"`
	Projection []string  `json:"projection,omitempty"`
	Predicate  *exprJSON `json:"predicate,omitempty"`
	RowLimit   *int64    `json:"row_limit,omitempty"`

	Exprs []*exprJSON `json:"exprs,omitempty"`
	Keys  []*exprJSON `json:"keys,omitempty"`
	Aggs  []*exprJSON `json:"aggs,omitempty"`

	How           string      `json:"how,omitempty"`
	Suffix        string      `json:"suffix,omitempty"`
	LeftOn        []*exprJSON `json:"left_on,omitempty"`
	RightOn       []*exprJSON `json:"right_on,omitempty"`
	AllowParallel bool        `json:"allow_parallel,omitempty"`
	ForceParallel bool        `json:"force_parallel,omitempty"`

	Strategy      string   `json:"strategy,omitempty"`
	LeftOnColumn  string   `json:"left_on_column,omitempty"`
	RightOnColumn string   `json:"right_on_column,omitempty"`
	LeftBy        []string `json:"left_by,omitempty"`
	RightBy       []string `json:"right_by,omitempty"`
	Tolerance     float64  `json:"tolerance,omitempty"`

	Fields []*sortFieldJSON `json:"fields,omitempty"`

	Offset *int64 `json:"offset,omitempty"`
	Len    *int64 `json:"len,omitempty"`

	Subset        []string `json:"subset,omitempty"`
	Keep          string   `json:"keep,omitempty"`
	MaintainOrder bool     `json:"maintain_order,omitempty"`

	Columns []string          `json:"columns,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`

	IDVars       []string `json:"id_vars,omitempty"`
	ValueVars    []string `json:"value_vars,omitempty"`
	VariableName string   `json:"variable_name,omitempty"`
	ValueName    string   `json:"value_name,omitempty"`

	IndexColumn string `json:"index_column,omitempty"`
	Every       *int64 `json:"every,omitempty"`
	Period      *int64 `json:"period,omitempty"`
	Closed      string `json:"closed,omitempty"`

	Name string `json:"name,omitempty"`
	Id   string `json:"id,omitempty"`
}

// exprJSON is the interchange form of an expression.
type exprJSON struct {
	Kind string `json:"kind"`

	Name  string      `json:"name,omitempty"`
	Op    string      `json:"op,omitempty"`
	Type  string      `json:"type,omitempty"`
	Value interface{} `json:"value,omitempty"`
	Agg   string      `json:"agg,omitempty"`

	Input *exprJSON `json:"input,omitempty"`
	Left  *exprJSON `json:"left,omitempty"`
	Right *exprJSON `json:"right,omitempty"`

	AggExpr     *exprJSON   `json:"agg_expr,omitempty"`
	PartitionBy []*exprJSON `json:"partition_by,omitempty"`
	OrderBy     []*exprJSON `json:"order_by,omitempty"`
	Descending  []bool      `json:"descending,omitempty"`

	Exclude []string `json:"exclude,omitempty"`
}

type sortFieldJSON struct {
	Column     *exprJSON `json:"column"`
	Descending bool      `json:"descending,omitempty"`
	NullsLast  bool      `json:"nulls_last,omitempty"`
}

// Marshal encodes a plan to its JSON interchange form.
func Marshal(node frame.Node) ([]byte, error) {
	p, err := encodeNode(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// Unmarshal decodes a plan from its JSON interchange form. Scan nodes are
// resolved against the sources registry by name.
func Unmarshal(data []byte, sources map[string]frame.Source) (frame.Node, error) {
	var p planJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrNotSerializable.New(err.Error())
	}
	return decodeNode(&p, sources)
}

func ptr(v int64) *int64 { return &v }
