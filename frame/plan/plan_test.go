package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

// schemaSource is a leaf standing in for a scan during resolution tests.
type schemaSource struct {
	name   string
	schema frame.Schema
}

func (s *schemaSource) Name() string                  { return s.name }
func (s *schemaSource) Schema() (frame.Schema, error) { return s.schema, nil }
func (s *schemaSource) Capabilities() frame.SourceCapabilities {
	return frame.SourceCapabilities{}
}
func (s *schemaSource) Scan(ctx *frame.Context, req *frame.ScanRequest) (*frame.Table, error) {
	return frame.EmptyTable(s.schema), nil
}

func testScan(t *testing.T, name string, cols ...*frame.Column) *Scan {
	t.Helper()
	schema, err := frame.NewSchema(cols...)
	require.NoError(t, err)
	return NewScan(&schemaSource{name: name, schema: schema})
}

func usersScan(t *testing.T) *Scan {
	return testScan(t, "users",
		frame.NewColumn("id", frame.Int64),
		frame.NewColumn("name", frame.Utf8),
		frame.NewColumn("age", frame.Int64),
	)
}

func TestSelectSchema(t *testing.T) {
	require := require.New(t)

	sel := NewSelect([]frame.Expression{
		expression.NewColumn("name"),
		expression.NewAlias("older", expression.NewPlus(expression.NewColumn("age"), expression.Lit(1))),
	}, usersScan(t))

	schema, err := sel.Schema()
	require.NoError(err)
	require.Equal([]string{"name", "older"}, schema.Names())
}

func TestSelectWildcardExpands(t *testing.T) {
	require := require.New(t)

	sel := NewSelect([]frame.Expression{expression.NewWildcard()}, usersScan(t))
	schema, err := sel.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age"}, schema.Names())
}

func TestSelectUnknownColumn(t *testing.T) {
	require := require.New(t)

	sel := NewSelect([]frame.Expression{expression.NewColumn("missing")}, usersScan(t))
	_, err := sel.Schema()
	require.Error(err)
	require.True(frame.ErrColumnNotFound.Is(err))
}

func TestSelectDuplicateOutput(t *testing.T) {
	require := require.New(t)

	sel := NewSelect([]frame.Expression{
		expression.NewColumn("id"),
		expression.NewAlias("id", expression.NewColumn("age")),
	}, usersScan(t))
	_, err := sel.Schema()
	require.Error(err)
	require.True(frame.ErrDuplicateColumn.Is(err))
}

func TestWithColumnsSchemaKeepsOrder(t *testing.T) {
	require := require.New(t)

	wc := NewWithColumns([]frame.Expression{
		// redefining an existing column keeps its position
		expression.NewAlias("age", expression.NewMult(expression.NewColumn("age"), expression.Lit(2))),
		expression.NewAlias("flag", expression.Lit(true)),
	}, usersScan(t))

	schema, err := wc.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age", "flag"}, schema.Names())
}

func TestGroupByValidatesAtConstruction(t *testing.T) {
	require := require.New(t)

	keys := []frame.Expression{expression.NewColumn("name")}

	_, err := NewGroupBy(keys, []frame.Expression{expression.NewColumn("age")}, true, usersScan(t))
	require.Error(err)
	require.True(frame.ErrAggregationOutsideGroupBy.Is(err))

	_, err = NewGroupBy(keys, []frame.Expression{
		expression.NewAlias("name", expression.NewSum(expression.NewColumn("age"))),
	}, true, usersScan(t))
	require.Error(err)
	require.True(frame.ErrDuplicateColumn.Is(err))

	g, err := NewGroupBy(keys, []frame.Expression{
		expression.NewSum(expression.NewColumn("age")),
	}, true, usersScan(t))
	require.NoError(err)

	schema, err := g.Schema()
	require.NoError(err)
	require.Equal([]string{"name", "sum_age"}, schema.Names())
}

func TestGroupByWildcardKeysExpand(t *testing.T) {
	require := require.New(t)

	g, err := NewGroupBy(
		[]frame.Expression{expression.NewWildcard()},
		[]frame.Expression{expression.NewCount(expression.NewColumn("id"))},
		true, usersScan(t))
	require.NoError(err)

	schema, err := g.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age", "count_id"}, schema.Names())
}

func TestNestedPlaceholderIsResolutionError(t *testing.T) {
	require := require.New(t)

	sel := NewSelect([]frame.Expression{
		expression.NewSum(expression.NewWildcard()),
	}, usersScan(t))
	_, err := sel.Schema()
	require.Error(err)
	require.True(frame.ErrSchema.Is(err))

	g, err := NewGroupBy(
		[]frame.Expression{expression.NewPlus(expression.NewWildcard(), expression.Lit(1))},
		[]frame.Expression{expression.NewSum(expression.NewColumn("age"))},
		true, usersScan(t))
	require.NoError(err)
	_, err = g.Schema()
	require.Error(err)
	require.True(frame.ErrSchema.Is(err))
}

func TestJoinSchemaSuffix(t *testing.T) {
	require := require.New(t)

	left := usersScan(t)
	right := testScan(t, "orders",
		frame.NewColumn("id", frame.Int64),
		frame.NewColumn("user_id", frame.Int64),
		frame.NewColumn("name", frame.Utf8),
	)

	j, err := NewJoin(left, right,
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("user_id")},
		InnerJoin, "")
	require.NoError(err)

	schema, err := j.Schema()
	require.NoError(err)
	// right join key is dropped, colliding right names take the suffix
	require.Equal([]string{"id", "name", "age", "id_right", "name_right"}, schema.Names())
}

func TestSemiJoinKeepsLeftSchema(t *testing.T) {
	require := require.New(t)

	left := usersScan(t)
	right := testScan(t, "orders", frame.NewColumn("user_id", frame.Int64))

	j, err := NewJoin(left, right,
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("user_id")},
		SemiJoin, "")
	require.NoError(err)

	schema, err := j.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age"}, schema.Names())
}

func TestJoinKeyTypesMustPromote(t *testing.T) {
	require := require.New(t)

	left := usersScan(t)
	right := testScan(t, "tags", frame.NewColumn("tag", frame.Utf8))

	j, err := NewJoin(left, right,
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("tag")},
		InnerJoin, "")
	require.NoError(err)

	_, err = j.Schema()
	require.Error(err)
	require.True(frame.ErrInvalidType.Is(err))
}

func TestCrossJoinTakesNoKeys(t *testing.T) {
	require := require.New(t)

	left := usersScan(t)
	right := testScan(t, "tags", frame.NewColumn("tag", frame.Utf8))

	_, err := NewJoin(left, right,
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("tag")},
		CrossJoin, "")
	require.Error(err)

	j, err := NewJoin(left, right, nil, nil, CrossJoin, "")
	require.NoError(err)
	schema, err := j.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age", "tag"}, schema.Names())
}

func TestAsofJoinSchema(t *testing.T) {
	require := require.New(t)

	left := testScan(t, "trades",
		frame.NewColumn("ts", frame.Int64),
		frame.NewColumn("symbol", frame.Utf8),
	)
	right := testScan(t, "quotes",
		frame.NewColumn("ts", frame.Int64),
		frame.NewColumn("symbol", frame.Utf8),
		frame.NewColumn("bid", frame.Float64),
	)

	j, err := NewAsofJoin(left, right, "ts", "ts", AsofBackward, "")
	require.NoError(err)
	j, err = j.WithBy([]string{"symbol"}, []string{"symbol"})
	require.NoError(err)

	schema, err := j.Schema()
	require.NoError(err)
	// right key and by-columns are dropped
	require.Equal([]string{"ts", "symbol", "bid"}, schema.Names())
}

func TestMeltSchemaPromotesValueType(t *testing.T) {
	require := require.New(t)

	scan := testScan(t, "wide",
		frame.NewColumn("id", frame.Utf8),
		frame.NewColumn("a", frame.Int64),
		frame.NewColumn("b", frame.Float64),
	)
	m := NewMelt([]string{"id"}, nil, scan)

	schema, err := m.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "variable", "value"}, schema.Names())
	typ, err := schema.ColumnType("value")
	require.NoError(err)
	require.Equal(frame.Float64.Name(), typ.Name())
}

func TestExplodeSchema(t *testing.T) {
	require := require.New(t)

	scan := testScan(t, "nested",
		frame.NewColumn("id", frame.Int64),
		frame.NewColumn("tags", frame.List(frame.Utf8)),
	)

	e := NewExplode([]string{"tags"}, scan)
	schema, err := e.Schema()
	require.NoError(err)
	typ, err := schema.ColumnType("tags")
	require.NoError(err)
	require.Equal(frame.Utf8.Name(), typ.Name())

	bad := NewExplode([]string{"id"}, scan)
	_, err = bad.Schema()
	require.Error(err)
	require.True(frame.ErrInvalidType.Is(err))
}

func TestRenameSchemaAndInverse(t *testing.T) {
	require := require.New(t)

	r := NewRename(map[string]string{"name": "full_name"}, usersScan(t))
	schema, err := r.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "full_name", "age"}, schema.Names())
	require.Equal(map[string]string{"full_name": "name"}, r.Inverse())

	bad := NewRename(map[string]string{"missing": "x"}, usersScan(t))
	_, err = bad.Schema()
	require.Error(err)
	require.True(frame.ErrColumnNotFound.Is(err))
}

func TestScanRowLimitTighterWins(t *testing.T) {
	require := require.New(t)

	s := usersScan(t)
	require.EqualValues(-1, s.RowLimit)
	s = s.WithRowLimit(10)
	require.EqualValues(10, s.RowLimit)
	s = s.WithRowLimit(20)
	require.EqualValues(10, s.RowLimit)
	s = s.WithRowLimit(5)
	require.EqualValues(5, s.RowLimit)
}

func TestWithRowCountSchema(t *testing.T) {
	require := require.New(t)

	n := NewWithRowCount("", 0, usersScan(t))
	schema, err := n.Schema()
	require.NoError(err)
	require.Equal([]string{"row_nr", "id", "name", "age"}, schema.Names())

	dup := NewWithRowCount("id", 0, usersScan(t))
	_, err = dup.Schema()
	require.Error(err)
	require.True(frame.ErrDuplicateColumn.Is(err))
}

func TestWithContextSchemaSkipsShadowed(t *testing.T) {
	require := require.New(t)

	ctxScan := testScan(t, "totals",
		frame.NewColumn("id", frame.Int64),
		frame.NewColumn("total", frame.Float64),
	)
	n := NewWithContext(usersScan(t), ctxScan)

	schema, err := n.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "name", "age", "total"}, schema.Names())
}

func TestTransformUpRebuildsParents(t *testing.T) {
	require := require.New(t)

	scan := usersScan(t)
	filter := NewFilter(expression.NewGreaterThan(
		expression.NewColumn("age"), expression.Lit(18)), scan)
	sel := NewSelect([]frame.Expression{expression.NewColumn("name")}, filter)

	transformed, err := TransformUp(sel, func(n frame.Node) (frame.Node, error) {
		if f, ok := n.(*Filter); ok {
			return NewLimit(1, f.Child), nil
		}
		return n, nil
	})
	require.NoError(err)

	outer, ok := transformed.(*Select)
	require.True(ok)
	_, ok = outer.Child.(*Slice)
	require.True(ok)

	// the original tree is untouched
	_, ok = sel.Child.(*Filter)
	require.True(ok)
}

func TestCachePreservesIdAcrossWithChildren(t *testing.T) {
	require := require.New(t)

	c := NewCache(usersScan(t))
	require.NotEmpty(c.Id)

	rebuilt, err := c.WithChildren(usersScan(t))
	require.NoError(err)
	require.Equal(c.Id, rebuilt.(*Cache).Id)
}

func TestPlanString(t *testing.T) {
	require := require.New(t)

	filter := NewFilter(expression.NewGreaterThan(
		expression.NewColumn("age"), expression.Lit(18)), usersScan(t))
	out := filter.String()
	require.True(strings.HasPrefix(out, "Filter"))
	require.Contains(out, "Scan(users)")
}

func TestToDot(t *testing.T) {
	require := require.New(t)

	filter := NewFilter(expression.NewGreaterThan(
		expression.NewColumn("age"), expression.Lit(18)), usersScan(t))
	dot := ToDot(filter)
	require.True(strings.HasPrefix(dot, "digraph"))
	require.Contains(dot, "Scan(users)")
	require.Contains(dot, "->")
}
