package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVInference(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "users.csv",
		"id,score,active,name\n"+
			"1,1.5,true,ann\n"+
			"2,,false,bob\n"+
			"3,2.25,true,\n")

	src, err := NewCSV(path)
	require.NoError(err)
	require.Equal("users.csv", src.Name())

	schema, err := src.Schema()
	require.NoError(err)
	require.Equal([]string{"id", "score", "active", "name"}, schema.Names())

	id, err := schema.ColumnType("id")
	require.NoError(err)
	require.Equal(frame.Int64.Name(), id.Name())
	score, err := schema.ColumnType("score")
	require.NoError(err)
	require.Equal(frame.Float64.Name(), score.Name())
	active, err := schema.ColumnType("active")
	require.NoError(err)
	require.Equal(frame.Boolean.Name(), active.Name())
	name, err := schema.ColumnType("name")
	require.NoError(err)
	require.Equal(frame.Utf8.Name(), name.Name())

	tbl, err := src.Scan(frame.NewEmptyContext(), nil)
	require.NoError(err)
	require.Equal(3, tbl.NumRows())
	score2, err := tbl.Column("score")
	require.NoError(err)
	require.Equal([]interface{}{1.5, nil, 2.25}, score2.Values())
	name2, err := tbl.Column("name")
	require.NoError(err)
	require.Equal([]interface{}{"ann", "bob", nil}, name2.Values())
}

func TestCSVHonorsProjectionAndLimit(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "t.csv", "a,b\n1,x\n2,y\n3,z\n")
	src, err := NewCSV(path)
	require.NoError(err)

	caps := src.Capabilities()
	require.True(caps.Projection)
	require.True(caps.Limit)
	require.False(caps.Predicate)

	tbl, err := src.Scan(frame.NewEmptyContext(), &frame.ScanRequest{
		Projection: []string{"b"},
		Limit:      2,
	})
	require.NoError(err)
	require.Equal([]string{"b"}, tbl.Schema().Names())
	require.Equal(2, tbl.NumRows())
}

func TestCSVExplicitSchema(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "t.csv", "id,name\n1,ann\n2,bob\n3,cay\n")
	schema, err := frame.NewSchema(
		frame.NewColumn("id", frame.Int64),
		frame.NewColumn("name", frame.Utf8),
	)
	require.NoError(err)

	src := NewCSVWithSchema(path, schema)
	got, err := src.Schema()
	require.NoError(err)
	require.True(schema.Equals(got))

	tbl, err := src.Scan(frame.NewEmptyContext(), &frame.ScanRequest{Limit: 2})
	require.NoError(err)
	require.Equal(2, tbl.NumRows())
	ids, err := tbl.Column("id")
	require.NoError(err)
	require.Equal([]interface{}{int64(1), int64(2)}, ids.Values())
}

func TestCSVExplicitSchemaSelectsColumns(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "t.csv", "id,name\n1,ann\n,bob\n")

	subset, err := frame.NewSchema(frame.NewColumn("id", frame.Int64))
	require.NoError(err)
	tbl, err := NewCSVWithSchema(path, subset).Scan(frame.NewEmptyContext(), nil)
	require.NoError(err)
	require.Equal([]string{"id"}, tbl.Schema().Names())
	ids, err := tbl.Column("id")
	require.NoError(err)
	require.Equal([]interface{}{int64(1), nil}, ids.Values())

	missing, err := frame.NewSchema(frame.NewColumn("zip", frame.Utf8))
	require.NoError(err)
	_, err = NewCSVWithSchema(path, missing).Scan(frame.NewEmptyContext(), nil)
	require.Error(err)
	require.True(frame.ErrColumnNotFound.Is(err))
}

func TestCSVEmptyFile(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "empty.csv", "")
	_, err := NewCSV(path)
	require.Error(err)
	require.True(frame.ErrNoData.Is(err))
}

func TestJSONLInference(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "events.jsonl",
		`{"id": 1, "tags": ["a", "b"], "meta": {"depth": 2}}`+"\n"+
			"\n"+
			`{"id": 2.5, "extra": true}`+"\n")

	src, err := NewJSONL(path)
	require.NoError(err)

	schema, err := src.Schema()
	require.NoError(err)
	// union of keys in first-seen order
	require.Equal([]string{"id", "tags", "meta", "extra"}, schema.Names())

	// a float in any row widens the whole column
	id, err := schema.ColumnType("id")
	require.NoError(err)
	require.Equal(frame.Float64.Name(), id.Name())

	tags, err := schema.ColumnType("tags")
	require.NoError(err)
	require.Equal(frame.List(frame.Utf8).Name(), tags.Name())

	tbl, err := src.Scan(frame.NewEmptyContext(), nil)
	require.NoError(err)
	require.Equal(2, tbl.NumRows())
	idCol, err := tbl.Column("id")
	require.NoError(err)
	require.Equal([]interface{}{1.0, 2.5}, idCol.Values())
	extra, err := tbl.Column("extra")
	require.NoError(err)
	require.Equal([]interface{}{nil, true}, extra.Values())
	meta, err := tbl.Column("meta")
	require.NoError(err)
	require.Equal(map[string]interface{}{"depth": int64(2)}, meta.Value(0))
}

func TestJSONLIntegerColumnStaysInt(t *testing.T) {
	require := require.New(t)

	path := writeFile(t, "n.jsonl", `{"n": 1}`+"\n"+`{"n": 2}`+"\n")
	src, err := NewJSONL(path)
	require.NoError(err)

	schema, err := src.Schema()
	require.NoError(err)
	typ, err := schema.ColumnType("n")
	require.NoError(err)
	require.Equal(frame.Int64.Name(), typ.Name())
}

func TestOpenDispatchesOnExtension(t *testing.T) {
	require := require.New(t)

	csvPath := writeFile(t, "t.csv", "a\n1\n")
	src, err := Open(csvPath)
	require.NoError(err)
	_, ok := src.(*CSV)
	require.True(ok)

	jsonlPath := writeFile(t, "t.jsonl", `{"a": 1}`+"\n")
	src, err = Open(jsonlPath)
	require.NoError(err)
	_, ok = src.(*JSONL)
	require.True(ok)

	_, err = Open("notes.txt")
	require.Error(err)
	require.True(frame.ErrInvalidType.Is(err))
}

func TestMemoryObservesScans(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("a", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
	)
	require.NoError(err)
	src := NewMemory("t", tbl)
	require.EqualValues(0, src.ScanCount())
	_, ok := src.LastRequest()
	require.False(ok)

	out, err := src.Scan(frame.NewEmptyContext(), &frame.ScanRequest{
		Predicate: expression.NewGreaterThan(expression.NewColumn("a"), expression.Lit(1)),
		Limit:     1,
	})
	require.NoError(err)
	require.Equal(1, out.NumRows())
	require.Equal([]interface{}{int64(2)}, out.ColumnAt(0).Values())

	require.EqualValues(1, src.ScanCount())
	req, ok := src.LastRequest()
	require.True(ok)
	require.EqualValues(1, req.Limit)
}

func TestMemoryRestrictedCapabilitiesIgnoreHints(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("a", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
	)
	require.NoError(err)
	src := NewMemory("t", tbl).WithCapabilities(frame.SourceCapabilities{})

	out, err := src.Scan(frame.NewEmptyContext(), &frame.ScanRequest{Limit: 1})
	require.NoError(err)
	require.Equal(3, out.NumRows())
}
