package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreePrinter(t *testing.T) {
	require := require.New(t)

	child := NewTreePrinter()
	require.NoError(child.WriteNode("child"))
	require.NoError(child.WriteChildren("leaf"))

	p := NewTreePrinter()
	require.NoError(p.WriteNode("root(%d)", 1))
	require.NoError(p.WriteChildren("first", child.String()))

	expected := "root(1)\n" +
		" ├─ first\n" +
		" └─ child\n" +
		"     └─ leaf\n"
	require.Equal(expected, p.String())
}

func TestTreePrinterOrderEnforced(t *testing.T) {
	require := require.New(t)

	p := NewTreePrinter()
	err := p.WriteChildren("a")
	require.True(ErrNodeNotWritten.Is(err))

	require.NoError(p.WriteNode("n"))
	require.True(ErrNodeAlreadyWritten.Is(p.WriteNode("n")))

	require.NoError(p.WriteChildren("a"))
	require.True(ErrChildrenAlreadyWritten.Is(p.WriteChildren("b")))
}
