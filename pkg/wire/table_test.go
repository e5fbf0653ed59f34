package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTablePreservesInsertionOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Set("zebra", "z")
	tbl.Set("alpha", "a")
	tbl.Set("mike", "m")

	require.Equal(t, []string{"zebra", "alpha", "mike"}, tbl.Keys())

	encoded, err := tbl.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"zebra":"z","alpha":"a","mike":"m"}`, string(encoded))
}

func TestTableRoundTrip(t *testing.T) {
	tbl := NewTable()
	tbl.Set("board", "gl-ar300m")
	tbl.Set("seq", uint32(7))
	nested := NewTable()
	nested.Set("load1", "0.12")
	tbl.Set("sysinfo", nested)
	tbl.Set("tags", []any{"a", "b"})

	encoded, err := tbl.MarshalJSON()
	require.NoError(t, err)

	decoded := NewTable()
	require.NoError(t, decoded.UnmarshalJSON(encoded))
	require.Equal(t, []string{"board", "seq", "sysinfo", "tags"}, decoded.Keys())

	board, ok := decoded.GetString("board")
	require.True(t, ok)
	require.Equal(t, "gl-ar300m", board)

	seq, ok := decoded.GetUint32("seq")
	require.True(t, ok)
	require.Equal(t, uint32(7), seq)

	sub, ok := decoded.GetTable("sysinfo")
	require.True(t, ok)
	load1, ok := sub.GetString("load1")
	require.True(t, ok)
	require.Equal(t, "0.12", load1)

	tags, ok := decoded.GetStringSlice("tags")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, tags)
}

func TestTableUpdateKeepsOriginalPosition(t *testing.T) {
	tbl := NewTable()
	tbl.Set("a", 1)
	tbl.Set("b", 2)
	tbl.Set("a", 3)

	require.Equal(t, []string{"a", "b"}, tbl.Keys())
	v, ok := tbl.Get("a")
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestTableMissingKey(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.GetString("missing")
	require.False(t, ok)
	_, ok = tbl.GetUint32("missing")
	require.False(t, ok)
	_, ok = tbl.GetTable("missing")
	require.False(t, ok)
}

func TestTableUnmarshalRejectsNonObject(t *testing.T) {
	tbl := NewTable()
	err := tbl.UnmarshalJSON([]byte(`[1,2,3]`))
	require.Error(t, err)
}
