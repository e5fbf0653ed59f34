package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blogic/udrone/pkg/wire"
)

func TestSystemHandlerRunsArgvFromArray(t *testing.T) {
	args := wire.NewTable().Set("cmd", []any{"/bin/echo", "hello"})
	out := wire.NewTable()

	code := systemHandler(context.Background(), args, out)
	require.Equal(t, wire.DataReply, code)

	stdout, ok := out.GetString("stdout")
	require.True(t, ok)
	require.Equal(t, "hello\n", stdout)
}

func TestSystemHandlerRejectsMissingCmd(t *testing.T) {
	code := systemHandler(context.Background(), wire.NewTable(), wire.NewTable())
	require.Less(t, code, 0)
}

func TestSystemHandlerPipesStdinLines(t *testing.T) {
	args := wire.NewTable().
		Set("cmd", []any{"/bin/cat"}).
		Set("stdin", []any{"line one", "line two"})
	out := wire.NewTable()

	code := systemHandler(context.Background(), args, out)
	require.Equal(t, wire.DataReply, code)

	stdout, ok := out.GetString("stdout")
	require.True(t, ok)
	require.Equal(t, "line one\nline two", stdout)
}

func TestSystemHandlerReportsExecFailure(t *testing.T) {
	args := wire.NewTable().Set("cmd", []any{"/no/such/binary"})
	code := systemHandler(context.Background(), args, wire.NewTable())
	require.Less(t, code, 0)
}
