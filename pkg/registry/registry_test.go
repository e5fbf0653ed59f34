package registry

import (
	"context"
	"testing"

	"github.com/blogic/udrone/pkg/wire"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, args *wire.Table, out *wire.Table) int {
	if v, ok := args.Get("x"); ok {
		out.Set("x", v)
	}
	return wire.DataReply
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Descriptor{Type: "sysinfo", Atomicity: Atomic, Handler: echoHandler}))

	d, ok := r.Lookup("sysinfo")
	require.True(t, ok)
	require.Equal(t, Atomic, d.Atomicity)

	out := wire.NewTable()
	rc := d.Handler(context.Background(), wire.NewTable().Set("x", "y"), out)
	require.Equal(t, wire.DataReply, rc)
	v, _ := out.GetString("x")
	require.Equal(t, "y", v)
}

func TestRegisterRejectsControlPrimitives(t *testing.T) {
	r := New()
	err := r.Register(Descriptor{Type: "!whois", Handler: echoHandler})
	require.Error(t, err)
}

func TestRegisterRejectsNilHandler(t *testing.T) {
	r := New()
	err := r.Register(Descriptor{Type: "system"})
	require.Error(t, err)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Descriptor{Type: "system", Handler: echoHandler}))
	err := r.Register(Descriptor{Type: "system", Handler: echoHandler})
	require.Error(t, err)
}

func TestLookupMiss(t *testing.T) {
	r := New()
	_, ok := r.Lookup("nope")
	require.False(t, ok)
}
