package identity

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveIDRejectsUnknownInterface(t *testing.T) {
	_, err := DeriveID("does-not-exist-0")
	require.Error(t, err)
}

func TestDeriveIDOnLoopback(t *testing.T) {
	ifaces, err := net.Interfaces()
	require.NoError(t, err)

	var loName string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			loName = iface.Name
			break
		}
	}
	if loName == "" {
		t.Skip("no loopback interface available")
	}

	// Loopback typically has no hardware address, exercising the error path
	// rather than a happy-path hex string — both are valid outcomes here,
	// so just assert DeriveID doesn't panic and returns a consistent result.
	id1, err1 := DeriveID(loName)
	id2, err2 := DeriveID(loName)
	require.Equal(t, err1 == nil, err2 == nil)
	if err1 == nil {
		require.Equal(t, id1, id2)
	}
}
