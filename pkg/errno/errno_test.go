package errno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextKnownCodes(t *testing.T) {
	require.Equal(t, "", Text(0))
	require.Equal(t, "worker busy", Text(EBUSY))
	require.Equal(t, "no such assignment", Text(ESRCH))
}

func TestTextUnknownCodeHasFallback(t *testing.T) {
	require.Equal(t, "unknown error", Text(999))
}
