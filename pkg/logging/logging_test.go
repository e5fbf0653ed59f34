package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New("not-a-level")
	require.Error(t, err)
}

func TestNewAcceptsEveryDocumentedLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		log, err := New(level)
		require.NoError(t, err)
		require.NotNil(t, log)
	}
}

func TestFrameLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	Frame(log, "recv", "ctrl", 42, "echo")

	out := buf.String()
	require.Contains(t, out, "dir=recv")
	require.Contains(t, out, "peer=ctrl")
	require.Contains(t, out, "seq=42")
	require.Contains(t, out, "type=echo")
}
