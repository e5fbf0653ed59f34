package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	m := &Message{To: "*", From: "aabbccddeeff", Seq: 3, Type: "sysinfo"}
	m.Data = NewTable().Set("arg", "x")

	payload, err := m.Encode()
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, m.To, decoded.To)
	require.Equal(t, m.From, decoded.From)
	require.Equal(t, m.Seq, decoded.Seq)
	require.Equal(t, m.Type, decoded.Type)

	arg, ok := decoded.Data.GetString("arg")
	require.True(t, ok)
	require.Equal(t, "x", arg)
}

func TestMessageDecodeRejectsShortDatagram(t *testing.T) {
	_, err := Decode([]byte(`{"a":1}`))
	require.Error(t, err)
}

func TestMessageDecodeRejectsOversizedDatagram(t *testing.T) {
	huge := strings.Repeat("x", MaxDatagramSize+1)
	_, err := Decode([]byte(huge))
	require.Error(t, err)
}

func TestMessageDecodeRejectsNonObjectFraming(t *testing.T) {
	padded := "not-a-table-at-all-but-long-enough-to-pass-size-check"
	_, err := Decode([]byte(padded))
	require.Error(t, err)
}

func TestMessageDecodeRejectsMissingMandatoryFields(t *testing.T) {
	_, err := Decode([]byte(`{"to":"*","from":"x"}` + strings.Repeat(" ", 16)))
	require.Error(t, err)
}

func TestMessageDecodeWrapsScalarData(t *testing.T) {
	m := &Message{To: "*", From: "x", Seq: 1, Type: "!whois"}
	payload, err := m.Encode()
	require.NoError(t, err)

	// !whois carries a bare string board filter rather than a table.
	payload = []byte(strings.Replace(string(payload), "}", `,"data":"gl-ar300m"}`, 1))

	decoded, err := Decode(payload)
	require.NoError(t, err)
	board, ok := decoded.DataString()
	require.True(t, ok)
	require.Equal(t, "gl-ar300m", board)
}

func TestReplyAddressesBackToSender(t *testing.T) {
	in := &Message{To: "self-id", From: "controller", Seq: 42, Type: "!assign"}
	out := Reply(in, "self-id", "status")

	require.Equal(t, "controller", out.To)
	require.Equal(t, "self-id", out.From)
	require.Equal(t, uint32(42), out.Seq)
	require.Equal(t, "status", out.Type)
}
