package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestCmd() (*cobra.Command, *viper.Viper) {
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()
	BindFlags(cmd, v)
	return cmd, v
}

func TestResolveRequiresInterface(t *testing.T) {
	_, v := newTestCmd()
	_, err := Resolve(v, nil)
	require.Error(t, err)
}

func TestResolvePositionalArgsOverrideFlags(t *testing.T) {
	cmd, v := newTestCmd()
	require.NoError(t, cmd.Flags().Set("interface", "wlan0"))
	require.NoError(t, cmd.Flags().Set("board", "flag-board"))
	cfg, err := Resolve(v, []string{"eth0", "gl-ar300m"})
	require.NoError(t, err)
	require.Equal(t, "eth0", cfg.Interface)
	require.Equal(t, "gl-ar300m", cfg.Board)
}

func TestResolveDefaultsBoardToGeneric(t *testing.T) {
	_, v := newTestCmd()
	cfg, err := Resolve(v, []string{"eth0"})
	require.NoError(t, err)
	require.Equal(t, "generic", cfg.Board)
}

func TestResolveDefaultsNATSURL(t *testing.T) {
	_, v := newTestCmd()
	cfg, err := Resolve(v, []string{"eth0"})
	require.NoError(t, err)
	require.Equal(t, defaultNATSURL, cfg.NATSURL)
}
