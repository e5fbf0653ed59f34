// Package config resolves the agent's runtime configuration from CLI
// flags and environment variables, generalizing the teacher's
// GetEnvironment (cmd/surp/commands/env.go) — which read two required
// SURP_IF/SURP_GROUP env vars directly off os.Getenv — into a layered
// spf13/viper binding so the same values can come from a flag or an env
// var, in that precedence order. No config file is read.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// defaultBoard is the board tag an agent answers to in !whois when neither a
// positional arg, --board flag, nor UDRONE_BOARD env var sets one.
const defaultBoard = "generic"

// Config is the resolved set of values the agent needs to start.
type Config struct {
	Interface   string
	Board       string
	LogLevel    string
	MetricsAddr string
	NATSURL     string
	ConfigStore string
}

// BindFlags registers the agent's flags on cmd and binds them, in
// descending precedence, to UDRONE_-prefixed environment variables and
// viper's own defaults — mirroring the teacher's SURP_IF/SURP_GROUP
// naming convention for the two values that were previously mandatory env
// vars, while making everything else optional. Dashes in flag names become
// underscores in the env var name (log-level is UDRONE_LOG_LEVEL).
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.String("interface", "", "network interface to bind the control-plane socket to (required)")
	flags.String("board", "", "board/hardware tag this agent answers to in !whois")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	flags.String("nats-url", defaultNATSURL, "NATS server URL used by the rpc command")
	flags.String("config-store", "/etc/udrone/udrone.toml", "path to the cfg_get/cfg_set backing TOML file")

	v.SetEnvPrefix("UDRONE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindPFlag("interface", flags.Lookup("interface"))
	_ = v.BindPFlag("board", flags.Lookup("board"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = v.BindPFlag("metrics-addr", flags.Lookup("metrics-addr"))
	_ = v.BindPFlag("nats-url", flags.Lookup("nats-url"))
	_ = v.BindPFlag("config-store", flags.Lookup("config-store"))
}

// Resolve reads back the bound values from v, supporting <interface>
// [<board>] positional args as the primary form: a positional arg, when
// given, overrides the --interface/--board flag or env value.
func Resolve(v *viper.Viper, args []string) (*Config, error) {
	cfg := &Config{
		Interface:   v.GetString("interface"),
		Board:       v.GetString("board"),
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: v.GetString("metrics-addr"),
		NATSURL:     v.GetString("nats-url"),
		ConfigStore: v.GetString("config-store"),
	}

	if len(args) > 0 {
		cfg.Interface = args[0]
	}
	if len(args) > 1 {
		cfg.Board = args[1]
	}

	if cfg.Interface == "" {
		return nil, fmt.Errorf("config: interface is required (positional arg, --interface flag, or UDRONE_INTERFACE)")
	}
	if cfg.Board == "" {
		cfg.Board = defaultBoard
	}

	return cfg, nil
}
