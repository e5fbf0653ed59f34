// Command udrone is the agent binary: it joins the control-plane multicast
// group on one interface, answers !whois/!assign/!reset, and dispatches
// commands through the registered handlers until its context is cancelled by
// a signal. Structured the way the teacher's cmd/surp/main.go builds a
// single cobra.Command and hands off to RunE, generalized from surp's
// required SURP_IF/SURP_GROUP env vars to pkg/config's layered flag/env/file
// resolution.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blogic/udrone/pkg/agentmetrics"
	"github.com/blogic/udrone/pkg/config"
	"github.com/blogic/udrone/pkg/dispatcher"
	"github.com/blogic/udrone/pkg/handlers"
	"github.com/blogic/udrone/pkg/identity"
	"github.com/blogic/udrone/pkg/logging"
	"github.com/blogic/udrone/pkg/netio"
	"github.com/blogic/udrone/pkg/registry"
)

// version is overwritten at build time via -ldflags, the same pattern the
// teacher's commands/version.go uses for its Version var.
var version = "local-build"

func main() {
	v := viper.New()

	root := &cobra.Command{
		Use:   "udrone <interface> [board]",
		Short: "udrone answers remote commands over the IPv4 multicast control plane",
		Long: `udrone joins the 239.6.6.6:21337 multicast group on the given network
interface and answers discovery, assignment, and command frames from a
controller, one session at a time.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE:         run(v),
	}
	root.Flags().Bool("gops", false, "listen via github.com/google/gops/agent (for debugging)")
	config.BindFlags(root, v)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(v *viper.Viper) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(v, args)
		if err != nil {
			return err
		}

		log, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}

		if useGops, _ := cmd.Flags().GetBool("gops"); useGops {
			if err := agent.Listen(agent.Options{}); err != nil {
				log.WithError(err).Warn("gops agent failed to start")
			}
		}

		selfID, err := identity.DeriveID(cfg.Interface)
		if err != nil {
			log.WithError(err).Warn("could not derive a unique ID from the interface's hardware address, falling back to the zero string")
			selfID = ""
		}

		iface, err := identity.Interface(cfg.Interface)
		if err != nil {
			return fmt.Errorf("udrone: %w", err)
		}

		sock, err := netio.Open(iface)
		if err != nil {
			return fmt.Errorf("udrone: open multicast socket: %w", err)
		}
		defer sock.Close()

		reg, closeStore, err := buildRegistry(cfg, log)
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer closeStore()
		}

		d := dispatcher.New(selfID, cfg.Board, sock, reg, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.MetricsAddr != "" {
			m := agentmetrics.New()
			d.SetMetrics(m)
			go func() {
				if err := agentmetrics.Serve(ctx, cfg.MetricsAddr, m); err != nil {
					log.WithError(err).Warn("metrics server stopped")
				}
			}()
		}

		log.WithFields(logrus.Fields{
			"interface": cfg.Interface,
			"board":     cfg.Board,
			"self":      selfID,
		}).Info("udrone starting")

		err = d.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// buildRegistry registers every built-in command handler in a fixed order,
// deliberately not relying on package init() registration so the set of
// active commands is visible in one place. The returned func closes the
// cfg_get/cfg_set config store's file watcher; callers should defer it.
func buildRegistry(cfg *config.Config, log logrus.FieldLogger) (*registry.Registry, func(), error) {
	reg := registry.New()

	if err := reg.Register(handlers.Sysinfo()); err != nil {
		return nil, nil, fmt.Errorf("udrone: register sysinfo: %w", err)
	}
	if err := reg.Register(handlers.System()); err != nil {
		return nil, nil, fmt.Errorf("udrone: register system: %w", err)
	}
	if err := reg.Register(handlers.Comment(log)); err != nil {
		return nil, nil, fmt.Errorf("udrone: register comment: %w", err)
	}

	store, err := handlers.OpenStore(cfg.ConfigStore, log)
	if err != nil {
		return nil, nil, fmt.Errorf("udrone: open config store: %w", err)
	}
	if err := reg.Register(handlers.CfgGet(store)); err != nil {
		return nil, nil, fmt.Errorf("udrone: register cfg_get: %w", err)
	}
	if err := reg.Register(handlers.CfgSet(store)); err != nil {
		return nil, nil, fmt.Errorf("udrone: register cfg_set: %w", err)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.WithError(err).Warn("nats unavailable, rpc command will always fail")
	} else if err := reg.Register(handlers.RPC(nc)); err != nil {
		return nil, nil, fmt.Errorf("udrone: register rpc: %w", err)
	}

	return reg, func() {
		store.Close()
		if nc != nil {
			nc.Close()
		}
	}, nil
}
