package commands

import "github.com/spf13/cobra"

// GetRootCommand builds udronectl's root command and wires in every verb.
func GetRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "udronectl",
		Short: "udronectl drives udrone agents over the multicast control plane",
		Long: `udronectl is a command line tool for discovering, claiming, and
commanding udrone agents over the 239.6.6.6:21337 multicast control plane.

It requires a --interface naming the network device to join the group on.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("interface", "i", "", "network interface to bind to (required)")
	cmd.PersistentFlags().DurationP("timeout", "t", defaultTimeout, "how long to wait for replies")

	cmd.AddCommand(
		GetWhoisCommand(),
		GetAssignCommand(),
		GetResetCommand(),
		GetSendCommand(),
		GetVersionCommand(),
	)

	return cmd
}
