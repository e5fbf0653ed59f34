package commands

import (
	"github.com/spf13/cobra"

	"github.com/blogic/udrone/pkg/wire"
)

// GetResetCommand releases a drone's assignment unconditionally, returning
// it to DEFAULT so another controller can claim it.
func GetResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <drone-id>",
		Short: "release an agent's current assignment",
		Args:  cobra.ExactArgs(1),
		RunE:  runReset,
	}
	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	s, err := open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	timeout, _ := cmd.Flags().GetDuration("timeout")

	msg := &wire.Message{To: args[0], Seq: 1, Type: "!reset"}
	reply, err := s.request(cmd.Context(), msg, timeout)
	if err != nil {
		return err
	}
	printStatus(reply)
	return nil
}
