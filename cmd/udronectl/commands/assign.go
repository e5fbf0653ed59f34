package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogic/udrone/pkg/wire"
)

// GetAssignCommand claims a drone for a named controller group and, when
// seq is given, sets the sequence floor the following commands count from.
// Without seq the agent keeps its current sequence counter.
func GetAssignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <drone-id> <group> [seq]",
		Short: "claim an agent for a controller group",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runAssign,
	}
	return cmd
}

func runAssign(cmd *cobra.Command, args []string) error {
	s, err := open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	timeout, _ := cmd.Flags().GetDuration("timeout")

	data := wire.NewTable().Set("group", args[1])
	if len(args) == 3 {
		var seq uint32
		if _, err := fmt.Sscanf(args[2], "%d", &seq); err != nil {
			return fmt.Errorf("invalid seq %q: %w", args[2], err)
		}
		data.Set("seq", seq)
	}

	msg := &wire.Message{
		To:   args[0],
		Seq:  1,
		Type: "!assign",
		Data: data,
	}

	reply, err := s.request(cmd.Context(), msg, timeout)
	if err != nil {
		return err
	}
	printStatus(reply)
	return nil
}
