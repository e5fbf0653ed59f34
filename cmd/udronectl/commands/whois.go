package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogic/udrone/pkg/session"
	"github.com/blogic/udrone/pkg/wire"
)

const defaultTimeout = 2 * time.Second

// GetWhoisCommand discovers agents currently in the DEFAULT state, like the
// teacher's list command discovering registers: it broadcasts and prints
// every reply received within the timeout window rather than stopping at
// the first one.
func GetWhoisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whois [board]",
		Short: "discover unassigned agents, optionally filtered by board tag",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWhois,
	}
	return cmd
}

func runWhois(cmd *cobra.Command, args []string) error {
	s, err := open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	timeout, _ := cmd.Flags().GetDuration("timeout")

	msg := &wire.Message{To: session.GroupDefault, Seq: 1, Type: "!whois"}
	if len(args) > 0 {
		msg.Data = wire.NewTable().Set("__scalar__", args[0])
	}

	found := 0
	err = s.collect(cmd.Context(), msg, timeout, func(reply *wire.Message) {
		found++
		board, _ := reply.Data.GetString("board")
		fmt.Printf("%s: board=%s\n", reply.From, board)
	})
	if err != nil {
		return err
	}
	if found == 0 {
		cmd.Println("no agents responded")
	}
	return nil
}
