package commands

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/blogic/udrone/pkg/wire"
)

// GetSendCommand issues one registered command against an already-assigned
// agent. data, if given, is a JSON object literal decoded into the request's
// data table — the same convention the teacher's set command used for
// typed register values, generalized from a single scalar to a full object.
func GetSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <drone-id> <seq> <type> [json-data]",
		Short: "send one command to an assigned agent",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  runSend,
	}
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	timeout, _ := cmd.Flags().GetDuration("timeout")

	var seq uint32
	if _, err := fmt.Sscanf(args[1], "%d", &seq); err != nil {
		return fmt.Errorf("invalid seq %q: %w", args[1], err)
	}

	msg := &wire.Message{To: args[0], Seq: seq, Type: args[2]}
	if len(args) == 4 {
		data := wire.NewTable()
		if err := json.Unmarshal([]byte(args[3]), data); err != nil {
			return fmt.Errorf("invalid json data: %w", err)
		}
		msg.Data = data
	}

	reply, err := s.request(cmd.Context(), msg, timeout)
	if err != nil {
		return err
	}

	switch reply.Type {
	case "accept":
		fmt.Printf("accepted by %s, waiting for result...\n", reply.From)
		result, err := s.await(cmd.Context(), msg.Seq, timeout)
		if err != nil {
			return err
		}
		printResult(result)
	default:
		printResult(reply)
	}
	return nil
}

func printResult(reply *wire.Message) {
	if reply.Type == "status" {
		printStatus(reply)
		return
	}
	out, _ := reply.Data.MarshalJSON()
	fmt.Printf("%s from %s: %s\n", reply.Type, reply.From, out)
}
