package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/akyaiy/rpcnode/internal/client"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|->",
	Short: "Send a batch of requests read from a file",
	Long: `
"batch" reads a JSON array of requests from a file, or from stdin when
the argument is "-", sends it as one batch and prints every response`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := compositor.CMDLine.Batch

		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		reqs, err := parseBatch(data)
		if err != nil {
			return err
		}

		b, err := client.New(newTransport(o.URL, o.Session)).SendBatch(context.Background(), reqs...)
		if err != nil {
			return err
		}
		for resp, err := range b.All() {
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
		}
		return nil
	},
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// parseBatch validates every item before anything is sent.
func parseBatch(data []byte) ([]rpc.Request, error) {
	v, err := rpc.Decode(data)
	if err != nil {
		return nil, rpc.NewParseError(err.Error())
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, rpc.NewInvalidRequest("a batch must be a non-empty JSON array")
	}
	reqs := make([]rpc.Request, 0, len(items))
	for i, item := range items {
		req, err := rpc.RequestFromDecoded(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
