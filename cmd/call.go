package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/akyaiy/rpcnode/internal/client"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [params]",
	Short: "Call a procedure on a node",
	Long: `
"call" sends one request and prints the response. params is a JSON
object or array, for example: node call math.subtract '[42, 23]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := compositor.CMDLine.Call

		var params any
		if len(args) == 2 {
			params = json.RawMessage(args[1])
		}
		id := rpc.NoID()
		if !o.Notify {
			id = parseID(o.ID)
		}
		req, err := rpc.NewRequest(args[0], params, id)
		if err != nil {
			return err
		}

		resp, err := client.New(newTransport(o.URL, o.Session)).Send(context.Background(), req)
		if err != nil {
			return err
		}
		if resp == nil {
			return nil
		}
		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if resp.IsError() {
			os.Exit(2)
		}
		return nil
	},
}

func parseID(s string) rpc.ID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return rpc.IntID(n)
	}
	return rpc.StringID(s)
}

func newTransport(url, sessionID string) *client.HTTPTransport {
	t := client.NewHTTPTransport(url)
	if sessionID != "" {
		t.SessionID = sessionID
	}
	return t
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	rootCmd.AddCommand(callCmd)
}
