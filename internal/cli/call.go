package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/koustreak/biconnector/internal/connector"
	"github.com/koustreak/biconnector/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envelope is what call prints: the HTTP status the server would have
// answered with and the body.
type envelope struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

func newCallCmd(opts *rootOptions, rt runtime) *cobra.Command {
	var (
		action         string
		connectionType string
		body           string
		bodyFile       string
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Run one action in-process and print the JSON result",
		Example: `  biconnector call --action table_list --connection-type mysql \
    --body '{"connection":{"host":"db","database":"shop","username":"ro","password":"x"}}'
  echo '{"connection":{...},"table":"orders"}' | biconnector call --action data --connection-type postgresql --body-file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readCallBody(body, bodyFile, rt.stdin)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), opts, rt, func(a *app) error {
				var resp connector.Response
				params, err := server.ParseRequest(action, connectionType, data)
				if err != nil {
					resp = connector.Response{Status: http.StatusBadRequest, Body: connector.ErrorBody{Error: err.Error()}}
				} else {
					resp = a.svc.Dispatch(cmd.Context(), action, params)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(envelope{Status: resp.Status, Body: resp.Body}); err != nil {
					return err
				}
				if resp.Status >= http.StatusBadRequest {
					return fmt.Errorf("%s answered %d", action, resp.Status)
				}
				return nil
			})
		},
	}

	fs := cmd.Flags()
	addRequestFlags(fs, &action, &connectionType)
	fs.StringVar(&body, "body", "", "JSON request body")
	fs.StringVar(&bodyFile, "body-file", "", "read the JSON request body from a file, - for stdin")
	_ = cmd.MarkFlagRequired("action")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}

// addRequestFlags registers the two values the server reads from the
// query string.
func addRequestFlags(fs *pflag.FlagSet, action, connectionType *string) {
	fs.StringVar(action, "action", "", "check, table_list, table_description or data")
	fs.StringVarP(connectionType, "connection-type", "t", "", "mysql or postgresql")
}

func readCallBody(body, bodyFile string, stdin io.Reader) ([]byte, error) {
	switch bodyFile {
	case "":
		return []byte(body), nil
	case "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	default:
		data, err := os.ReadFile(bodyFile) //nolint:gosec // path is from a CLI flag
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		return data, nil
	}
}
