package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tansive/jiraclient/pkg/jira"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// newRequestCmd creates the request command, a passthrough for endpoints that
// have no typed method.
func newRequestCmd(opts *rootOptions) *cobra.Command {
	var (
		sets    []string
		queries []string
		data    string
	)
	cmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Send an authenticated request to any REST endpoint",
		Long: `Send an authenticated request to a path relative to the configured host.
The JSON body can be given with --data or assembled from --set key=value pairs,
where key is a dotted path. Values that are valid JSON are inserted as such,
anything else is inserted as a string.

Examples:
  jira request GET /rest/api/2/myself
  jira request GET /rest/api/2/search --query jql="project = DEV" --query maxResults=10
  jira request POST /rest/api/2/issue --set fields.project.key=DEV --set fields.summary="New issue" --set fields.issuetype.id=10001`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildBody(data, sets)
			if err != nil {
				return err
			}
			query, err := buildQuery(queries)
			if err != nil {
				return err
			}

			client, err := opts.newClient()
			if err != nil {
				return err
			}
			d := jira.RequestDescriptor{
				Method:    strings.ToUpper(args[0]),
				Path:      args[1],
				Query:     query,
				Operation: "cli.request",
			}
			if body != "" {
				d.Body = []byte(body)
			}

			result, err := client.Send(cmd.Context(), d)
			if err != nil {
				return err
			}
			if result == nil {
				okLabel.Fprintln(cmd.ErrOrStderr(), "✓ No content")
				return nil
			}
			return printResult(cmd, opts, result)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a body field, key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "Add a query parameter, key=value (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Raw JSON request body")
	return cmd
}

func buildBody(data string, sets []string) (string, error) {
	body := data
	if body != "" && !gjson.Valid(body) {
		return "", fmt.Errorf("--data is not valid JSON")
	}
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return "", fmt.Errorf("invalid --set %q, expected key=value", s)
		}
		var err error
		if gjson.Valid(value) {
			body, err = sjson.SetRaw(body, key, value)
		} else {
			body, err = sjson.Set(body, key, value)
		}
		if err != nil {
			return "", fmt.Errorf("invalid --set %q: %w", s, err)
		}
	}
	return body, nil
}

func buildQuery(queries []string) (url.Values, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	q := url.Values{}
	for _, s := range queries {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --query %q, expected key=value", s)
		}
		q.Add(key, value)
	}
	return q, nil
}
