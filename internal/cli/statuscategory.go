package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/jiraclient/pkg/jira/version2"
	"golang.org/x/sync/errgroup"
)

// newStatusCategoryCmd creates the status-category command group
func newStatusCategoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status-category",
		Aliases: []string{"statuscategory", "sc"},
		Short:   "Read workflow status categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all status categories visible to the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			api := version2.New(client)
			categories, err := api.WorkflowStatusCategories.GetStatusCategories(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, opts, categories)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <idOrKey>...",
		Short: "Get status categories by id or key",
		Long: `Get one or more status categories by id or key. The categories are fetched
concurrently and printed in the order given.

Examples:
  jira status-category get done
  jira status-category get 1 2 indeterminate`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			api := version2.New(client)

			results := make([]*version2.StatusCategory, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, idOrKey := range args {
				g.Go(func() error {
					category, err := api.WorkflowStatusCategories.GetStatusCategory(ctx, version2.GetStatusCategory{IDOrKey: idOrKey})
					if err != nil {
						return fmt.Errorf("status category %q: %w", idOrKey, err)
					}
					results[i] = category
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if len(results) == 1 {
				return printResult(cmd, opts, results[0])
			}
			return printResult(cmd, opts, results)
		},
	})
	return cmd
}
