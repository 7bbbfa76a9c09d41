package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/jiraclient/internal/config"
)

// newConfigCmd creates the config command group
func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the CLI configuration",
	}
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigCreateCmd(opts))
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the loaded configuration with secrets masked",
		Long: `Print the configuration after the config file, .env file and environment
overrides have been applied. Tokens and secrets are masked.

Example:
  jira config show -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil {
				return fmt.Errorf("no configuration loaded")
			}
			return printResult(cmd, opts, opts.cfg.Masked())
		},
	}
}

func newConfigCreateCmd(opts *rootOptions) *cobra.Command {
	var c config.ConfigParam
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new configuration file",
		Long: `Create a configuration file. Without --config the file is written to the
default location in the user configuration directory.

Examples:
  jira config create --host https://example.atlassian.net --auth-type basic --email me@example.com --api-token <token>
  jira config create --host https://jira.example.com --token <personal access token>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.FormatVersion = config.ConfigFormatVersion
			if err := config.ValidateConfig(&c); err != nil {
				return err
			}
			if _, err := c.NewClient(); err != nil {
				return err
			}

			path := opts.configFile
			if path == "" {
				var err error
				path, err = config.GetDefaultConfigPath()
				if err != nil {
					return err
				}
			}
			if err := c.WriteConfig(path); err != nil {
				return err
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Host, "host", "", "Jira base URL, e.g. https://example.atlassian.net")
	cmd.Flags().StringVar(&c.Timeout, "timeout", "", "Per-request timeout, e.g. 30s")
	cmd.Flags().StringVar(&c.Auth.Type, "auth-type", "", "Authentication type: bearer, basic, jwt or oauth")
	cmd.Flags().StringVar(&c.Auth.Token, "token", "", "Bearer token or personal access token")
	cmd.Flags().StringVar(&c.Auth.Email, "email", "", "Account email for basic authentication")
	cmd.Flags().StringVar(&c.Auth.APIToken, "api-token", "", "API token for basic authentication")
	cmd.Flags().StringVar(&c.Auth.ClientID, "client-id", "", "OAuth client id")
	cmd.Flags().StringVar(&c.Auth.ClientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&c.Auth.TokenURL, "token-url", "", "OAuth token endpoint")
	cmd.Flags().StringSliceVar(&c.Auth.Scopes, "scope", nil, "OAuth scope, repeatable")
	cmd.Flags().StringVar(&c.Auth.Issuer, "issuer", "", "JWT issuer (app key)")
	cmd.Flags().StringVar(&c.Auth.SharedSecret, "shared-secret", "", "JWT shared secret")
	cmd.MarkFlagRequired("host")
	return cmd
}
