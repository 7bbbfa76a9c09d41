package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tansive/jiraclient/internal/common/apperrors"
	"github.com/tansive/jiraclient/internal/common/logtrace"
	"github.com/tansive/jiraclient/internal/config"
	"github.com/tansive/jiraclient/pkg/jira"
)

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)

// rootOptions carries the global flags and the state shared by subcommands.
type rootOptions struct {
	configFile string
	output     string
	filter     string
	logLevel   string

	cfg *config.ConfigParam
	// extra client options, used by tests to swap the transport
	clientOpts []jira.ClientOption
}

// newRootCmd builds the command tree.
func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jira [command] [flags]",
		Short: "Jira CLI - A command line interface for the Jira REST API",
		Long: `Jira CLI is a command line interface for the Jira REST API.
It reads the host and credentials from a configuration file, the environment
or a .env file, and prints responses as JSON or YAML.

Examples:
  # List all status categories
  jira status-category list

  # Get status categories by id or key
  jira status-category get 2 done

  # Send an arbitrary request
  jira request POST /rest/api/2/issue --set fields.summary=Hello --set fields.project.key=DEV

  # Show the loaded configuration with secrets masked
  jira config show -o yaml`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return preRunHandlePersistents(cmd, opts)
		},
		SilenceErrors: true, // Prevent Cobra from printing the error
		SilenceUsage:  true, // Prevent Cobra from printing usage on error
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// Set up persistent flags
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	rootCmd.PersistentFlags().StringVarP(&opts.filter, "filter", "f", "", "GJSON path applied to the result before printing")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "", "", "Log level (overrides log_level from the config file)")

	// Add commands
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newStatusCategoryCmd(opts))
	rootCmd.AddCommand(newRequestCmd(opts))
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(&rootOptions{}).ExecuteContext(ctx)
	if err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// printError prints err, followed by any attached causes not already part of
// its message.
func printError(w io.Writer, err error) {
	msg := err.Error()
	var appErr apperrors.Error
	if errors.As(err, &appErr) {
		for _, c := range appErr.Causes() {
			if !strings.Contains(msg, c.Error()) {
				msg += ": " + c.Error()
			}
		}
	}
	errorLabel.Fprintf(w, "Error: %s\n", msg)
}

// preRunHandlePersistents validates the global flags, loads the configuration
// and sets up logging before a command runs.
func preRunHandlePersistents(cmd *cobra.Command, opts *rootOptions) error {
	switch opts.output {
	case outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	skipConfig := false
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "version" || c.Name() == "create" {
			skipConfig = true
			break
		}
	}

	level := opts.logLevel
	if !skipConfig {
		c, err := config.Load(opts.configFile)
		if err != nil {
			return fmt.Errorf("unable to load configuration: %w", err)
		}
		opts.cfg = c
		if level == "" {
			level = c.LogLevel
		}
	}
	if level == "" {
		level = "warn"
	}
	return logtrace.InitLoggerTo(cmd.ErrOrStderr(), level)
}

// newClient builds a client from the loaded configuration.
func (opts *rootOptions) newClient() (*jira.Client, error) {
	if opts.cfg == nil {
		return nil, errors.New("no configuration loaded")
	}
	return opts.cfg.NewClient(opts.clientOpts...)
}

// newVersionCmd creates and returns a new version command
func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the jira CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.GetDefaultConfigPath()
			if err != nil {
				configPath = "unknown"
			}
			return printResult(cmd, opts, map[string]string{
				"version":     getCLIVersion(),
				"config_file": configPath,
			})
		},
	}
}

// getCLIVersion returns the current CLI version
func getCLIVersion() string {
	return "v0.1.0"
}
