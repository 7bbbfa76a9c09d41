package cli

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printResult writes v to the command's output in the selected format, after
// applying the --filter path if one was given.
func printResult(cmd *cobra.Command, opts *rootOptions, v any) error {
	if opts.filter != "" {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		res := gjson.GetBytes(raw, opts.filter)
		if !res.Exists() {
			return fmt.Errorf("filter %q matched nothing", opts.filter)
		}
		v = res.Value()
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if opts.output == outputYAML {
		out, err = yaml.JSONToYAML(out)
		if err != nil {
			return fmt.Errorf("failed to format YAML output: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
