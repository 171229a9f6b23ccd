package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

var defaultConfigFormat string

var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "Print the built-in twin configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch defaultConfigFormat {
		case "json":
			return writeJSON(out, state.Default())
		case "yaml":
			data, err := json.Marshal(state.Default())
			if err != nil {
				return fmt.Errorf("marshal default: %w", err)
			}
			var doc any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("convert default: %w", err)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		}
		return fmt.Errorf("unknown format %q (want json or yaml)", defaultConfigFormat)
	},
}

func init() {
	defaultConfigCmd.Flags().StringVar(&defaultConfigFormat, "format", "json", "json or yaml")
	rootCmd.AddCommand(defaultConfigCmd)
}
