package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/smazurov/encodenode/internal/config"
	"github.com/smazurov/encodenode/internal/types"
	"github.com/spf13/cobra"
)

func newCodecsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codecs",
		Short: "List codec identifiers",
		Long:  `Lists every codec identifier with whether it can be encoded under the configured capabilities.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Load(cmd)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODEC\tDESCRIPTION\tCAPABILITY\tENABLED")
			for _, info := range types.Codecs(s.Capabilities()) {
				capability := info.Capability
				if capability == "" {
					capability = "-"
				}
				enabled := "yes"
				switch {
				case !info.Encodable:
					enabled = "no (not encodable)"
				case !info.Enabled:
					enabled = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Codec, info.Description, capability, enabled)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("config", config.DefaultConfigPath, "Path to configuration file")
	return cmd
}
