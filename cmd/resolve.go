package cmd

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/encodenode/internal/config"
	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/resolver"
	"github.com/smazurov/encodenode/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// resolvedConfig is the printed form of a resolved configuration.
type resolvedConfig struct {
	Variant     string                `toml:"variant" yaml:"variant"`
	Adjustments []resolver.Adjustment `toml:"adjustments,omitempty" yaml:"adjustments,omitempty"`
	Params      types.Params          `toml:"params" yaml:"params"`
}

func newResolveCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve [--format toml|yaml] -- <codec-id> [options]",
		Short: "Resolve and validate encoder options without encoding",
		Long: `Parses the encoder switches, applies every validation and defaulting rule ` +
			`and prints the resulting configuration together with the selected pipeline variant.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(cmd)
			if err != nil {
				return err
			}
			reg := options.NewRegistry(s.Capabilities())

			cfg, err := resolver.Resolve(args, reg)
			if errors.Is(err, resolver.ErrHelpRequested) {
				writeUsage(cmd.OutOrStdout(), reg)
				return nil
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return &ExitError{Code: 1}
			}

			out := resolvedConfig{
				Variant:     pipeline.Select(cfg).String(),
				Adjustments: cfg.Adjustments(),
				Params:      cfg.Params(),
			}
			data, err := marshalResolved(format, out)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format (toml, yaml)")
	cmd.Flags().String("config", config.DefaultConfigPath, "Path to configuration file")
	return cmd
}

func marshalResolved(format string, out resolvedConfig) ([]byte, error) {
	switch format {
	case "toml":
		return toml.Marshal(out)
	case "yaml":
		return yaml.Marshal(out)
	default:
		return nil, fmt.Errorf("unknown format %q, expected toml or yaml", format)
	}
}
