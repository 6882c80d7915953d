// Package cmd implements the encodenode command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smazurov/encodenode/internal/options"
	"github.com/spf13/cobra"
)

const programName = "encodenode"

// ExitError carries a process exit code out of a command. The command has
// already reported the failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd builds the command tree. The root command takes the encoder's
// own switches, so cobra flag parsing is disabled on it.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   programName + " <codec-id> [options] -i InputFile -o OutputFile -w width -h height",
		Short: "Supervised video encoder",
		Long: `Resolves encoder switches into a validated configuration, selects the pipeline ` +
			`variant and supervises the encode, recovering in place when the hardware device is lost.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE:               runEncode,
	}

	root.AddCommand(newResolveCmd(), newCodecsCmd(), newVersionCmd())
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		// Leading encoder switches: the whole line is an encode, even when a
		// later token names a subcommand.
		root.ResetCommands()
	}
	// cobra reads os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// writeUsage prints the encoder synopsis for reg.
func writeUsage(w io.Writer, reg *options.Registry) {
	if err := reg.WriteUsage(w, programName); err != nil {
		fmt.Fprintln(w, "failed to write usage:", err)
	}
}
