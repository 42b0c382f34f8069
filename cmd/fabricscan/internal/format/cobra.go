package format

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// FromCommand builds a Formatter from the command's writers and the --output, --quiet and
// --no-color flags.
func FromCommand(cmd *cobra.Command) Formatter {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	mode := ModeTable
	if fl := cmd.Flags().Lookup("output"); fl != nil {
		mode = ParseMode(fl.Value.String())
	}
	return New(stdout, stderr, mode, boolFlag(cmd, "quiet"), !boolFlag(cmd, "no-color"))
}

func boolFlag(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	if fl == nil {
		return false
	}
	v, err := strconv.ParseBool(fl.Value.String())
	return err == nil && v
}
