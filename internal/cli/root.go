package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCmd builds the tasktracker command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tasktracker",
		Short: "Personal task tracker for chat mini-apps",
		Long: `tasktracker keeps a single user's task list in a local key-value blob.

Run "tasktracker serve" to expose the mini-app API, or manage tasks directly
from the terminal with the add, list, edit, toggle and rm commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newToggleCmd(opts),
		newRemoveCmd(opts),
		newStatsCmd(opts),
		newResetCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
