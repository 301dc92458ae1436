package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"tasktracker/internal/config"
)

var errResetNotConfirmed = errors.New("refusing to delete every task without --yes")

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved task list",
		Long:  "reset removes the persisted snapshot from the configured backend. The next run starts with no tasks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg, opts.verbose)

			blob, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
			}
			delErr := blob.Delete(cmd.Context(), cfg.Storage.Key)
			if err := errors.Join(delErr, blob.Close()); err != nil {
				return err
			}
			logger.Info("task snapshot removed", slog.String("key", cfg.Storage.Key))
			fmt.Fprintln(cmd.OutOrStdout(), "All tasks deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting every task")
	return cmd
}
