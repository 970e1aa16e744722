package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/hotmart"
	"github.com/vitrine-labs/crmsync/internal/syncer"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions

	// Fetcher allows overriding the upstream fetcher (for testing).
	// If nil, a hotmart.Client is built from config credentials.
	Fetcher syncer.SalesFetcher
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new sales from the payments platform",
		Long: `Fetch sales from the payments platform into the local sale log.

With an empty sale log this performs the initial sync over the window
configured by HOTMART_START_DATE and HOTMART_END_DATE, chunked to the
API's maximum span. Otherwise it fetches incrementally from the latest
observed purchase date up to yesterday.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	cfg, st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := hotmart.NewClient(cfg.HotmartClientID, cfg.HotmartClientSecret)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build payments API client", err)
		}
		fetcher = client
	}

	s := syncer.New(st, fetcher, cfg)
	if err := s.Run(cmd.Context()); err != nil {
		if errors.Is(err, syncer.ErrMissingDates) {
			return WrapExitError(ExitCommandError, "sync not configured", err)
		}
		return WrapExitError(ExitFailure, "sync failed", err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success("sync finished")
}
