package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/consolidate"
	"github.com/vitrine-labs/crmsync/internal/segment"
)

// NewConsolidateCommand creates the consolidate command.
func NewConsolidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Rebuild the master customer table from the raw logs",
		Long: `Consolidate the raw payments and chat logs into the master table.

The payments pass runs first (source of truth), then chat contacts with
a whatsapp value supplement what they can. Re-running against unchanged
raw logs is a no-op.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runConsolidate(opts *RootOptions, cmd *cobra.Command) error {
	cfg, st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	engine := consolidate.New(st, segment.NewClassifier(cfg.AestheticProductIDs))
	stats, err := engine.Consolidate(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "consolidation failed", err)
	}

	formatter := newFormatter(opts, cmd.OutOrStdout())
	if formatter.Format == "json" {
		return formatter.Success(stats)
	}
	return formatter.Success(fmt.Sprintf(
		"consolidated %d payments records and %d contacts (%d created, %d updated, %d skipped)",
		stats.HotmartProcessed, stats.ContactsProcessed,
		stats.Created, stats.Updated,
		stats.HotmartSkipped+stats.ContactsSkipped))
}
