package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/audience"
	"github.com/vitrine-labs/crmsync/internal/consolidate"
	"github.com/vitrine-labs/crmsync/internal/hotmart"
	"github.com/vitrine-labs/crmsync/internal/manychat"
	"github.com/vitrine-labs/crmsync/internal/remarketing"
	"github.com/vitrine-labs/crmsync/internal/segment"
	"github.com/vitrine-labs/crmsync/internal/syncer"
)

// JobOptions holds flags for the job command.
type JobOptions struct {
	*RootOptions
	InputDir string

	// Fetcher allows overriding the upstream fetcher (for testing).
	Fetcher syncer.SalesFetcher
}

// NewJobCommand creates the job command: the full daily batch in order.
// When each step runs (wall clock) is the scheduler's concern, not ours.
func NewJobCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "job",
		Short: "Run the full daily batch",
		Long: `Run the daily pipeline end to end: sync sales, import contact
exports from the input directory, consolidate the master table, refresh
and export audiences, and generate a remarketing batch.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "contact CSV input directory (defaults from config)")

	return cmd
}

func runJob(opts *JobOptions, cmd *cobra.Command) error {
	cfg, st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	classifier := segment.NewClassifier(cfg.AestheticProductIDs)

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := hotmart.NewClient(cfg.HotmartClientID, cfg.HotmartClientSecret)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build payments API client", err)
		}
		fetcher = client
	}
	if err := syncer.New(st, fetcher, cfg).Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "sales sync failed", err)
	}

	inputDir := opts.InputDir
	if inputDir == "" {
		inputDir = cfg.ContactInputDir
	}
	if _, err := manychat.NewImporter(st).ImportDir(ctx, inputDir); err != nil {
		return WrapExitError(ExitFailure, "contact import failed", err)
	}

	if _, err := consolidate.New(st, classifier).Consolidate(ctx); err != nil {
		return WrapExitError(ExitFailure, "consolidation failed", err)
	}

	refresher := audience.NewRefresher(st, classifier)
	if _, err := refresher.Refresh(ctx); err != nil {
		return WrapExitError(ExitFailure, "audience refresh failed", err)
	}
	if err := refresher.WriteReport(ctx, out); err != nil {
		return WrapExitError(ExitFailure, "audience report failed", err)
	}
	if err := refresher.ExportCSV(ctx, filepath.Join(cfg.OutputDir, "publico")); err != nil {
		return WrapExitError(ExitFailure, "audience export failed", err)
	}

	gen := remarketing.NewGenerator(st, cfg.RemarketingLimit, cfg.RemarketingCooldown)
	if _, err := gen.GenerateBatch(ctx, filepath.Join(cfg.OutputDir, "remarketing")); err != nil {
		return WrapExitError(ExitFailure, "remarketing batch failed", err)
	}
	if err := gen.WriteReport(ctx, out); err != nil {
		return WrapExitError(ExitFailure, "remarketing report failed", err)
	}

	return nil
}
