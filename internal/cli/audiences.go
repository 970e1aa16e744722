package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/audience"
	"github.com/vitrine-labs/crmsync/internal/segment"
)

// AudiencesOptions holds flags for the audiences command.
type AudiencesOptions struct {
	*RootOptions
	Export bool
}

// NewAudiencesCommand creates the audiences command.
func NewAudiencesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AudiencesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audiences",
		Short: "Refresh the gold-layer audience tables",
		Long: `Aggregate completed sales into per-segment lifetime value and refresh
the audience tables. With --export the audiences are also written out as
CSV files under the configured output directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudiences(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "export audiences to CSV")

	return cmd
}

func runAudiences(opts *AudiencesOptions, cmd *cobra.Command) error {
	cfg, st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	refresher := audience.NewRefresher(st, segment.NewClassifier(cfg.AestheticProductIDs))
	ctx := cmd.Context()

	if _, err := refresher.Refresh(ctx); err != nil {
		return WrapExitError(ExitFailure, "audience refresh failed", err)
	}
	if err := refresher.WriteReport(ctx, cmd.OutOrStdout()); err != nil {
		return WrapExitError(ExitFailure, "audience report failed", err)
	}

	if opts.Export {
		outDir := filepath.Join(cfg.OutputDir, "publico")
		if err := refresher.ExportCSV(ctx, outDir); err != nil {
			return WrapExitError(ExitFailure, "audience export failed", err)
		}
	}

	return nil
}
