package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/remarketing"
)

// RemarketingOptions holds flags for the remarketing command.
type RemarketingOptions struct {
	*RootOptions
	Limit int
}

// NewRemarketingCommand creates the remarketing command.
func NewRemarketingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemarketingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remarketing",
		Short: "Generate a remarketing batch",
		Long: `Select master customers eligible for a remarketing touch (phone
present, no touch or purchase within the cooldown window), record them
in the history table and export the batch as CSV.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemarketing(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "batch size limit (defaults from config)")

	return cmd
}

func runRemarketing(opts *RemarketingOptions, cmd *cobra.Command) error {
	cfg, st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.RemarketingLimit
	}

	gen := remarketing.NewGenerator(st, limit, cfg.RemarketingCooldown)
	ctx := cmd.Context()

	outDir := filepath.Join(cfg.OutputDir, "remarketing")
	if _, err := gen.GenerateBatch(ctx, outDir); err != nil {
		return WrapExitError(ExitFailure, "remarketing batch failed", err)
	}
	if err := gen.WriteReport(ctx, cmd.OutOrStdout()); err != nil {
		return WrapExitError(ExitFailure, "remarketing report failed", err)
	}

	return nil
}
