package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "report",
		Short:         "Print database counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, cmd)
		},
	}

	return cmd
}

func runReport(opts *RootOptions, cmd *cobra.Command) error {
	_, st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	sum, err := st.Summarize(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "report failed", err)
	}

	if opts.Format == "json" {
		return newFormatter(opts, cmd.OutOrStdout()).Success(sum)
	}
	WriteSummary(cmd.OutOrStdout(), sum)
	return nil
}

// WriteSummary renders the database summary report.
func WriteSummary(w io.Writer, sum store.Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, "               DATABASE REPORT")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Raw payments customers:  %d\n", sum.RawCustomers)
	fmt.Fprintf(w, "Raw chat contacts:       %d\n", sum.RawContacts)
	fmt.Fprintf(w, "Sales:                   %d\n", sum.Sales)
	fmt.Fprintf(w, "Products:                %d\n", sum.Products)
	fmt.Fprintf(w, "Master customers:        %d\n", sum.Masters)
	fmt.Fprintf(w, "  with purchase:         %d\n", sum.Buyers)
	for _, seg := range []model.Segment{model.SegmentILPI, model.SegmentEstetica, model.SegmentAmbos} {
		if count, ok := sum.BySegment[seg]; ok {
			fmt.Fprintf(w, "  segment %-8s       %d\n", seg+":", count)
		}
	}
	fmt.Fprintln(w, "==================================================")
}
