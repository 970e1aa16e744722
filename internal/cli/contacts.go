package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/crmsync/internal/manychat"
)

// NewImportContactsCommand creates the import-contacts command.
func NewImportContactsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-contacts <file-or-dir>",
		Short: "Import chat contact CSV exports into the raw log",
		Long: `Import one tab-separated contact export, or every .csv file in a
directory, into the raw contact log. Run consolidate afterwards to merge
the contacts into the master table.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportContacts(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImportContacts(opts *RootOptions, path string, cmd *cobra.Command) error {
	_, st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read import path", err)
	}

	importer := manychat.NewImporter(st)
	var stats manychat.Stats
	if info.IsDir() {
		stats, err = importer.ImportDir(cmd.Context(), path)
	} else {
		stats, err = importer.ImportFile(cmd.Context(), path)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "contact import failed", err)
	}

	formatter := newFormatter(opts, cmd.OutOrStdout())
	if formatter.Format == "json" {
		return formatter.Success(stats)
	}
	return formatter.Success(fmt.Sprintf(
		"imported %d contacts (%d rows skipped)", stats.Imported, stats.Skipped))
}
