package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ogulcanaydogan/expense-tracker/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export expenses to CSV or Excel",
	Long: `Export expenses in an optional [from, to) window to a CSV or XLSX file.
Use --out - to write to standard output.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "csv", "Export format (csv, xlsx)")
	exportCmd.Flags().StringP("category", "c", "", "Filter by category")
	exportCmd.Flags().String("from", "", "Inclusive start date")
	exportCmd.Flags().String("to", "", "Exclusive end date")
	exportCmd.Flags().String("out", "", "Output file (default expenses_<timestamp>.<format>)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	filter, err := expenseFilter(cmd, a)
	if err != nil {
		return err
	}

	expenses, err := a.store.ListExpenses(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = format.FileName(a.now())
	}

	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, expenses, a.loc); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}

	a.logger.Info("export complete", "format", format, "expenses", len(expenses), "path", path)
	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses to %s\n", len(expenses), path)
	}
	return nil
}
