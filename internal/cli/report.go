package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate expense reports",
	Long:  `Generate daily, weekly, monthly and custom-range expense reports with per-category totals.`,
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Report one calendar day",
	RunE:  runReportDaily,
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Report the Monday-to-Sunday week containing a date",
	RunE:  runReportWeekly,
}

var reportMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Report a calendar month",
	RunE:  runReportMonthly,
}

var reportRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Summarize an arbitrary [from, to) interval",
	RunE:  runReportRange,
}

var reportOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show day, week and month totals around a date",
	RunE:  runReportOverview,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize every recorded expense",
	RunE:  runReportSummary,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDailyCmd, reportWeeklyCmd, reportMonthlyCmd, reportRangeCmd, reportOverviewCmd, reportSummaryCmd)

	reportCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table, json, yaml)")

	reportDailyCmd.Flags().String("date", "", "Date to report (default today)")
	reportWeeklyCmd.Flags().String("date", "", "Any date within the week (default today)")
	reportOverviewCmd.Flags().String("date", "", "Anchor date (default today)")

	reportMonthlyCmd.Flags().Int("year", 0, "Year (default current)")
	reportMonthlyCmd.Flags().Int("month", 0, "Month 1-12 (default current)")

	reportRangeCmd.Flags().String("from", "", "Inclusive start date or date-time")
	reportRangeCmd.Flags().String("to", "", "Exclusive end date or date-time")
	_ = reportRangeCmd.MarkFlagRequired("from")
	_ = reportRangeCmd.MarkFlagRequired("to")
}

func runReportDaily(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.parseTimeFlag(cmd, "date", a.now())
	if err != nil {
		return err
	}
	rep, err := a.reporter.Daily(cmd.Context(), a.owner(), date)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, rep, dailyTable(rep))
}

func runReportWeekly(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.parseTimeFlag(cmd, "date", a.now())
	if err != nil {
		return err
	}
	rep, err := a.reporter.Weekly(cmd.Context(), a.owner(), date)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, rep, weeklyTable(rep))
}

func runReportMonthly(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.now()
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	if !cmd.Flags().Changed("year") {
		year = now.Year()
	}
	if !cmd.Flags().Changed("month") {
		month = int(now.Month())
	}

	rep, err := a.reporter.Monthly(cmd.Context(), a.owner(), year, time.Month(month))
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, rep, monthlyTable(rep))
}

func runReportRange(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := a.parseTimeFlag(cmd, "from", time.Time{})
	if err != nil {
		return err
	}
	end, err := a.parseTimeFlag(cmd, "to", time.Time{})
	if err != nil {
		return err
	}
	if !end.After(start) {
		return errors.New("--to must be after --from")
	}

	rep, err := a.reporter.Range(cmd.Context(), a.owner(), start, end)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, rep, rangeTable(rep))
}

func runReportOverview(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.parseTimeFlag(cmd, "date", a.now())
	if err != nil {
		return err
	}
	ov, err := a.reporter.Overview(cmd.Context(), a.owner(), date)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, ov, overviewTable(ov))
}

func runReportSummary(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.reporter.Summary(cmd.Context(), a.owner())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, sum, summaryTable(sum))
}
