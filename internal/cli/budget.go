package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ogulcanaydogan/expense-tracker/pkg/alerts"
	"github.com/ogulcanaydogan/expense-tracker/pkg/budget"
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage spending budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a budget",
	RunE:  runBudgetSet,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current budget status",
	RunE:  runBudgetStatus,
}

var budgetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate budgets now and send alerts",
	Long: `Evaluate budgets now and send alerts for every budget at or above its threshold.
Each alert level is sent once per budget period. The last level sent is stored with
the budget, so repeated runs only alert again when spending escalates or a new
period begins.`,
	RunE: runBudgetCheck,
}

var budgetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetDelete,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd, budgetStatusCmd, budgetCheckCmd, budgetDeleteCmd)

	budgetSetCmd.Flags().StringP("name", "n", "default", "Budget name")
	budgetSetCmd.Flags().StringP("limit", "l", "", "Spending limit (e.g. 500 or 99.90)")
	budgetSetCmd.Flags().StringP("period", "P", "monthly", "Budget period (daily, weekly, monthly)")
	budgetSetCmd.Flags().StringP("category", "c", "", "Only count this category (default all)")
	budgetSetCmd.Flags().Float64("alert-at", 80, "Alert threshold percentage")
	_ = budgetSetCmd.MarkFlagRequired("limit")

	budgetStatusCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
	budgetCheckCmd.Flags().Bool("all", false, "Check the budgets of every owner")
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name, _ := cmd.Flags().GetString("name")
	limitStr, _ := cmd.Flags().GetString("limit")
	periodStr, _ := cmd.Flags().GetString("period")
	categoryStr, _ := cmd.Flags().GetString("category")
	alertAt, _ := cmd.Flags().GetFloat64("alert-at")

	limit, err := model.ParseAmount(limitStr)
	if err != nil {
		return fmt.Errorf("--limit: %w", err)
	}
	period, err := model.ParseBudgetPeriod(periodStr)
	if err != nil {
		return err
	}
	var category model.Category
	if categoryStr != "" {
		if category, err = model.ParseCategory(categoryStr); err != nil {
			return err
		}
	}

	b := &model.Budget{
		OwnerID:           a.owner(),
		Name:              name,
		Limit:             limit,
		Period:            period,
		Category:          category,
		AlertThresholdPct: alertAt,
	}
	if err := a.store.SetBudget(cmd.Context(), b); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Budget set:\n")
	fmt.Fprintf(out, "  Name:      %s\n", b.Name)
	fmt.Fprintf(out, "  Limit:     %s\n", b.Limit.StringFixed(2))
	fmt.Fprintf(out, "  Period:    %s\n", b.Period)
	fmt.Fprintf(out, "  Category:  %s\n", categoryOrAll(b.Category))
	fmt.Fprintf(out, "  Alert at:  %.0f%%\n", b.AlertThresholdPct)

	return nil
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	statuses, err := a.budgets.Status(cmd.Context(), a.owner())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, statuses, func(w io.Writer) {
		if len(statuses) == 0 {
			fmt.Fprintln(w, "No budgets configured. Use 'expt budget set' to create one.")
			return
		}
		writeStatuses(w, statuses)
	})
}

func writeStatuses(w io.Writer, statuses []budget.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tPERIOD\tCATEGORY\tLIMIT\tSPENT\tREMAINING\tUSAGE\tALERT AT\n")
	for _, st := range statuses {
		b := st.Budget
		remaining := decimal.Max(st.Remaining, decimal.Zero)

		status := ""
		if st.Level != "" {
			status = " [" + strings.ToUpper(string(st.Level)) + "]"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f%%%s\t%.0f%%\n",
			b.Name, b.Period, categoryOrAll(b.Category),
			b.Limit.StringFixed(2), st.Spent.StringFixed(2), remaining.StringFixed(2),
			st.UsedPct, status, b.AlertThresholdPct,
		)
	}
	tw.Flush()
}

func runBudgetCheck(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	all, _ := cmd.Flags().GetBool("all")
	var sent []alerts.Alert
	if all {
		sent, err = a.budgets.CheckAll(cmd.Context())
	} else {
		sent, err = a.budgets.Check(cmd.Context(), a.owner())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sent) == 0 {
		fmt.Fprintln(out, "No new budget alerts.")
		return nil
	}
	for _, alert := range sent {
		fmt.Fprintf(out, "[%s] %s\n", strings.ToUpper(string(alert.Level)), alert.Message)
	}
	return nil
}

func runBudgetDelete(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteBudget(cmd.Context(), a.owner(), args[0]); err != nil {
		return fmt.Errorf("delete budget %q: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %s\n", args[0])
	return nil
}

func categoryOrAll(c model.Category) string {
	if c == "" {
		return "all"
	}
	return string(c)
}
