package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Long:  `Record a single expense with amount, category, description and time.`,
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded expenses, newest first",
	RunE:  runList,
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an existing expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, updateCmd, deleteCmd)

	addCmd.Flags().StringP("amount", "a", "", "Amount spent (e.g. 12.50)")
	addCmd.Flags().StringP("category", "c", "", "Category (food, transport, entertainment, utilities, healthcare, shopping, other)")
	addCmd.Flags().StringP("description", "d", "", "What the money was spent on")
	addCmd.Flags().String("at", "", "When it was spent, date or date-time (default now)")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("description")

	listCmd.Flags().StringP("category", "c", "", "Filter by category")
	listCmd.Flags().String("from", "", "Inclusive start date")
	listCmd.Flags().String("to", "", "Exclusive end date")
	listCmd.Flags().Int("limit", 50, "Maximum number of expenses")
	listCmd.Flags().Int("offset", 0, "Number of expenses to skip")
	listCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")

	updateCmd.Flags().StringP("amount", "a", "", "New amount")
	updateCmd.Flags().StringP("category", "c", "", "New category")
	updateCmd.Flags().StringP("description", "d", "", "New description")
	updateCmd.Flags().String("at", "", "New date or date-time")
}

func runAdd(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	amountStr, _ := cmd.Flags().GetString("amount")
	categoryStr, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")

	amount, err := model.ParseAmount(amountStr)
	if err != nil {
		return err
	}
	category, err := model.ParseCategory(categoryStr)
	if err != nil {
		return err
	}
	occurredAt, err := a.parseTimeFlag(cmd, "at", a.now())
	if err != nil {
		return err
	}

	e := &model.Expense{
		OwnerID:     a.owner(),
		Amount:      amount,
		Category:    category,
		Description: description,
		OccurredAt:  occurredAt,
	}
	if err := a.store.AddExpense(cmd.Context(), e); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}

	printExpense(cmd.OutOrStdout(), "Recorded expense", e, a)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filter, err := expenseFilter(cmd, a)
	if err != nil {
		return err
	}
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")

	expenses, err := a.store.ListExpenses(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), output, expenses, func(w io.Writer) {
		if len(expenses) == 0 {
			fmt.Fprintln(w, "No expenses found.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION\n")
		for _, e := range expenses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.ID,
				e.OccurredAt.In(a.loc).Format("2006-01-02 15:04"),
				e.Amount.StringFixed(2),
				e.Category,
				e.Description,
			)
		}
		tw.Flush()
	})
}

// expenseFilter reads the --category, --from and --to flags.
func expenseFilter(cmd *cobra.Command, a *app) (model.ExpenseFilter, error) {
	filter := model.ExpenseFilter{OwnerID: a.owner()}

	if v, _ := cmd.Flags().GetString("category"); v != "" {
		c, err := model.ParseCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = c
	}

	var err error
	if filter.Start, err = a.parseTimeFlag(cmd, "from", filter.Start); err != nil {
		return filter, err
	}
	if filter.End, err = a.parseTimeFlag(cmd, "to", filter.End); err != nil {
		return filter, err
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && !filter.End.After(filter.Start) {
		return filter, errors.New("--to must be after --from")
	}
	return filter, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.store.GetExpense(cmd.Context(), a.owner(), args[0])
	if err != nil {
		return fmt.Errorf("get expense %s: %w", args[0], err)
	}

	flags := cmd.Flags()
	if flags.Changed("amount") {
		v, _ := flags.GetString("amount")
		if e.Amount, err = model.ParseAmount(v); err != nil {
			return err
		}
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		if e.Category, err = model.ParseCategory(v); err != nil {
			return err
		}
	}
	if flags.Changed("description") {
		e.Description, _ = flags.GetString("description")
	}
	if flags.Changed("at") {
		if e.OccurredAt, err = a.parseTimeFlag(cmd, "at", e.OccurredAt); err != nil {
			return err
		}
	}

	if err := a.store.UpdateExpense(cmd.Context(), e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	printExpense(cmd.OutOrStdout(), "Updated expense", e, a)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteExpense(cmd.Context(), a.owner(), args[0]); err != nil {
		return fmt.Errorf("delete expense %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %s\n", args[0])
	return nil
}

func printExpense(w io.Writer, title string, e *model.Expense, a *app) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "  ID:          %s\n", e.ID)
	fmt.Fprintf(w, "  Amount:      %s\n", e.Amount.StringFixed(2))
	fmt.Fprintf(w, "  Category:    %s\n", e.Category)
	fmt.Fprintf(w, "  Description: %s\n", e.Description)
	fmt.Fprintf(w, "  Date:        %s\n", e.OccurredAt.In(a.loc).Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Owner:       %s\n", e.OwnerID)
}
