package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List expense categories",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

var categoryDescriptions = map[model.Category]string{
	model.CategoryFood:          "Groceries, restaurants, coffee",
	model.CategoryTransport:     "Fuel, tickets, taxis, parking",
	model.CategoryEntertainment: "Events, streaming, hobbies",
	model.CategoryUtilities:     "Power, water, internet, phone",
	model.CategoryHealthcare:    "Pharmacy, doctors, insurance",
	model.CategoryShopping:      "Clothing, electronics, household",
	model.CategoryOther:         "Anything else",
}

func runCategories(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tEXAMPLES\n")
	for _, c := range model.Categories() {
		fmt.Fprintf(w, "%s\t%s\n", c, categoryDescriptions[c])
	}
	return w.Flush()
}
