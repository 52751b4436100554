package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tastymetrics/internal/catalog"
	"tastymetrics/pkg/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the source views and data quality",
	Long: "Run the diagnostic checks for the reporting layer: existence and row\n" +
		"counts of the three source views, their column layout, and the\n" +
		"ORDER_TOTAL = QUANTITY * UNIT_PRICE consistency expectation.",
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	runner, _, cleanup, err := newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	failed := false

	for _, view := range []string{catalog.OrdersView, catalog.LoyaltyView, catalog.ReviewsView} {
		count, err := runner.ViewRowCount(ctx, view)
		if err != nil {
			failed = true
			if errors.IsNotFound(err) {
				fmt.Printf("%s %s: not found in the configured database/schema\n", color.RedString("✗"), view)
			} else {
				fmt.Printf("%s %s: %v\n", color.RedString("✗"), view, err)
			}
			continue
		}

		cols, err := runner.DescribeView(ctx, view)
		if err != nil {
			failed = true
			fmt.Printf("%s %s: describe failed: %v\n", color.RedString("✗"), view, err)
			continue
		}

		fmt.Printf("%s %s: %d rows, %d columns\n", color.GreenString("✓"), view, count, len(cols))
		if flagVerbose {
			for _, c := range cols {
				fmt.Printf("    %-32s %s\n", c.Name, c.Type)
			}
		}
	}

	if !failed {
		violations, err := runner.OrderTotalViolations(ctx)
		if err != nil {
			return err
		}
		if violations == 0 {
			fmt.Printf("%s ORDER_TOTAL = QUANTITY * UNIT_PRICE holds for all orders\n", color.GreenString("✓"))
		} else {
			fmt.Printf("%s ORDER_TOTAL mismatch on %d order(s)\n", color.YellowString("!"), violations)
		}
	}

	if failed {
		return errors.New(errors.ErrCodeValidationFailed, "source view validation failed").
			WithSuggestions(
				"Check the database and schema on the active profile",
				"Confirm the role can read the reporting schema",
			)
	}
	return nil
}
