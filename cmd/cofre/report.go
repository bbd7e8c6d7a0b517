package main

import (
	"fmt"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/cli"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Category breakdown and the 12 month charge forecast",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	now, err := referenceTime()
	if err != nil {
		return err
	}
	subs, err := loadSubscriptions(now)
	if err != nil {
		return err
	}

	committed := billing.Committed(subs, nil)

	fmt.Println()
	fmt.Println(cli.RenderTitle("SPENDING REPORT  " + cli.FormatDate(now)))
	fmt.Println()
	if len(committed) == 0 {
		fmt.Println(cli.RenderMuted("  No committed subscriptions to report on."))
		fmt.Println()
		return nil
	}
	fmt.Print(cli.RenderTable(cli.CategoryTable(billing.CategoryBreakdown(committed))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.MonthTable("Charges per month", billing.MonthlyChargeForecast(subs, now))))
	fmt.Println()
	return nil
}
