package main

import (
	"fmt"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/cli"
	"github.com/spf13/cobra"
)

var (
	flagSteady bool
	flagMonths int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Month by month spend ahead",
	Long: "By default lists the raw charges landing in each of the next 12 months. " +
		"With --steady it repeats the committed monthly total instead.",
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().BoolVar(&flagSteady, "steady", false, "Show the steady monthly series instead of raw charges")
	forecastCmd.Flags().IntVar(&flagMonths, "months", billing.SteadyForecastMonths, "Length of the steady series")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	now, err := referenceTime()
	if err != nil {
		return err
	}
	subs, err := loadSubscriptions(now)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FORECAST  from " + now.Format("2006-01")))
	fmt.Println()
	if flagSteady {
		if flagMonths < 1 {
			return fmt.Errorf("--months must be at least 1")
		}
		fmt.Print(cli.RenderTable(cli.MonthTable("Monthly equivalent", billing.SteadyStateForecast(subs, now, flagMonths))))
	} else {
		fmt.Print(cli.RenderTable(cli.MonthTable("Charges per month", billing.MonthlyChargeForecast(subs, now))))
		fmt.Println(cli.RenderMuted("  Annual plans land in their renewal month only."))
	}
	fmt.Println()
	return nil
}
