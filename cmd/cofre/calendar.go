package main

import (
	"fmt"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/cli"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/spf13/cobra"
)

var (
	flagHorizon int
	flagDay     string
	flagPerRow  int
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Projected billing dates per subscription",
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().IntVar(&flagHorizon, "horizon", billing.DefaultHorizon, "Periods projected after each billing date")
	calendarCmd.Flags().StringVar(&flagDay, "day", "", "Only list the charges on this day (YYYY-MM-DD)")
	calendarCmd.Flags().IntVar(&flagPerRow, "dates", 6, "Dates shown per subscription, 0 for all")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(_ *cobra.Command, _ []string) error {
	if flagHorizon < 1 || flagHorizon > service.MaxCalendarHorizon {
		return fmt.Errorf("--horizon must be between 1 and %d", service.MaxCalendarHorizon)
	}
	now, err := referenceTime()
	if err != nil {
		return err
	}
	subs, err := loadSubscriptions(now)
	if err != nil {
		return err
	}

	fmt.Println()
	if flagDay != "" {
		day, err := util.ParseDay(flagDay, now.Location())
		if err != nil {
			return fmt.Errorf("--day must be YYYY-MM-DD: %w", err)
		}
		fmt.Println(cli.RenderTitle("CHARGES ON " + cli.FormatDate(day)))
		fmt.Println()
		charges := service.ChargesOn(subs, day, now)
		if len(charges) == 0 {
			fmt.Println(cli.RenderMuted("  Nothing is billed on this day."))
			fmt.Println()
			return nil
		}
		fmt.Print(cli.RenderTable(cli.DayTable(charges)))
		fmt.Println()
		return nil
	}

	cal := service.BuildCalendar(subs, now, flagHorizon)
	fmt.Println(cli.RenderTitle("BILLING CALENDAR  from " + cli.FormatDate(now)))
	fmt.Println()
	if len(cal.Entries) == 0 {
		fmt.Println(cli.RenderMuted("  No active subscriptions."))
		fmt.Println()
		return nil
	}
	fmt.Print(cli.RenderTable(cli.CalendarTable(cal, flagPerRow)))
	fmt.Println()
	return nil
}
