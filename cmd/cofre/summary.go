package main

import (
	"fmt"
	"strings"

	"github.com/cofreforte/cofre-backend/internal/cli"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagExclude []string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Spending totals, ghosts and upcoming charges",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringSliceVarP(&flagExclude, "exclude", "x", nil, "Simulate cancelling these subscriptions (by name)")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	now, err := referenceTime()
	if err != nil {
		return err
	}
	subs, err := loadSubscriptions(now)
	if err != nil {
		return err
	}

	sim := domain.SimulationOptions{}
	if len(flagExclude) > 0 {
		sim.Enabled = true
		sim.ExcludedIDs = excludedByName(subs, flagExclude)
	}
	summary := service.Summarize(subs, sim, now)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COFRE FORTE  " + cli.FormatDate(now)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.SummaryTable(summary)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.SubscriptionsTable(subs)))
	if len(summary.NextBillingDates) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.UpcomingTable(summary)))
	}
	if summary.GhostCount > 0 {
		fmt.Println()
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d ghost subscription(s) are not counted in the totals.", summary.GhostCount)))
	}
	fmt.Println()
	return nil
}

// excludedByName matches names case-insensitively. Unknown names are reported and ignored.
func excludedByName(subs []*domain.Subscription, names []string) map[uuid.UUID]bool {
	excluded := make(map[uuid.UUID]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		found := false
		for _, sub := range subs {
			if strings.EqualFold(sub.Name, name) {
				excluded[sub.ID] = true
				found = true
			}
		}
		if !found {
			log.Warn().Str("name", name).Msg("No subscription with this name to exclude")
		}
	}
	return excluded
}
