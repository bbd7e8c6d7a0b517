package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cofreforte/cofre-backend/internal/cli"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagFile    string
	flagJSON    string
	flagNow     string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "cofre",
	Short:         "Offline subscription tracker",
	Long:          "Project billing dates, totals and forecasts from a local subscription file.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
	RunE: runSummary,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("  "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Subscription file (TOML, or .json export)")
	rootCmd.PersistentFlags().StringVar(&flagJSON, "json", "", "Document export in JSON")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Reference day as YYYY-MM-DD (default today)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log loading details")
}

// referenceTime returns the clock the engine runs against
func referenceTime() (time.Time, error) {
	if flagNow == "" {
		return time.Now(), nil
	}
	now, err := util.ParseDay(flagNow, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be YYYY-MM-DD: %w", err)
	}
	return now, nil
}

// loadSubscriptions is the shared loading path of every command
func loadSubscriptions(now time.Time) ([]*domain.Subscription, error) {
	var (
		subs []*domain.Subscription
		err  error
		path string
	)
	switch {
	case flagFile != "" && flagJSON != "":
		return nil, errors.New("use either --file or --json, not both")
	case flagJSON != "":
		path = flagJSON
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			subs, err = cli.LoadJSON(data, now)
		}
	case flagFile != "":
		path = flagFile
		subs, err = cli.LoadFile(path, now)
	default:
		return nil, errors.New("a subscription source is required (--file or --json)")
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Int("count", len(subs)).Time("now", now).Msg("Loaded subscriptions")
	return subs, nil
}
