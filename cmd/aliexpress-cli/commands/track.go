package commands

import (
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/scraper"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track <tracking-number>",
	Short: "Looks a parcel up on pkge.net and prints its status and timeline.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := normalize.TrackingRequest(models.TrackingRequest{TrackingNumber: args[0]}); err != nil {
			return err
		}

		logger := newLogger()
		_, mgr, err := openManager(logger, scraper.TrackingSessionConfig)
		if err != nil {
			return err
		}
		defer closeManager(mgr, logger)

		adapter := scraper.NewTrackingAdapter(scraper.FromManager(mgr), 0, 0, metrics.New(), logger)
		rec, err := adapter.Track(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}
