package commands

import (
	"github.com/maltedev/aliexpress-scraper/internal/assets"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/scraper"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <product-url>",
	Short: "Scrapes one product page, downloads its images and prints the record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := normalize.ScrapeRequest(models.ScrapeRequest{URL: args[0]}); err != nil {
			return err
		}

		logger := newLogger()
		cfg, mgr, err := openManager(logger, sameConfig)
		if err != nil {
			return err
		}
		defer closeManager(mgr, logger)

		m := metrics.New()
		store := assets.NewStore(cfg.AssetsConfig(), m, logger)
		adapter := scraper.NewProductAdapter(scraper.FromManager(mgr), store, m, logger)

		rec, err := adapter.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}
