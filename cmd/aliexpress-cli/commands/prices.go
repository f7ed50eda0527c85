package commands

import (
	"fmt"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/ratelimit"
	"github.com/maltedev/aliexpress-scraper/internal/scraper"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pricesCmd)
}

// parsePriceItems reads "productId=url" pairs.
func parsePriceItems(args []string) ([]models.PriceUpdateItem, error) {
	items := make([]models.PriceUpdateItem, 0, len(args))
	for _, arg := range args {
		id, url, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected productId=url, got %q", arg)
		}
		items = append(items, models.PriceUpdateItem{ProductID: id, URL: url})
	}
	return items, normalize.PriceUpdateRequest(models.PriceUpdateRequest{Products: items})
}

var pricesCmd = &cobra.Command{
	Use:   "prices <productId=url>...",
	Short: "Re-reads price and delivery window for each product, one after another.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := parsePriceItems(args)
		if err != nil {
			return err
		}

		logger := newLogger()
		cfg, mgr, err := openManager(logger, scraper.PriceSessionConfig)
		if err != nil {
			return err
		}
		defer closeManager(mgr, logger)

		updater := scraper.NewPriceUpdater(scraper.FromManager(mgr), metrics.New(), logger)
		if cfg.Prices.ItemDelayMax > 0 {
			updater.SetRateLimiter(ratelimit.NewSimpleRateLimiter(cfg.Prices.ItemDelayMin, cfg.Prices.ItemDelayMax))
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{"results": updater.Update(cmd.Context(), items)})
	},
}
