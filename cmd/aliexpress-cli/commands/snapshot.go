package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/scraper"
	"github.com/spf13/cobra"
)

var snapshotURL string

func init() {
	snapshotCmd.Flags().StringVar(&snapshotURL, "url", "", "The page's original URL, used for the external id.")
	_ = snapshotCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(snapshotCmd)
}

// extractSnapshot runs the product extractors over saved HTML. Images keep
// their remote URLs since nothing is downloaded.
func extractSnapshot(r io.Reader, sourceURL string, sink extract.Sink, now time.Time) (*models.ProductRecord, error) {
	root, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	raw := scraper.ReadProduct(root, sourceURL, sink)
	return normalize.Product(*raw, now)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file.html> --url <product-url>",
	Short: "Extracts a product record from a saved page without a browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rec, err := extractSnapshot(f, snapshotURL, extract.NewLogSink(newLogger()), time.Now())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}
