package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/config"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "aliexpress-cli",
	Short:         "aliexpress-cli scrapes products, prices and parcels from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log extraction details to stderr.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openManager loads the environment configuration and starts a browser
// manager using the session config shape returned by adapt.
func openManager(logger *slog.Logger, adapt func(browser.SessionConfig) browser.SessionConfig) (*config.Config, *browser.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := browser.NewManager(adapt(cfg.SessionConfig()), metrics.New(), logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, mgr, nil
}

func closeManager(mgr *browser.Manager, logger *slog.Logger) {
	if err := mgr.Close(); err != nil {
		logger.Warn("failed to stop browser driver", "error", err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func sameConfig(c browser.SessionConfig) browser.SessionConfig { return c }
