package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/maltedev/aliexpress-scraper/cmd/aliexpress-cli/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	commands.ExecuteContext(ctx)
}
