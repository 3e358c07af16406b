package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Olprog59/go-freightdesk/internal/cli"
	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	// Logs go to stderr so command output stays machine readable
	logger, closeLogs := logging.NewLogger(cfg.Logging, cfg.IsProduction(), os.Stderr)
	slog.SetDefault(logger)
	defer closeLogs()

	if err := cli.Execute(cfg); err != nil {
		return 1
	}
	return 0
}
