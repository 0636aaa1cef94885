package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/spectra-cube/cmd/spectra/app"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the query configuration file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -c config.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if configPath == "" && flag.NArg() == 1 {
		configPath = flag.Arg(0)
	}
	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error("invalid configuration", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logLevel.Set(config.Settings.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger = logger.With(slog.String("input", config.Input))
	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error("query failed", slog.Any("error", err))

		cancel()
		os.Exit(1)
	}
}
