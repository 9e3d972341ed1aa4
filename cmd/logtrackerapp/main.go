// LogTrackerApp engine - drives the WoW addon companion loop: reads addon
// save data, queries LogService rankings, and writes the results back for
// the addon to display in-game.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/config"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/fetcher"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/scheduler"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/version"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/viewbridge"
)

func main() {
	gameDirFlag := flag.String("game-dir", "", "WoW installation directory (overrides saved config)")
	apiIDFlag := flag.String("api-id", "", "LogService OAuth2 client id (overrides saved config)")
	apiSecretFlag := flag.String("api-secret", "", "LogService OAuth2 client secret (overrides saved config)")
	priorityOnlyFlag := flag.Bool("priority-only", false, "only refresh characters tagged with priority > 0")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	log.Info("starting", "version", version.Full())

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *gameDirFlag != "" {
		cfg.GameDir = *gameDirFlag
	}
	if *apiIDFlag != "" {
		cfg.APIID = *apiIDFlag
	}
	if *apiSecretFlag != "" {
		cfg.APISecret = *apiSecretFlag
	}
	if err := config.Save(cfg); err != nil {
		log.Warn("failed to persist configuration overrides", "error", err)
	}

	var s *scheduler.Scheduler
	bridge := viewbridge.New(cfg, func(dir string) { s.SetGameDir(dir) })
	f := fetcher.New()

	s = scheduler.New(bridge, f, log, cfg.GameDir, cfg.APIID, cfg.APISecret, cfg.ZoneID)
	s.SetPriorityOnly(*priorityOnlyFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, flushing final export")
	s.Stop()
	<-done
	log.Info("stopped")
}
