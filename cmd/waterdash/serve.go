package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/internal/logger"
	"github.com/jgoulah/waterdash/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard",
	Long: `Starts the dashboard HTTP server. The page offers a multi-select and a
"Select All" toggle per column plus a time-range slider; the JSON API and the
websocket endpoint accept the same filter parameters.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.ParseLevel(cfg.GetLogLevel()))

	addr := cfg.GetAddr()
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := dataset.NewCache(nil)

	// Load eagerly so a broken file shows up in the log at startup
	if ds, err := cache.Get(cfg.GetDataPath()); err != nil {
		log.Warn("Initial load failed, the dashboard will report it: %v", err)
	} else {
		log.Info("Loaded %d readings from %s", ds.Len(), ds.Source())
	}

	srv := server.New(cache, cfg.GetDataPath(), log)
	return srv.ListenAndServe(ctx, addr, cfg.GetReadTimeout(), cfg.GetWriteTimeout())
}
