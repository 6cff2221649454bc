package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/waterdash/internal/config"
	"github.com/jgoulah/waterdash/internal/database"
	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dataFile string
	dbPath   string
)

var rootCmd = &cobra.Command{
	Use:   "waterdash",
	Short: "Explore water consumption readings",
	Long: `Waterdash loads water meter readings from a CSV file and lets you filter them
by user, device, location and anomaly flags over a time range. It serves an
interactive dashboard, renders charts, stores filtered snapshots in a local
SQLite database and publishes their summaries to MQTT and Home Assistant.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "readings CSV file (default is ./data/consumes.csv)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if dataFile != "" {
		cfg.DataPath = dataFile
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	return cfg, nil
}

// loadDataset reads the configured readings file
func loadDataset(cfg *config.Config) (*dataset.Dataset, error) {
	ds, err := dataset.Load(cfg.GetDataPath())
	if err != nil {
		return nil, fmt.Errorf("loading readings: %w", err)
	}
	return ds, nil
}

// openDB opens the database connection
func openDB(cfg *config.Config) (*database.DB, error) {
	path := cfg.GetDatabasePath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}
