package main

import (
	"fmt"
	"os"

	"github.com/jgoulah/waterdash/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config file with the default settings",
	Long:  `Writes a config file spelling out every default so it can be edited. Secrets are left empty; set them in the file, in .env or through WATERDASH_* variables.`,
	RunE:  runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(path, defaultConfig()); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}

// defaultConfig returns a config with every fallback written out
func defaultConfig() *config.Config {
	var empty config.Config
	return &config.Config{
		DataPath:     empty.GetDataPath(),
		DatabasePath: empty.GetDatabasePath(),
		LogLevel:     empty.GetLogLevel(),
		Server: config.ServerConfig{
			Addr:         empty.GetAddr(),
			ReadTimeout:  empty.GetReadTimeout(),
			WriteTimeout: empty.GetWriteTimeout(),
		},
		MQTT: config.MQTTConfig{
			Broker:      "localhost:1883",
			TopicPrefix: empty.GetTopicPrefix(),
		},
		HomeAssistant: config.HAConfig{
			URL:      "http://homeassistant.local:8123",
			EntityID: "sensor.water_consumption_filtered",
		},
	}
}
