package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/waterdash/internal/config"
	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/internal/publisher"
	"github.com/jgoulah/waterdash/pkg/models"
	"github.com/spf13/cobra"
)

var (
	publishFilters filterFlags
	publishCurrent bool
	publishAll     bool
	publishLimit   int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish view summaries to MQTT and Home Assistant",
	Long: `Publishes the summary of every unpublished snapshot to the configured MQTT
broker (retained, on <topic_prefix>/summary) and Home Assistant state API.
With --current, publishes the summary of the filtered readings file instead.`,
	RunE: runPublish,
}

func init() {
	publishFilters.register(publishCmd.Flags())
	publishCmd.Flags().BoolVar(&publishCurrent, "current", false, "Publish the current filtered view instead of stored snapshots")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all snapshots (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of snapshots to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix(), cfg.HomeAssistant)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	if publishCurrent {
		return publishView(cfg, pub)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var snaps []models.Snapshot
	if publishAll {
		snaps, err = db.ListSnapshots()
	} else {
		snaps, err = db.ListUnpublished()
	}
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if len(snaps) == 0 {
		if publishAll {
			fmt.Println("No snapshots found")
		} else {
			fmt.Println("No unpublished snapshots found")
		}
		return nil
	}

	if publishLimit > 0 && len(snaps) > publishLimit {
		snaps = snaps[:publishLimit]
		fmt.Printf("Limiting to %d snapshots (--limit flag)\n", publishLimit)
	}

	fmt.Printf("Publishing %d snapshots...\n", len(snaps))
	published := 0
	for i, snap := range snaps {
		fmt.Printf("[%d/%d] Publishing %s (%d rows)... ", i+1, len(snaps), snap.ID, snap.RowCount)

		readings, err := db.SnapshotReadings(snap.ID)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}

		msg := publisher.Message{
			SnapshotID: snap.ID,
			Source:     snap.Source,
			Summary:    filter.Summarize(readings),
		}
		if err := pub.Publish(msg); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}

		if err := db.MarkPublished(snap.ID); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	fmt.Printf("\nSuccessfully published %d/%d snapshots\n", published, len(snaps))
	return nil
}

// publishView publishes the summary of the filtered readings file without
// storing a snapshot
func publishView(cfg *config.Config, pub *publisher.Publisher) error {
	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	_, view, err := publishFilters.apply(ds)
	if err != nil {
		return fmt.Errorf("filtering readings: %w", err)
	}

	fmt.Printf("Publishing summary of %d readings from %s... ", view.Len(), ds.Source())
	if err := pub.Publish(publisher.Message{Source: ds.Source(), Summary: view.Summary()}); err != nil {
		fmt.Printf("FAILED\n")
		return fmt.Errorf("publishing summary: %w", err)
	}
	fmt.Printf("✓\n")
	return nil
}
