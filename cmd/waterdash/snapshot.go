package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-json-experiment/json"
	"github.com/jgoulah/waterdash/pkg/models"
	"github.com/spf13/cobra"
)

var snapshotFilters filterFlags

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save the filtered view to the database",
	Long:  `Applies the filter flags and stores the matching readings, together with the filter used, as a snapshot that can be listed and published later.`,
	RunE:  runSnapshot,
}

var snapshotsDelete bool

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [id]",
	Short: "List stored snapshots",
	Long:  `Lists stored snapshots, newest first. With an id, shows that snapshot and its readings; add --delete to remove it.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshots,
}

func init() {
	snapshotFilters.register(snapshotCmd.Flags())
	rootCmd.AddCommand(snapshotCmd)

	snapshotsCmd.Flags().BoolVar(&snapshotsDelete, "delete", false, "Delete the given snapshot")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	spec, view, err := snapshotFilters.apply(ds)
	if err != nil {
		return fmt.Errorf("filtering readings: %w", err)
	}

	specJSON, err := json.Marshal(spec, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("encoding filter: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	snap := &models.Snapshot{
		Source: ds.Source(),
		Spec:   string(specJSON),
	}
	if err := db.SaveSnapshot(snap, view.Readings()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	fmt.Printf("✓ Saved snapshot %s (%s readings, %s L)\n",
		snap.ID, humanize.Comma(int64(snap.RowCount)), humanize.CommafWithDigits(snap.ConsumeSum, 2))
	return nil
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	if snapshotsDelete && len(args) == 0 {
		return fmt.Errorf("--delete needs a snapshot id")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		snap, err := db.GetSnapshot(args[0])
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("snapshot %s not found", args[0])
		}

		if snapshotsDelete {
			if err := db.DeleteSnapshot(snap.ID); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted snapshot %s\n", snap.ID)
			return nil
		}

		readings, err := db.SnapshotReadings(snap.ID)
		if err != nil {
			return err
		}
		printSnapshot(*snap)
		fmt.Printf("Filter: %s\n", snap.Spec)
		fmt.Println("----------------------------------------------------------------")
		for _, r := range readings {
			fmt.Printf("%-10s  %-10s  %-10s  %-19s  %10.2f\n",
				r.ID, r.UserID, r.DeviceID, r.Time.Format("2006-01-02 15:04:05"), r.Consume)
		}
		return nil
	}

	snaps, err := db.ListSnapshots()
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots found")
		return nil
	}

	for _, snap := range snaps {
		printSnapshot(snap)
	}
	fmt.Printf("Total: %d snapshots\n", len(snaps))
	return nil
}

func printSnapshot(snap models.Snapshot) {
	status := "unpublished"
	if snap.Published {
		status = "published"
	}
	fmt.Printf("%s  %-14s  %8s rows  %12s L  %-11s  %s\n",
		snap.ID, humanize.Time(snap.CreatedAt),
		humanize.Comma(int64(snap.RowCount)), humanize.CommafWithDigits(snap.ConsumeSum, 2),
		status, snap.Source)
}
