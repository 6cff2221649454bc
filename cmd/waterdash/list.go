package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listFilters filterFlags
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List filtered readings",
	Long:  `Loads the readings file, applies the filter flags and prints the matching rows in file order.`,
	RunE:  runList,
}

func init() {
	listFilters.register(listCmd.Flags())
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit number of rows printed (0 = no limit)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	_, view, err := listFilters.apply(ds)
	if err != nil {
		return fmt.Errorf("filtering readings: %w", err)
	}

	if view.Len() == 0 {
		fmt.Printf("No readings match the filter in %s\n", ds.Source())
		return nil
	}

	readings := view.Readings()
	if listLimit > 0 && len(readings) > listLimit {
		readings = readings[:listLimit]
		fmt.Printf("Limiting to %d rows (--limit flag)\n", listLimit)
	}

	fmt.Println("--------------------------------------------------------------------------------------------------")
	fmt.Printf("%-10s  %-10s  %-10s  %-7s  %-9s  %-19s  %10s  %12s\n",
		"ID", "User", "Device", "AtHome", "Anomalous", "Time", "Consume", "Total")
	fmt.Println("--------------------------------------------------------------------------------------------------")

	for _, r := range readings {
		fmt.Printf("%-10s  %-10s  %-10s  %-7t  %-9t  %-19s  %10.2f  %12.2f\n",
			r.ID, r.UserID, r.DeviceID, r.IsAtHome, r.IsAnomalous,
			r.Time.Format("2006-01-02 15:04:05"), r.Consume, r.TotalConsume)
	}

	summary := view.Summary()
	fmt.Println("--------------------------------------------------------------------------------------------------")
	fmt.Printf("Total: %s L consumed (%s of %s readings, %s anomalous)\n",
		humanize.CommafWithDigits(summary.ConsumeSum, 2),
		humanize.Comma(int64(summary.Rows)),
		humanize.Comma(int64(ds.Len())),
		humanize.Comma(int64(summary.Anomalies)))
	return nil
}
