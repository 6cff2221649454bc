package main

import (
	"fmt"
	"strings"

	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/pkg/models"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show the values available to each filter",
	Long:  `Prints the distinct values of every categorical column and the time range covered by the readings file.`,
	RunE:  runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	opts := filter.BuildOptions(ds)
	fmt.Printf("%s (%d readings)\n", ds.Source(), ds.Len())
	for _, col := range models.Categorical {
		values := opts.Values[col]
		fmt.Printf("%-12s %3d: %s\n", col, len(values), strings.Join(values, ", "))
	}

	if ds.Len() == 0 {
		fmt.Println("time         no readings")
		return nil
	}
	fmt.Printf("time         %s .. %s (epoch %.0f .. %.0f)\n",
		opts.Start.Format("2006-01-02 15:04:05"), opts.End.Format("2006-01-02 15:04:05"),
		opts.MinEpoch, opts.MaxEpoch)
	return nil
}
