package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/waterdash/internal/charts"
	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/spf13/cobra"
)

var (
	chartFilters filterFlags
	chartOut     string
	chartFormat  string
	chartKinds   []string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render dashboard charts to files",
	Long:  `Applies the filter flags and writes each chart of the dashboard to <out>/<kind>.<format>.`,
	RunE:  runChart,
}

func init() {
	chartFilters.register(chartCmd.Flags())
	chartCmd.Flags().StringVar(&chartOut, "out", "charts", "Output directory")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "Image format (png or svg)")
	chartCmd.Flags().StringSliceVar(&chartKinds, "kind", nil, "Charts to render (default: all)")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	format := charts.Format(chartFormat)
	if format != charts.FormatPNG && format != charts.FormatSVG {
		return fmt.Errorf("unknown format %q (use png or svg)", chartFormat)
	}

	kinds, err := parseKinds(chartKinds)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	_, view, err := chartFilters.apply(ds)
	if err != nil {
		return fmt.Errorf("filtering readings: %w", err)
	}

	if err := os.MkdirAll(chartOut, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	fmt.Printf("Rendering %d charts from %d readings...\n", len(kinds), view.Len())
	for _, kind := range kinds {
		path := filepath.Join(chartOut, string(kind)+"."+string(format))
		if err := writeChart(path, kind, view, format); err != nil {
			return fmt.Errorf("rendering %s: %w", kind, err)
		}
		fmt.Printf("  ✓ %s\n", path)
	}
	return nil
}

// parseKinds validates the --kind flag, defaulting to every chart
func parseKinds(names []string) ([]charts.Kind, error) {
	if len(names) == 0 {
		return charts.Kinds, nil
	}
	kinds := make([]charts.Kind, 0, len(names))
	for _, name := range names {
		kind := charts.Kind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown chart %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func writeChart(path string, kind charts.Kind, view *filter.View, format charts.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := charts.Render(kind, view, format, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
