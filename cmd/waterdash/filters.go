package main

import (
	"net/url"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/pkg/models"
	"github.com/spf13/pflag"
)

// filterFlags holds the selection flags shared by commands that work on a
// filtered view. An empty list leaves its column unconstrained.
type filterFlags struct {
	ids       []string
	users     []string
	devices   []string
	atHome    []string
	anomalous []string
	start     string
	end       string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.ids, "id", nil, "Only readings with these ids")
	fs.StringSliceVar(&f.users, "user", nil, "Only readings from these users")
	fs.StringSliceVar(&f.devices, "device", nil, "Only readings from these devices")
	fs.StringSliceVar(&f.atHome, "at-home", nil, "Only readings with this at-home flag (true, false or both)")
	fs.StringSliceVar(&f.anomalous, "anomalous", nil, "Only readings with this anomaly flag (true, false or both)")
	fs.StringVar(&f.start, "start", "", "Start of the time range (timestamp or epoch seconds, default: earliest reading)")
	fs.StringVar(&f.end, "end", "", "End of the time range (timestamp or epoch seconds, default: latest reading)")
}

// values encodes the flags the same way the dashboard encodes its form
func (f *filterFlags) values() url.Values {
	v := url.Values{}
	lists := map[models.Column][]string{
		models.ColumnID:          f.ids,
		models.ColumnUserID:      f.users,
		models.ColumnDeviceID:    f.devices,
		models.ColumnIsAtHome:    f.atHome,
		models.ColumnIsAnomalous: f.anomalous,
	}
	for col, list := range lists {
		for _, s := range list {
			v.Add(string(col), s)
		}
	}
	if f.start != "" {
		v.Set("start", f.start)
	}
	if f.end != "" {
		v.Set("end", f.end)
	}
	return v
}

// apply builds the filter spec for ds and runs it
func (f *filterFlags) apply(ds *dataset.Dataset) (filter.Spec, *filter.View, error) {
	spec, err := filter.FromValues(f.values(), ds)
	if err != nil {
		return filter.Spec{}, nil, err
	}
	view, err := filter.Apply(ds, spec)
	if err != nil {
		return filter.Spec{}, nil, err
	}
	return spec, view, nil
}
