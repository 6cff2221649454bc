package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/jgoulah/waterdash/pkg/models"
)

// timeLayouts are tried in order when parsing the time column
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Load reads a readings CSV into memory. Loading is all-or-nothing: any
// unreadable file, missing column or unparseable value fails the whole load.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %v", path, ErrIO, err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("reading %s: %w: %v", path, ErrParse, err)
		}
		return nil, fmt.Errorf("reading %s: %w: %v", path, ErrIO, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: %w: missing header row", path, ErrSchema)
	}

	header := make(map[string]bool, len(records[0]))
	for _, name := range records[0] {
		name = strings.TrimSpace(name)
		if header[name] {
			return nil, fmt.Errorf("reading %s: %w: duplicate column %q", path, ErrSchema, name)
		}
		header[name] = true
	}
	for _, col := range models.Columns {
		if !header[string(col)] {
			return nil, fmt.Errorf("reading %s: %w: missing column %q", path, ErrSchema, col)
		}
	}
	for i, name := range records[0] {
		records[0][i] = strings.TrimSpace(name)
	}

	// Header only
	if len(records) == 1 {
		return New(path, nil), nil
	}

	// Keep every column as raw text; typed parsing happens below so that
	// errors can name the offending row.
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("reading %s: %w: %v", path, ErrIO, df.Err)
	}

	readings, err := parseFrame(df)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return New(path, readings), nil
}

// parseFrame converts a string-typed dataframe into readings
func parseFrame(df dataframe.DataFrame) ([]models.Reading, error) {
	cols := make(map[models.Column][]string, len(models.Columns))
	for _, c := range models.Columns {
		s := df.Col(string(c))
		if s.Err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrSchema, c, s.Err)
		}
		cols[c] = s.Records()
	}

	ids := cols[models.ColumnID]
	userIDs := cols[models.ColumnUserID]
	deviceIDs := cols[models.ColumnDeviceID]
	atHome := cols[models.ColumnIsAtHome]
	anomalous := cols[models.ColumnIsAnomalous]
	times := cols[models.ColumnTime]
	consume := cols[models.ColumnConsume]
	total := cols[models.ColumnTotalConsume]

	readings := make([]models.Reading, df.Nrow())
	for i := range readings {
		// Row numbers are 1-based and count the header
		row := i + 2

		t, err := ParseTime(times[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		home, err := parseBool(models.ColumnIsAtHome, atHome[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		anom, err := parseBool(models.ColumnIsAnomalous, anomalous[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		c, err := parseFloat(models.ColumnConsume, consume[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		tc, err := parseFloat(models.ColumnTotalConsume, total[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		readings[i] = models.Reading{
			ID:           ids[i],
			UserID:       userIDs[i],
			DeviceID:     deviceIDs[i],
			IsAtHome:     home,
			IsAnomalous:  anom,
			Time:         t,
			Consume:      c,
			TotalConsume: tc,
		}
	}

	return readings, nil
}

// ParseTime parses an ISO-8601-like timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q is not a recognizable timestamp", ErrParse, s)
}

func parseBool(c models.Column, s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %s %q is not a boolean", ErrParse, c, s)
	}
	return b, nil
}

func parseFloat(c models.Column, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrParse, c, s)
	}
	return f, nil
}
