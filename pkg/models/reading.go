package models

import (
	"strconv"
	"time"
)

// Reading represents a single water meter reading
type Reading struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	IsAtHome     bool      `json:"isAtHome"`
	IsAnomalous  bool      `json:"isAnomalous"`
	Time         time.Time `json:"time"`
	Consume      float64   `json:"consume"`      // Instantaneous reading (L)
	TotalConsume float64   `json:"totalConsume"` // Cumulative reading (L)
}

// Column names a field of the readings CSV
type Column string

const (
	ColumnID           Column = "id"
	ColumnUserID       Column = "userId"
	ColumnDeviceID     Column = "deviceId"
	ColumnIsAtHome     Column = "isAtHome"
	ColumnIsAnomalous  Column = "isAnomalous"
	ColumnTime         Column = "time"
	ColumnConsume      Column = "consume"
	ColumnTotalConsume Column = "totalConsume"
)

// Columns lists every column in header order
var Columns = []Column{
	ColumnID,
	ColumnUserID,
	ColumnDeviceID,
	ColumnIsAtHome,
	ColumnIsAnomalous,
	ColumnTime,
	ColumnConsume,
	ColumnTotalConsume,
}

// Categorical lists the columns filtered by set membership
var Categorical = []Column{
	ColumnID,
	ColumnUserID,
	ColumnDeviceID,
	ColumnIsAtHome,
	ColumnIsAnomalous,
}

// Kind is the semantic type of a categorical column
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindBool
)

// Kind returns the semantic type of the column, or KindNone if the column
// is not categorical
func (c Column) Kind() Kind {
	switch c {
	case ColumnID, ColumnUserID, ColumnDeviceID:
		return KindString
	case ColumnIsAtHome, ColumnIsAnomalous:
		return KindBool
	default:
		return KindNone
	}
}

// IsCategorical reports whether the column is filtered by set membership
func (c Column) IsCategorical() bool {
	return c.Kind() != KindNone
}

// Value returns the canonical string form of a categorical column value.
// Bool columns render as "true" or "false".
func (r Reading) Value(c Column) string {
	switch c {
	case ColumnID:
		return r.ID
	case ColumnUserID:
		return r.UserID
	case ColumnDeviceID:
		return r.DeviceID
	case ColumnIsAtHome:
		return strconv.FormatBool(r.IsAtHome)
	case ColumnIsAnomalous:
		return strconv.FormatBool(r.IsAnomalous)
	default:
		return ""
	}
}
