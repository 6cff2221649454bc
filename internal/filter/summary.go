package filter

import (
	"time"

	"github.com/jgoulah/waterdash/pkg/models"
)

// Summary aggregates a set of readings for display and publishing
type Summary struct {
	Rows          int       `json:"rows"`
	Users         int       `json:"users"`
	Devices       int       `json:"devices"`
	Anomalies     int       `json:"anomalies"`
	ConsumeSum    float64   `json:"consumeSum"` // sum of consume, not of totalConsume
	AtHomeConsume float64   `json:"atHomeConsume"`
	AtHomeShare   float64   `json:"atHomeShare"` // 0..1 of ConsumeSum
	MaxTotal      float64   `json:"maxTotalConsume"`
	First         time.Time `json:"first,omitzero"`
	Last          time.Time `json:"last,omitzero"`
}

// Summarize aggregates readings
func Summarize(readings []models.Reading) Summary {
	var s Summary
	users := make(map[string]bool)
	devices := make(map[string]bool)

	for i, r := range readings {
		s.Rows++
		users[r.UserID] = true
		devices[r.DeviceID] = true
		if r.IsAnomalous {
			s.Anomalies++
		}
		s.ConsumeSum += r.Consume
		if r.IsAtHome {
			s.AtHomeConsume += r.Consume
		}
		if i == 0 || r.TotalConsume > s.MaxTotal {
			s.MaxTotal = r.TotalConsume
		}
		if i == 0 || r.Time.Before(s.First) {
			s.First = r.Time
		}
		if i == 0 || r.Time.After(s.Last) {
			s.Last = r.Time
		}
	}

	s.Users = len(users)
	s.Devices = len(devices)
	if s.ConsumeSum != 0 {
		s.AtHomeShare = s.AtHomeConsume / s.ConsumeSum
	}
	return s
}

// Summary aggregates the readings in the view
func (v *View) Summary() Summary {
	return Summarize(v.Readings())
}
