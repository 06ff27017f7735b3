package pipeline

import (
	"time"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// DrawDays are the weekdays on which draws take place.
var DrawDays = []time.Weekday{time.Tuesday, time.Friday}

// NextDrawDate returns the first date strictly after last that falls on one
// of days. It returns the zero time when days is empty.
func NextDrawDate(last time.Time, days []time.Weekday) time.Time {
	if len(days) == 0 {
		return time.Time{}
	}
	for i := 1; i <= 7; i++ {
		d := last.AddDate(0, 0, i)
		for _, wd := range days {
			if d.Weekday() == wd {
				return d
			}
		}
	}
	return time.Time{}
}

// ByWeekday keeps the draws held on wd, preserving order.
func ByWeekday(draws []models.Draw, wd time.Weekday) []models.Draw {
	out := make([]models.Draw, 0, len(draws)/2+1)
	for _, d := range draws {
		if d.Date.Weekday() == wd {
			out = append(out, d)
		}
	}
	return out
}
