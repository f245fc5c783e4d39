package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/roza-in/server/models"
)

// MinutesToClock renders minutes-from-midnight as an "15:04" label.
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ClockToMinutes parses an "15:04" label into minutes from midnight.
func ClockToMinutes(s string) (int, error) {
	t, err := time.Parse(models.TimeFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatDate renders t as the engine's wire date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(models.DateFormat)
}

// ParseDate parses a wire date in the given location at midnight.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateFormat, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, nil
}

// RoundMoney rounds an amount to two decimals for display and refunds.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
