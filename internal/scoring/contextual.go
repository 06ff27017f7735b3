// Package scoring turns analyzer output into ranked Aether scores and owns
// the rules that tune them: calendar context, popularity bias, regime
// classification and weight recalibration.
package scoring

import (
	"time"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// EasterSunday returns Western Easter for year (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nearEaster(date time.Time) bool {
	diff := dayOf(date).Sub(EasterSunday(date.Year())).Hours() / 24
	return diff >= -7 && diff <= 7
}

// CalendarContextOf tags a draw date. The first matching window wins.
func CalendarContextOf(date time.Time) models.CalendarContext {
	month, day := date.Month(), date.Day()
	switch {
	case month == time.December && day >= 15 && day <= 30:
		return models.ContextChristmas
	case (month == time.December && day == 31) || (month == time.January && day <= 7):
		return models.ContextNewYear
	case nearEaster(date):
		return models.ContextEaster
	case month == time.July || month == time.August:
		return models.ContextSummer
	}
	return models.ContextRegular
}

// ContextualBoost is the calendar-driven score adjustment for number n.
func ContextualBoost(n int, date time.Time, ctx models.CalendarContext) float64 {
	switch ctx {
	case models.ContextChristmas:
		if n == 24 || n == 25 || n == 12 {
			return -20
		}
	case models.ContextNewYear:
		boost := 0.0
		if n > 31 {
			boost += 15
		}
		if n%10 == 0 {
			boost -= 15
		}
		return boost
	case models.ContextSummer:
		if n > 31 {
			return 20
		}
	case models.ContextEaster:
		easter := EasterSunday(date.Year())
		if n == easter.Day() || n == int(easter.Month()) {
			return -15
		}
	}
	return 0
}
