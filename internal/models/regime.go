package models

// Regime is a coarse label for current draw dynamics.
type Regime int

const (
	RegimeBalanced Regime = iota
	RegimeHotStreak
	RegimeVolatile
	RegimeStable
)

func (r Regime) String() string {
	switch r {
	case RegimeHotStreak:
		return "Hot Streak"
	case RegimeVolatile:
		return "Volatile"
	case RegimeStable:
		return "Stable"
	default:
		return "Balanced"
	}
}

// MarshalText encodes the regime by its label.
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a regime label; unknown labels become Balanced.
func (r *Regime) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Hot Streak":
		*r = RegimeHotStreak
	case "Volatile":
		*r = RegimeVolatile
	case "Stable":
		*r = RegimeStable
	default:
		*r = RegimeBalanced
	}
	return nil
}

// CalendarContext tags the holiday period of a draw date.
type CalendarContext string

const (
	ContextRegular   CalendarContext = "regular"
	ContextChristmas CalendarContext = "christmas"
	ContextNewYear   CalendarContext = "new_year"
	ContextEaster    CalendarContext = "easter"
	ContextSummer    CalendarContext = "summer"
)

// CalendarContexts lists every context in report order.
var CalendarContexts = []CalendarContext{
	ContextRegular,
	ContextChristmas,
	ContextNewYear,
	ContextEaster,
	ContextSummer,
}

// IsHoliday reports whether the context is any holiday period.
func (c CalendarContext) IsHoliday() bool {
	return c != ContextRegular && c != ""
}
