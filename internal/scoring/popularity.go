package scoring

import (
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// PopularityScore estimates how often people pick n by hand.
func PopularityScore(n int) float64 {
	score := 0.0
	if n >= 1 && n <= 31 {
		score += 60
	}
	if n == 7 || n == 11 || n == 21 {
		score += 25
	}
	if n%10 == 0 {
		score += 15
	}
	if isPrime(n) {
		score += 20
	}
	if n >= 1 && n <= 9 {
		score += 10
	}
	return score
}

// PopularityWeight is the largest weight whose condition applies.
func PopularityWeight(ctx models.CalendarContext, regime models.Regime, t tuning.Table) float64 {
	w := t.PopularityBase
	if ctx.IsHoliday() && t.PopularityHoliday > w {
		w = t.PopularityHoliday
	}
	if (regime == models.RegimeHotStreak || regime == models.RegimeVolatile) && t.PopularityRegime > w {
		w = t.PopularityRegime
	}
	return w
}

// PopularityPenalty converts the popularity score into a score deduction.
func PopularityPenalty(n int, weight float64, t tuning.Table) float64 {
	return PopularityScore(n) / 100 * t.PopularityScale * weight
}
