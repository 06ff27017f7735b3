package drawsource

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// SyntheticStart is the first date of a synthetic history (a Tuesday).
var SyntheticStart = time.Date(2016, time.January, 5, 0, 0, 0, 0, time.UTC)

// Synthetic generates n uniformly random draws on alternating Tuesdays and
// Fridays. The same seed always yields the same history.
func Synthetic(n int, seed uint64) []models.Draw {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	draws := make([]models.Draw, n)
	date := SyntheticStart
	for i := range draws {
		main := rng.Perm(models.MainMax)[:models.MainCount]
		stars := rng.Perm(models.StarMax)[:models.StarCount]
		for j := range main {
			main[j]++
		}
		for j := range stars {
			stars[j]++
		}
		sort.Ints(main)
		sort.Ints(stars)
		draws[i] = models.Draw{Date: date, Main: main, Stars: stars}
		if date.Weekday() == time.Tuesday {
			date = date.AddDate(0, 0, 3)
		} else {
			date = date.AddDate(0, 0, 4)
		}
	}
	return draws
}
