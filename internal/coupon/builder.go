package coupon

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// maxRun is the longest allowed streak of consecutive main numbers.
const maxRun = 3

// Builder assembles coupons from ranked scores.
type Builder struct {
	table tuning.Table
	rng   *rand.Rand
}

// NewBuilder creates a builder. The random source only feeds the fallback
// that fills coupon slots the structural filter left empty; a nil rng uses a
// fixed seed.
func NewBuilder(t tuning.Table, rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	return &Builder{table: t, rng: rng}
}

type combo struct {
	nums  []int
	score float64
}

// Build pairs the i-th best main combination with the i-th best star pair.
func (b *Builder) Build(r models.Rankings, delta analysis.DeltaStats) []models.Coupon {
	mains := b.mainCombos(r.Main, delta)
	stars := b.starCombos(r.Stars)
	n := len(mains)
	if len(stars) < n {
		n = len(stars)
	}
	coupons := make([]models.Coupon, n)
	for i := 0; i < n; i++ {
		coupons[i] = models.Coupon{
			Main:      mains[i].nums,
			Stars:     stars[i].nums,
			MainScore: mains[i].score,
			StarScore: stars[i].score,
		}
	}
	return coupons
}

func (b *Builder) mainCombos(scores []models.AetherScore, delta analysis.DeltaStats) []combo {
	pool := scores
	if len(pool) > b.table.CouponPool {
		pool = pool[:b.table.CouponPool]
	}
	if len(pool) < models.MainCount {
		return nil
	}

	var combos []combo
	nums := make([]int, models.MainCount)
	Combinations(len(pool), models.MainCount, func(idx []int) {
		sum := 0.0
		for i, j := range idx {
			nums[i] = pool[j].Number
			sum += pool[j].Score
		}
		sorted := append([]int(nil), nums...)
		sort.Ints(sorted)
		if !b.structurallyValid(sorted) {
			return
		}
		combos = append(combos, combo{nums: sorted, score: sum + b.mainBonus(sorted, delta)})
	})
	sort.SliceStable(combos, func(i, j int) bool { return combos[i].score > combos[j].score })
	if len(combos) > b.table.CouponCount {
		combos = combos[:b.table.CouponCount]
	}
	if len(combos) < b.table.CouponCount {
		combos = b.fill(combos, pool, delta)
	}
	return combos
}

// fill tops up the main combinations with random subsets of the pool.
func (b *Builder) fill(combos []combo, pool []models.AetherScore, delta analysis.DeltaStats) []combo {
	seen := make(map[[models.MainCount]int]bool, b.table.CouponCount)
	for _, c := range combos {
		seen[key(c.nums)] = true
	}
	for attempt := 0; attempt < 100*b.table.CouponCount && len(combos) < b.table.CouponCount; attempt++ {
		picks := b.rng.Perm(len(pool))[:models.MainCount]
		nums := make([]int, models.MainCount)
		sum := 0.0
		for i, j := range picks {
			nums[i] = pool[j].Number
			sum += pool[j].Score
		}
		sort.Ints(nums)
		k := key(nums)
		if seen[k] {
			continue
		}
		seen[k] = true
		combos = append(combos, combo{nums: nums, score: sum + b.mainBonus(nums, delta)})
	}
	return combos
}

func key(nums []int) [models.MainCount]int {
	var k [models.MainCount]int
	copy(k[:], nums)
	return k
}

// structurallyValid requires at least two zones and no long consecutive run.
func (b *Builder) structurallyValid(sorted []int) bool {
	if b.zones(sorted) < 2 {
		return false
	}
	run := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
			if run > maxRun {
				return false
			}
		} else {
			run = 1
		}
	}
	return true
}

func (b *Builder) zones(nums []int) int {
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		seen[analysis.ZoneOf(n, b.table)] = true
	}
	return len(seen)
}

func (b *Builder) mainBonus(sorted []int, delta analysis.DeltaStats) float64 {
	odd, sum := 0, 0
	for _, n := range sorted {
		sum += n
		if n%2 == 1 {
			odd++
		}
	}
	spread := sorted[len(sorted)-1] - sorted[0]

	bonus := 0.0
	if odd == 2 || odd == 3 {
		bonus += 20
	}
	if sum >= 100 && sum <= 155 {
		bonus += 15
	}
	if spread >= 25 && spread <= 45 {
		bonus += 15
	}
	if b.zones(sorted) >= 3 {
		bonus += 10
	}
	avgGap := float64(spread) / float64(len(sorted)-1)
	if delta.Average > 0 && math.Abs(avgGap-delta.Average) <= b.table.DeltaTolerance {
		bonus += 10
	}
	return bonus
}

func (b *Builder) starCombos(scores []models.AetherScore) []combo {
	if len(scores) < models.StarCount {
		return nil
	}
	var combos []combo
	Combinations(len(scores), models.StarCount, func(idx []int) {
		x, y := scores[idx[0]], scores[idx[1]]
		nums := []int{x.Number, y.Number}
		sort.Ints(nums)
		score := x.Score + y.Score
		if s := nums[0] + nums[1]; s >= 8 && s <= 16 {
			score += 10
		}
		if (nums[0]+nums[1])%2 == 1 {
			score += 15
		}
		combos = append(combos, combo{nums: nums, score: score})
	})
	sort.SliceStable(combos, func(i, j int) bool { return combos[i].score > combos[j].score })
	if len(combos) > b.table.CouponCount {
		combos = combos[:b.table.CouponCount]
	}
	return combos
}
