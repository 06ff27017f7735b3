package backtest

import (
	"fmt"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/scoring"
)

// Timeline splits the log into at most buckets contiguous slices and
// averages each one.
func Timeline(log []models.PerformanceLogItem, buckets int) []models.TimelineBucket {
	out := []models.TimelineBucket{}
	if len(log) == 0 || buckets <= 0 {
		return out
	}
	size := (len(log) + buckets - 1) / buckets
	for start, b := 0, 0; start < len(log); start, b = start+size, b+1 {
		end := start + size
		if end > len(log) {
			end = len(log)
		}
		chunk := log[start:end]
		tb := models.TimelineBucket{
			Bucket:    b + 1,
			StartDate: chunk[0].DrawDate,
			EndDate:   chunk[len(chunk)-1].DrawDate,
			Draws:     len(chunk),
		}
		for _, it := range chunk {
			tb.AvgMainHits += float64(it.MainHits)
			tb.AvgStarHits += float64(it.StarHits)
			tb.AvgBaselineHits += float64(it.BaselineHits)
			tb.AvgWinnerRank += it.AverageWinnerRank
		}
		n := float64(len(chunk))
		tb.AvgMainHits /= n
		tb.AvgStarHits /= n
		tb.AvgBaselineHits /= n
		tb.AvgWinnerRank /= n
		out = append(out, tb)
	}
	return out
}

// Breakdown groups results by calendar context and compares the engine
// forecast with the frequency baseline draw by draw.
func Breakdown(log []models.PerformanceLogItem) models.PerformanceBreakdown {
	byCtx := make(map[models.CalendarContext]*models.ContextPerformance)
	var ab models.ABComparison
	for _, it := range log {
		cp, ok := byCtx[it.Context]
		if !ok {
			cp = &models.ContextPerformance{Context: it.Context}
			byCtx[it.Context] = cp
		}
		cp.Draws++
		cp.AvgMainHits += float64(it.MainHits)
		cp.AvgStarHits += float64(it.StarHits)
		cp.AvgBaselineHits += float64(it.BaselineHits)

		switch {
		case it.MainHits > it.BaselineHits:
			ab.EngineWins++
		case it.MainHits < it.BaselineHits:
			ab.BaselineWins++
		default:
			ab.Ties++
		}
		ab.EngineAvg += float64(it.MainHits)
		ab.BaselineAvg += float64(it.BaselineHits)
	}

	out := models.PerformanceBreakdown{ByContext: []models.ContextPerformance{}}
	for _, c := range models.CalendarContexts {
		cp, ok := byCtx[c]
		if !ok {
			continue
		}
		n := float64(cp.Draws)
		cp.AvgMainHits /= n
		cp.AvgStarHits /= n
		cp.AvgBaselineHits /= n
		out.ByContext = append(out.ByContext, *cp)
	}
	if len(log) > 0 {
		ab.EngineAvg /= float64(len(log))
		ab.BaselineAvg /= float64(len(log))
	}
	ab.Lift = lift(ab.EngineAvg, ab.BaselineAvg)
	out.AB = ab
	return out
}

func lift(engine, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (engine - baseline) / baseline * 100
}

type factorRate struct {
	name string
	rate float64
}

func factorRates(p models.HistoricalSuccessProfile) []factorRate {
	return []factorRate{
		{"hot", p.Hot},
		{"cold", p.Cold},
		{"overdue", p.Overdue},
		{"hotZone", p.HotZone},
		{"momentum", p.Momentum},
		{"clusterStrength", p.ClusterStrength},
		{"seasonal", p.Seasonal},
		{"companion", p.Companion},
		{"stability", p.Stability},
	}
}

// AnalyzeSuccess summarises the factor profile of every realized winner.
func AnalyzeSuccess(profiles []models.WinnerProfile) models.HistoricalSuccessAnalysis {
	a := models.HistoricalSuccessAnalysis{
		Profile:       scoring.BuildProfile(profiles),
		TotalProfiles: len(profiles),
	}
	if len(profiles) == 0 {
		return a
	}
	rates := factorRates(a.Profile)
	best, worst := rates[0], rates[0]
	for _, fr := range rates[1:] {
		if fr.rate > best.rate {
			best = fr
		}
		if fr.rate < worst.rate {
			worst = fr
		}
	}
	a.StrongestFactor = best.name
	a.WeakestFactor = worst.name

	for _, p := range profiles {
		a.AvgPrevSpread += float64(p.PrevSpread)
		a.AvgPrevSum += float64(p.PrevSum)
	}
	a.AvgPrevSpread /= float64(len(profiles))
	a.AvgPrevSum /= float64(len(profiles))
	return a
}

// Insight derives the forecast-performance summary of a finished run.
func Insight(res *Result) models.ForecastInsight {
	in := models.ForecastInsight{
		Draws:           len(res.Log),
		HitDistribution: make(map[int]int, models.MainCount+1),
		Trend:           "flat",
		BestFactor:      res.Success.StrongestFactor,
	}
	for h := 0; h <= models.MainCount; h++ {
		in.HitDistribution[h] = 0
	}
	if len(res.Log) == 0 {
		in.Summary = "not enough history to backtest"
		return in
	}
	for _, it := range res.Log {
		in.AvgMainHits += float64(it.MainHits)
		in.AvgStarHits += float64(it.StarHits)
		in.AvgBaselineHits += float64(it.BaselineHits)
		in.AvgWinnerRank += it.AverageWinnerRank
		in.HitDistribution[it.MainHits]++
	}
	n := float64(len(res.Log))
	in.AvgMainHits /= n
	in.AvgStarHits /= n
	in.AvgBaselineHits /= n
	in.AvgWinnerRank /= n
	in.Lift = lift(in.AvgMainHits, in.AvgBaselineHits)

	if len(res.Timeline) >= 2 {
		first := res.Timeline[0].AvgMainHits
		last := res.Timeline[len(res.Timeline)-1].AvgMainHits
		switch {
		case last-first > 0.1:
			in.Trend = "improving"
		case first-last > 0.1:
			in.Trend = "declining"
		}
	}
	in.Summary = fmt.Sprintf("%.2f main hits per draw against %.2f for the frequency baseline (%+.1f%%), trend %s",
		in.AvgMainHits, in.AvgBaselineHits, in.Lift, in.Trend)
	return in
}

// expectedBirthdayShare is the share of 1-31 in a uniform 1-50 draw.
const expectedBirthdayShare = 31.0 / 50.0

// Validate compares holiday contexts with regular draws and measures how
// often the realized winners fell in the birthday range.
func Validate(log []models.PerformanceLogItem) models.ContextValidation {
	v := models.ContextValidation{
		Contexts:              []models.ContextDelta{},
		ExpectedBirthdayShare: expectedBirthdayShare,
	}
	if len(log) == 0 {
		return v
	}

	bd := Breakdown(log)
	regular := 0.0
	for _, cp := range bd.ByContext {
		if cp.Context == models.ContextRegular {
			regular = cp.AvgMainHits
		}
	}
	for _, cp := range bd.ByContext {
		v.Contexts = append(v.Contexts, models.ContextDelta{
			Context:     cp.Context,
			Draws:       cp.Draws,
			AvgMainHits: cp.AvgMainHits,
			Delta:       cp.AvgMainHits - regular,
		})
	}

	birthday, total := 0, 0
	for _, it := range log {
		for _, n := range it.ActualMain {
			total++
			if n <= 31 {
				birthday++
			}
		}
	}
	if total > 0 {
		v.BirthdayShare = float64(birthday) / float64(total)
	}
	v.BirthdayBias = v.BirthdayShare - expectedBirthdayShare
	return v
}
