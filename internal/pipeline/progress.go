package pipeline

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// progressTracker combines per-pipeline completion fractions into one
// weighted percentage and throttles the resulting stream. The final 100%
// event is never dropped.
type progressTracker struct {
	mu       sync.Mutex
	weights  map[string]float64
	done     map[string]float64
	limiter  *rate.Limiter
	sink     func(Progress)
	finished bool
}

func newProgressTracker(weights map[string]float64, perSecond float64, sink func(Progress)) *progressTracker {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &progressTracker{
		weights: weights,
		done:    make(map[string]float64, len(weights)),
		limiter: rate.NewLimiter(limit, 1),
		sink:    sink,
	}
}

// report records that stage has completed frac of its work.
func (p *progressTracker) report(stage string, frac float64) {
	if p == nil || p.sink == nil {
		return
	}
	if frac > 1 {
		frac = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.done[stage] = frac

	total, sum := 0.0, 0.0
	for name, w := range p.weights {
		total += w
		sum += w * p.done[name]
	}
	pct := 0.0
	if total > 0 {
		pct = sum / total * 100
	}
	complete := pct >= 100-1e-9
	if complete {
		pct = 100
		p.finished = true
	} else if !p.limiter.AllowN(time.Now(), 1) {
		return
	}
	p.sink(Progress{Stage: stage, Percentage: pct})
}
