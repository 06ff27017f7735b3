package analysis

import "math"

// Welford accumulates a running mean and variance.
type Welford struct {
	Count int
	Mean  float64
	M2    float64
}

// Add folds x into the running statistics.
func (w *Welford) Add(x float64) {
	w.Count++
	delta := x - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := x - w.Mean
	w.M2 += delta * delta2
}

// StdDev is the sample standard deviation, 0 with fewer than two samples.
func (w *Welford) StdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count-1))
}
