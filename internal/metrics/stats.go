package metrics

import "sort"

// weightedMedian returns the value at which cumulative weight crosses
// half of the total. Robust to single mis-declared shipments while
// still letting large shipments dominate small ones; scaling every
// weight by the same factor leaves the result unchanged.
func weightedMedian(values, weights []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) == 1 {
		return values[0]
	}

	type pair struct{ v, w float64 }
	pairs := make([]pair, len(values))
	total := 0.0
	for i := range values {
		pairs[i] = pair{values[i], weights[i]}
		total += weights[i]
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	half := total / 2
	cumulative := 0.0
	for _, p := range pairs {
		cumulative += p.w
		if cumulative >= half {
			return p.v
		}
	}
	return pairs[len(pairs)-1].v
}

// iqr returns the interquartile range using the same index convention
// throughout the engine (lower quartile at n/4-1, upper at 3n/4).
func iqr(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := sorted[maxInt(0, len(sorted)/4-1)]
	q3 := sorted[minInt(len(sorted)-1, 3*len(sorted)/4)]
	return q3 - q1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// hhi is the Herfindahl-Hirschman index: the sum of squared shares.
func hhi(volumes map[string]float64) float64 {
	total := 0.0
	for _, v := range volumes {
		total += v
	}
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, v := range volumes {
		share := v / total
		sum += share * share
	}
	return sum
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
