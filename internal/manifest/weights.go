// ABOUTME: Cultivation-adjusted result weights and band selection
// ABOUTME: Weights are a fixed-order table so selection stays reproducible under a seed

package manifest

import "github.com/2389/wen/internal/scroll"

// Weights holds the selection weight of each result kind, indexed in
// scroll.Kinds order.
type Weights [len(scroll.Kinds)]int

// BaseWeights returns the unadjusted weights.
func BaseWeights() Weights {
	return Weights{
		scroll.WeightIncrement,
		scroll.WeightNeutral,
		scroll.WeightEmpty,
		scroll.WeightMarker,
	}
}

// AdjustedWeights returns the weights for a cultivation level. Each level above
// 1 shifts weight from Empty to Increment, capped, and Empty keeps a floor.
// Levels outside [1, scroll.MaxLevel] are clamped.
func AdjustedWeights(level int) Weights {
	level = max(1, min(level, scroll.MaxLevel))
	delta := min((level-1)*scroll.LevelWeightStep, scroll.LevelWeightCap)

	w := BaseWeights()
	w[0] += delta
	w[2] = max(w[2]-delta, scroll.EmptyWeightFloor)
	return w
}

// Total returns the sum of all weights.
func (w Weights) Total() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// Of returns the weight of kind k, or 0 for an unknown kind.
func (w Weights) Of(k scroll.Kind) int {
	for i, kind := range scroll.Kinds {
		if kind == k {
			return w[i]
		}
	}
	return 0
}

// pick maps r in [0, Total()) to a kind. Each kind owns the half-open band
// [cumulative, cumulative+weight), so adjacent bands never overlap.
func (w Weights) pick(r int) scroll.Kind {
	cumulative := 0
	for i, weight := range w {
		cumulative += weight
		if r < cumulative {
			return scroll.Kinds[i]
		}
	}
	return scroll.KindNeutral
}
