// ABOUTME: Tests for weighted result generation
// ABOUTME: Checks weight adjustment, band boundaries, formatting and long-run distribution

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/wen/internal/scroll"
)

// fixedSource returns queued values in order, then repeats the last one.
type fixedSource struct {
	values []int
	calls  []int
}

func (f *fixedSource) IntN(n int) int {
	f.calls = append(f.calls, n)
	v := f.values[0]
	if len(f.values) > 1 {
		f.values = f.values[1:]
	}
	return v % n
}

type stubState struct{ level, day int }

func (s stubState) CultivationLevel() int { return s.level }
func (s stubState) CurrentDay() int       { return s.day }

func TestAdjustedWeights(t *testing.T) {
	tests := []struct {
		level int
		want  Weights
	}{
		{1, Weights{40, 30, 20, 10}},
		{2, Weights{45, 30, 15, 10}},
		{3, Weights{50, 30, 10, 10}},
		{4, Weights{55, 30, 5, 10}},
		{5, Weights{60, 30, 5, 10}},
		{10, Weights{60, 30, 5, 10}},
		{0, Weights{40, 30, 20, 10}},
		{99, Weights{60, 30, 5, 10}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AdjustedWeights(tt.level), "level %d", tt.level)
	}
}

func TestWeightsOf(t *testing.T) {
	w := AdjustedWeights(2)
	assert.Equal(t, 45, w.Of(scroll.KindIncrement))
	assert.Equal(t, 15, w.Of(scroll.KindEmpty))
	assert.Equal(t, 0, w.Of(scroll.Kind("bogus")))
	assert.Equal(t, 100, w.Total())
}

func TestGenerate_BandBoundaries(t *testing.T) {
	tests := []struct {
		r    int
		want scroll.Kind
	}{
		{0, scroll.KindIncrement},
		{39, scroll.KindIncrement},
		{40, scroll.KindNeutral},
		{69, scroll.KindNeutral},
		{70, scroll.KindEmpty},
		{89, scroll.KindEmpty},
		{90, scroll.KindMarker},
		{99, scroll.KindMarker},
	}

	for _, tt := range tests {
		src := &fixedSource{values: []int{tt.r, 0}}
		got := NewGeneratorFromSource(src).Generate(1, 1)
		assert.Equal(t, tt.want, got.Kind, "r=%d", tt.r)
		assert.Equal(t, 100, src.calls[0])
	}
}

func TestGenerate_Formatting(t *testing.T) {
	r := NewGeneratorFromSource(&fixedSource{values: []int{0}}).Generate(1, 12)
	assert.Equal(t, scroll.Result{Kind: scroll.KindIncrement, Display: "+1", Value: 1, EntryClass: scroll.EntryTorn}, r)

	r = NewGeneratorFromSource(&fixedSource{values: []int{50}}).Generate(1, 12)
	assert.Equal(t, scroll.Result{Kind: scroll.KindNeutral, Display: "0", Value: 0, EntryClass: scroll.EntryTorn}, r)

	r = NewGeneratorFromSource(&fixedSource{values: []int{95}}).Generate(1, 12)
	assert.Equal(t, scroll.Result{Kind: scroll.KindMarker, Display: "day 12", Value: 0, EntryClass: scroll.EntryUnchanged}, r)

	src := &fixedSource{values: []int{75, 1}}
	r = NewGeneratorFromSource(src).Generate(1, 12)
	assert.Equal(t, scroll.Result{Kind: scroll.KindEmpty, Display: "∅", Value: 0, EntryClass: scroll.EntryEmpty}, r)
	assert.Equal(t, []int{100, len(scroll.EmptySymbols)}, src.calls)
}

func TestGenerateFor_UsesSessionLevelAndDay(t *testing.T) {
	src := &fixedSource{values: []int{104}}
	r := NewGeneratorFromSource(src).GenerateFor(stubState{level: 7, day: 400})

	assert.Equal(t, 105, src.calls[0])
	assert.Equal(t, "day 400", r.Display)
}

func TestGenerate_SeedReplays(t *testing.T) {
	a := NewSeededGenerator(42)
	b := NewSeededGenerator(42)
	for i := range 50 {
		require.Equal(t, a.Generate(3, i+1), b.Generate(3, i+1))
	}
}

func TestGenerate_AlwaysValid(t *testing.T) {
	g := NewSeededGenerator(7)
	for i := range 2000 {
		r := g.Generate(i%12, i+1)
		require.NoError(t, Validate(r))
	}
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	assert.NoError(t, Validate(g.Generate(1, 1)))
}

func TestGenerate_Distribution(t *testing.T) {
	const trials = 100_000

	for _, level := range []int{1, 5} {
		g := NewSeededGenerator(uint64(1000 + level))
		counts := map[scroll.Kind]int{}
		for range trials {
			counts[g.Generate(level, 1).Kind]++
		}

		weights := AdjustedWeights(level)
		total := float64(weights.Total())
		for _, kind := range scroll.Kinds {
			want := float64(weights.Of(kind)) / total
			got := float64(counts[kind]) / trials
			assert.InDelta(t, want, got, 0.02, "level %d kind %s", level, kind)
		}
	}
}
