// ABOUTME: Result generator producing one weighted tear result per call
// ABOUTME: Randomness is injected so tests can replay a fixed seed

// Package manifest decides what appears when the scroll is torn.
//
// A Generator draws a result kind with weights adjusted by cultivation level
// (see AdjustedWeights) and formats it for display. Generation does not read
// or write user state; callers pass the level and day explicitly, or a
// StateReader via GenerateFor.
//
// # Randomness
//
// Draws come from a Source. NewGenerator seeds a PCG source from crypto/rand;
// NewSeededGenerator takes a fixed seed and replays the same sequence of
// results for the same sequence of calls. None of this is meant to be
// provably fair or unpredictable.
package manifest

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/2389/wen/internal/scroll"
)

// Source is the randomness a Generator draws from. *rand.Rand satisfies it.
type Source interface {
	// IntN returns a uniform int in [0, n). n is always positive.
	IntN(n int) int
}

// StateReader is the read-only view of a session a Generator needs.
type StateReader interface {
	CultivationLevel() int
	CurrentDay() int
}

// Generator produces tear results. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	src Source
}

// NewGenerator returns a Generator seeded from crypto/rand.
func NewGenerator() (*Generator, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededGenerator(seed), nil
}

// NewSeededGenerator returns a Generator whose draws are fully determined by seed.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGeneratorFromSource(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewGeneratorFromSource returns a Generator drawing from src.
func NewGeneratorFromSource(src Source) *Generator {
	return &Generator{src: src}
}

// Generate draws a result for a user at the given cultivation level on the
// given day. The day only affects the display of a marker result.
func (g *Generator) Generate(level, day int) scroll.Result {
	weights := AdjustedWeights(level)

	g.mu.Lock()
	defer g.mu.Unlock()

	kind := weights.pick(g.src.IntN(weights.Total()))
	return g.format(kind, day)
}

// GenerateFor draws a result using the level and day of a session.
func (g *Generator) GenerateFor(s StateReader) scroll.Result {
	return g.Generate(s.CultivationLevel(), s.CurrentDay())
}

// format must be called with g.mu held.
func (g *Generator) format(kind scroll.Kind, day int) scroll.Result {
	switch kind {
	case scroll.KindIncrement:
		return scroll.Result{Kind: kind, Display: "+1", Value: 1, EntryClass: scroll.EntryTorn}
	case scroll.KindEmpty:
		symbol := scroll.EmptySymbols[g.src.IntN(len(scroll.EmptySymbols))]
		return scroll.Result{Kind: kind, Display: symbol, Value: 0, EntryClass: scroll.EntryEmpty}
	case scroll.KindMarker:
		return scroll.Result{Kind: kind, Display: fmt.Sprintf("day %d", day), Value: 0, EntryClass: scroll.EntryUnchanged}
	default:
		return scroll.Result{Kind: scroll.KindNeutral, Display: "0", Value: 0, EntryClass: scroll.EntryTorn}
	}
}

func newSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
