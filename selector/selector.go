package selector

import (
	"errors"
	"fmt"
	"math/rand"
)

// Mode controls how items are picked from a pool.
type Mode string

const (
	// ModeRandom picks uniformly at random on every call.
	ModeRandom Mode = "random"
	// ModeLinear cycles through the pool in order, one cursor per slot.
	ModeLinear Mode = "linear"
)

// ErrEmptyPool indicates a selection was attempted on an empty pool.
var ErrEmptyPool = errors.New("selection pool is empty")

// attachCountDist is the fixed distribution over attachment counts per
// message. Filtered entries are renormalized before drawing.
var attachCountDist = []struct {
	Count  int
	Weight float64
}{
	{1, 0.80},
	{2, 0.15},
	{3, 0.04},
	{4, 0.01},
}

// Selector picks items from content pools. In linear mode it keeps one
// cursor per slot so independent slots (sender, recipient, body, attachment)
// cycle independently.
type Selector struct {
	mode    Mode
	rng     *rand.Rand
	cursors map[string]int
}

func New(mode Mode, rng *rand.Rand) *Selector {
	return &Selector{
		mode:    mode,
		rng:     rng,
		cursors: make(map[string]int),
	}
}

// Choose returns one item from the pool for the given slot.
func (s *Selector) Choose(slot string, items []string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("slot %s: %w", slot, ErrEmptyPool)
	}

	if s.mode == ModeLinear {
		i := s.cursors[slot] % len(items)
		s.cursors[slot] = (i + 1) % len(items)
		return items[i], nil
	}

	return items[s.rng.Intn(len(items))], nil
}

// PickN returns n selections for one slot. Linear mode repeats Choose, so
// duplicates occur only after the pool is exhausted. Random mode samples
// without replacement up to the pool size and with replacement beyond it.
func (s *Selector) PickN(slot string, items []string, n int) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("slot %s: %w", slot, ErrEmptyPool)
	}

	picked := make([]string, 0, n)

	if s.mode == ModeLinear {
		for i := 0; i < n; i++ {
			item, err := s.Choose(slot, items)
			if err != nil {
				return nil, err
			}
			picked = append(picked, item)
		}
		return picked, nil
	}

	if n <= len(items) {
		for _, idx := range s.rng.Perm(len(items))[:n] {
			picked = append(picked, items[idx])
		}
		return picked, nil
	}

	picked = append(picked, items...)
	for len(picked) < n {
		picked = append(picked, items[s.rng.Intn(len(items))])
	}
	return picked, nil
}

// WeightedCount draws an attachment count from the fixed distribution,
// restricted to counts not exceeding max. Returns 1 when no entry survives
// the cap.
func (s *Selector) WeightedCount(max int) int {
	var total float64
	for _, e := range attachCountDist {
		if e.Count <= max {
			total += e.Weight
		}
	}
	if total <= 0 {
		return 1
	}

	r := s.rng.Float64() * total
	upto := 0.0
	last := 1
	for _, e := range attachCountDist {
		if e.Count > max {
			continue
		}
		last = e.Count
		if upto+e.Weight >= r {
			return e.Count
		}
		upto += e.Weight
	}
	return last
}
