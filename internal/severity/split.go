package severity

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrStratify is returned when a class has too few rows to appear in both partitions.
var ErrStratify = errors.New("stratified split")

// DefaultTestFraction is the held-out share used when none is configured.
const DefaultTestFraction = 0.2

// StratifiedSplit partitions row indices so every class keeps its share in
// both partitions. Each class contributes round(n*testFraction) rows to the
// test partition, at least one and never all of them. The result is a pure
// function of the labels, fraction and seed; both slices are sorted.
func StratifiedSplit(labels []int, testFraction float64, seed uint64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v outside (0, 1)", ErrStratify, testFraction)
	}
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("%w: no rows", ErrStratify)
	}

	byClass := map[int][]int{}
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	for _, c := range classes {
		rows := byClass[c]
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("%w: class %d has %d row(s), need at least 2", ErrStratify, c, len(rows))
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		n := int(math.Round(float64(len(rows)) * testFraction))
		n = min(max(n, 1), len(rows)-1)
		test = append(test, rows[:n]...)
		train = append(train, rows[n:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}
