package severity

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// DefaultTrees is the ensemble size used when ForestOptions.Trees is unset.
const DefaultTrees = 200

// ForestOptions configures a RandomForest. Zero values select the defaults.
type ForestOptions struct {
	Trees           int    // ensemble size, default 200
	Seed            uint64 // drives bootstrap samples and feature subsets
	MaxDepth        int    // 0 grows trees until leaves are pure
	MinSamplesSplit int    // smallest node that may be split, default 2
	MaxFeatures     int    // features tried per split, default sqrt(n)
	Workers         int    // concurrent tree builders, default GOMAXPROCS
}

// RandomForest is a bagged ensemble of CART trees using Gini impurity.
// Probabilities are the mean of the per-tree leaf class distributions and
// feature importances are the mean decrease in impurity.
//
// Each tree draws from its own generator seeded from the forest seed, so the
// fitted forest does not depend on Workers or goroutine scheduling.
type RandomForest struct {
	opts        ForestOptions
	trees       []*decisionTree
	nClasses    int
	nFeatures   int
	importances []float64
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(opts ForestOptions) *RandomForest {
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &RandomForest{opts: opts}
}

// Fit grows the ensemble.
func (f *RandomForest) Fit(X [][]float64, y []int, nClasses int) error {
	if err := checkTrainingData(X, y, nClasses); err != nil {
		return err
	}
	nFeatures := len(X[0])
	maxFeatures := f.opts.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > nFeatures {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	binary := binaryColumns(X)

	seeder := rand.New(rand.NewPCG(f.opts.Seed, f.opts.Seed^0xda3e39cb94b95bdb))
	seeds := make([]uint64, f.opts.Trees)
	for i := range seeds {
		seeds[i] = seeder.Uint64()
	}

	trees := make([]*decisionTree, f.opts.Trees)
	var g errgroup.Group
	g.SetLimit(f.opts.Workers)
	for t := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seeds[t], uint64(t)))
			sample := make([]int, len(X))
			for i := range sample {
				sample[i] = rng.IntN(len(X))
			}
			b := &treeBuilder{
				X:           X,
				y:           y,
				nClasses:    nClasses,
				binary:      binary,
				maxFeatures: maxFeatures,
				maxDepth:    f.opts.MaxDepth,
				minSplit:    f.opts.MinSamplesSplit,
				rng:         rng,
				features:    make([]int, nFeatures),
				buf:         make([]int, len(X)),
				tree:        &decisionTree{importances: make([]float64, nFeatures)},
			}
			b.build(sample, 0)
			trees[t] = b.tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.nClasses = nClasses
	f.nFeatures = nFeatures
	f.importances = forestImportances(trees, nFeatures)
	return nil
}

// PredictProba averages the leaf distributions of every tree.
func (f *RandomForest) PredictProba(x []float64) []float64 {
	out := make([]float64, f.nClasses)
	if len(f.trees) == 0 {
		return out
	}
	for _, t := range f.trees {
		for c, p := range t.predict(x) {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out
}

// FeatureImportances returns the normalized mean decrease in impurity.
func (f *RandomForest) FeatureImportances() []float64 {
	return slices.Clone(f.importances)
}

// Trees returns the number of fitted trees.
func (f *RandomForest) Trees() int { return len(f.trees) }

func checkTrainingData(X [][]float64, y []int, nClasses int) error {
	if len(X) == 0 {
		return errors.New("fit: no training rows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("fit: %d rows but %d labels", len(X), len(y))
	}
	if nClasses <= 0 {
		return errors.New("fit: no classes")
	}
	width := len(X[0])
	if width == 0 {
		return errors.New("fit: no features")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("fit: row %d has %d features, want %d", i, len(row), width)
		}
		if y[i] < 0 || y[i] >= nClasses {
			return fmt.Errorf("fit: label %d out of range [0, %d)", y[i], nClasses)
		}
	}
	return nil
}

// binaryColumns flags features whose values are all 0 or 1, which can be
// split without sorting.
func binaryColumns(X [][]float64) []bool {
	out := make([]bool, len(X[0]))
	for j := range out {
		out[j] = true
		for _, row := range X {
			if row[j] != 0 && row[j] != 1 {
				out[j] = false
				break
			}
		}
	}
	return out
}

func forestImportances(trees []*decisionTree, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, t := range trees {
		total := 0.0
		for _, v := range t.importances {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range t.importances {
			out[j] += v / total
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total <= 0 {
		for j := range out {
			out[j] = 1 / float64(nFeatures)
		}
		return out
	}
	for j := range out {
		out[j] /= total
	}
	return out
}

// decisionTree stores nodes in a flat slice; node 0 is the root.
type decisionTree struct {
	nodes       []treeNode
	importances []float64 // unnormalized weighted impurity decrease per feature
}

type treeNode struct {
	feature     int // -1 marks a leaf
	threshold   float64
	left, right int
	proba       []float64
}

func (t *decisionTree) predict(x []float64) []float64 {
	n := &t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = &t.nodes[n.left]
		} else {
			n = &t.nodes[n.right]
		}
	}
	return n.proba
}

type treeBuilder struct {
	X           [][]float64
	y           []int
	nClasses    int
	binary      []bool
	maxFeatures int
	maxDepth    int
	minSplit    int
	rng         *rand.Rand
	features    []int
	buf         []int
	tree        *decisionTree
}

// candidate is a split under evaluation. score is sum(left²)/nl + sum(right²)/nr
// over class counts; a higher score means lower weighted Gini impurity.
type candidate struct {
	feature   int
	threshold float64
	score     float64
}

// build grows the subtree for the samples in idx, reordering idx in place,
// and returns the new node's index.
func (b *treeBuilder) build(idx []int, depth int) int {
	counts := b.classCounts(idx)
	id := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, treeNode{feature: -1})

	if len(idx) < b.minSplit || isPure(counts) || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.tree.nodes[id].proba = distribution(counts)
		return id
	}
	best, ok := b.bestSplit(idx, counts)
	if !ok {
		b.tree.nodes[id].proba = distribution(counts)
		return id
	}

	parent := sumSquares(counts) / float64(len(idx))
	b.tree.importances[best.feature] += max(0, best.score-parent)

	k := b.partition(idx, best)
	left := b.build(idx[:k], depth+1)
	right := b.build(idx[k:], depth+1)

	node := &b.tree.nodes[id]
	node.feature = best.feature
	node.threshold = best.threshold
	node.left = left
	node.right = right
	return id
}

// bestSplit tries features in random order until maxFeatures non-constant
// ones have been evaluated.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (candidate, bool) {
	for i := range b.features {
		b.features[i] = i
	}
	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})

	best := candidate{feature: -1}
	visited := 0
	for _, f := range b.features {
		var c candidate
		var ok bool
		if b.binary[f] {
			c, ok = b.evaluateBinary(f, idx, counts)
		} else {
			c, ok = b.evaluateSorted(f, idx, counts)
		}
		if !ok {
			continue
		}
		if best.feature < 0 || c.score > best.score {
			best = c
		}
		visited++
		if visited >= b.maxFeatures {
			break
		}
	}
	return best, best.feature >= 0
}

func (b *treeBuilder) evaluateBinary(f int, idx []int, counts []int) (candidate, bool) {
	left := make([]int, b.nClasses)
	nl := 0
	for _, i := range idx {
		if b.X[i][f] <= 0.5 {
			left[b.y[i]]++
			nl++
		}
	}
	nr := len(idx) - nl
	if nl == 0 || nr == 0 {
		return candidate{}, false
	}
	var sl, sr float64
	for c := range counts {
		l := float64(left[c])
		r := float64(counts[c] - left[c])
		sl += l * l
		sr += r * r
	}
	return candidate{feature: f, threshold: 0.5, score: sl/float64(nl) + sr/float64(nr)}, true
}

func (b *treeBuilder) evaluateSorted(f int, idx []int, counts []int) (candidate, bool) {
	sorted := b.buf[:len(idx)]
	copy(sorted, idx)
	slices.SortFunc(sorted, func(i, j int) int { return cmp.Compare(b.X[i][f], b.X[j][f]) })

	n := len(sorted)
	if b.X[sorted[0]][f] == b.X[sorted[n-1]][f] {
		return candidate{}, false
	}

	left := make([]int, b.nClasses)
	right := slices.Clone(counts)
	sl, sr := 0.0, sumSquares(counts)
	best := candidate{feature: -1}
	for i := 0; i < n-1; i++ {
		c := b.y[sorted[i]]
		sl += float64(2*left[c] + 1)
		left[c]++
		sr -= float64(2*right[c] - 1)
		right[c]--

		v, next := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
		if v == next {
			continue
		}
		nl := float64(i + 1)
		score := sl/nl + sr/(float64(n)-nl)
		if best.feature < 0 || score > best.score {
			best = candidate{feature: f, threshold: v + (next-v)/2, score: score}
		}
	}
	return best, best.feature >= 0
}

// partition moves samples going left to the front of idx and returns their count.
func (b *treeBuilder) partition(idx []int, s candidate) int {
	k := 0
	for i := range idx {
		if b.X[idx[i]][s.feature] <= s.threshold {
			idx[i], idx[k] = idx[k], idx[i]
			k++
		}
	}
	return k
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func isPure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func sumSquares(counts []int) float64 {
	s := 0.0
	for _, c := range counts {
		s += float64(c) * float64(c)
	}
	return s
}

func distribution(counts []int) []float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for c, n := range counts {
		out[c] = float64(n) / float64(total)
	}
	return out
}
