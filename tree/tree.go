// Package tree implements CART decision trees and the ensembles built on
// them: random forests for both tasks and gradient boosting for
// regression. Split search scans midpoints between sorted distinct
// feature values, with variance reduction for regression targets and Gini
// impurity for class targets.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

// Node is one tree node. Leaves carry Value (mean target for regression,
// majority class index for classification) and, for classifiers, the
// class distribution Proba. Fields are exported so trees survive gob
// round trips inside a persisted pipeline.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     float64
	Proba     []float64
	IsLeaf    bool
}

// leafFor walks the tree to the leaf covering x.
func (n *Node) leafFor(x []float64) *Node {
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

// treeParams are the growth limits shared by every tree-based estimator.
type treeParams struct {
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
	seed            int64
}

func defaultTreeParams() treeParams {
	return treeParams{minSamplesSplit: 2, minSamplesLeaf: 1}
}

// TreeOption configures a single decision tree.
type TreeOption func(*treeParams)

// WithMaxDepth caps tree depth; 0 leaves it unlimited.
func WithMaxDepth(d int) TreeOption {
	return func(p *treeParams) { p.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) TreeOption {
	return func(p *treeParams) { p.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples each child must keep.
func WithMinSamplesLeaf(n int) TreeOption {
	return func(p *treeParams) { p.minSamplesLeaf = n }
}

// WithMaxFeatures limits how many features each split considers; 0 uses
// all of them.
func WithMaxFeatures(k int) TreeOption {
	return func(p *treeParams) { p.maxFeatures = k }
}

// WithTreeSeed seeds the feature subsampler.
func WithTreeSeed(seed int64) TreeOption {
	return func(p *treeParams) { p.seed = seed }
}

// grower builds one tree over row indices into rows/targets. For
// classification targets hold class indices and nClasses is positive;
// for regression nClasses is 0.
type grower struct {
	params   treeParams
	rows     [][]float64
	targets  []float64
	nClasses int
	rng      *rand.Rand
}

func (g *grower) build(idx []int, depth int) *Node {
	if g.isPure(idx) ||
		len(idx) < g.params.minSamplesSplit ||
		(g.params.maxDepth > 0 && depth >= g.params.maxDepth) {
		return g.leaf(idx)
	}

	feature, threshold, gain := g.bestSplit(idx)
	if gain <= 0 {
		return g.leaf(idx)
	}

	var left, right []int
	for _, i := range idx {
		if g.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      g.build(left, depth+1),
		Right:     g.build(right, depth+1),
	}
}

// leaf summarizes idx into a terminal node.
func (g *grower) leaf(idx []int) *Node {
	if g.nClasses == 0 {
		sum := 0.0
		for _, i := range idx {
			sum += g.targets[i]
		}
		return &Node{IsLeaf: true, Value: sum / float64(len(idx))}
	}

	counts := g.classCounts(idx)
	proba := make([]float64, g.nClasses)
	best := 0
	for k, c := range counts {
		proba[k] = float64(c) / float64(len(idx))
		if c > counts[best] {
			best = k
		}
	}
	return &Node{IsLeaf: true, Value: float64(best), Proba: proba}
}

func (g *grower) isPure(idx []int) bool {
	first := g.targets[idx[0]]
	for _, i := range idx[1:] {
		if g.targets[i] != first {
			return false
		}
	}
	return true
}

func (g *grower) classCounts(idx []int) []int {
	counts := make([]int, g.nClasses)
	for _, i := range idx {
		counts[int(g.targets[i])]++
	}
	return counts
}

// bestSplit scans candidate features for the threshold with the highest
// impurity gain. Thresholds sit halfway between adjacent distinct values.
func (g *grower) bestSplit(idx []int) (feature int, threshold, gain float64) {
	p := len(g.rows[0])
	candidates := g.candidateFeatures(p)

	parent := g.impurity(idx)
	feature = -1

	pairs := make([]valuePair, len(idx))

	for _, f := range candidates {
		for k, i := range idx {
			pairs[k] = valuePair{g.rows[i][f], i}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		if g.nClasses > 0 {
			leftCounts := make([]int, g.nClasses)
			rightCounts := g.classCountsPairs(pairs)
			for s := 1; s < len(pairs); s++ {
				c := int(g.targets[pairs[s-1].i])
				leftCounts[c]++
				rightCounts[c]--
				if pairs[s].v == pairs[s-1].v {
					continue
				}
				if s < g.params.minSamplesLeaf || len(pairs)-s < g.params.minSamplesLeaf {
					continue
				}
				nl, nr := float64(s), float64(len(pairs)-s)
				weighted := nl/float64(len(pairs))*giniFromCounts(leftCounts, s) +
					nr/float64(len(pairs))*giniFromCounts(rightCounts, len(pairs)-s)
				if got := parent - weighted; got > gain {
					gain = got
					feature = f
					threshold = (pairs[s-1].v + pairs[s].v) / 2
				}
			}
		} else {
			var leftSum, leftSumSq float64
			totalSum, totalSumSq := g.momentsPairs(pairs)
			for s := 1; s < len(pairs); s++ {
				t := g.targets[pairs[s-1].i]
				leftSum += t
				leftSumSq += t * t
				if pairs[s].v == pairs[s-1].v {
					continue
				}
				if s < g.params.minSamplesLeaf || len(pairs)-s < g.params.minSamplesLeaf {
					continue
				}
				nl, nr := float64(s), float64(len(pairs)-s)
				varL := variance(leftSum, leftSumSq, nl)
				varR := variance(totalSum-leftSum, totalSumSq-leftSumSq, nr)
				weighted := nl/float64(len(pairs))*varL + nr/float64(len(pairs))*varR
				if got := parent - weighted; got > gain {
					gain = got
					feature = f
					threshold = (pairs[s-1].v + pairs[s].v) / 2
				}
			}
		}
	}
	return feature, threshold, gain
}

// candidateFeatures returns the feature indices a split may use, shuffled
// and truncated when maxFeatures is set.
func (g *grower) candidateFeatures(p int) []int {
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if g.params.maxFeatures > 0 && g.params.maxFeatures < p && g.rng != nil {
		for i := 0; i < p; i++ {
			j := i + g.rng.Intn(p-i)
			features[i], features[j] = features[j], features[i]
		}
		features = features[:g.params.maxFeatures]
	}
	return features
}

func (g *grower) impurity(idx []int) float64 {
	if g.nClasses > 0 {
		return giniFromCounts(g.classCounts(idx), len(idx))
	}
	var sum, sumSq float64
	for _, i := range idx {
		t := g.targets[i]
		sum += t
		sumSq += t * t
	}
	return variance(sum, sumSq, float64(len(idx)))
}

// valuePair couples one feature value with its row index for sorting.
type valuePair struct {
	v float64
	i int
}

func (g *grower) classCountsPairs(pairs []valuePair) []int {
	counts := make([]int, g.nClasses)
	for _, p := range pairs {
		counts[int(g.targets[p.i])]++
	}
	return counts
}

func (g *grower) momentsPairs(pairs []valuePair) (sum, sumSq float64) {
	for _, p := range pairs {
		t := g.targets[p.i]
		sum += t
		sumSq += t * t
	}
	return sum, sumSq
}

func giniFromCounts(counts []int, n int) float64 {
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

// variance clamps tiny negative values from floating point cancellation.
func variance(sum, sumSq, n float64) float64 {
	v := sumSq/n - (sum/n)*(sum/n)
	if v < 0 {
		return 0
	}
	return v
}

// rowsFromMatrix copies X into row slices for repeated traversal.
func rowsFromMatrix(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

// columnFromMatrix copies the single column of y.
func columnFromMatrix(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = y.At(i, 0)
	}
	return out
}

// validateFitInputs checks the shared shape requirements for fitting.
func validateFitInputs(op string, X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	return nil
}

// allIndices returns 0..n-1.
func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// sqrtFeatures is the classifier default for per-split feature sampling.
func sqrtFeatures(p int) int {
	k := int(math.Sqrt(float64(p)))
	if k < 1 {
		k = 1
	}
	return k
}
