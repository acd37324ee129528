package automl

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CVFold holds the train and test row indices for one cross-validation
// fold.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter produces cross-validation folds over a dataset.
type Splitter interface {
	Split(X, y mat.Matrix) []CVFold
	GetNSplits() int
}

// KFold partitions rows into contiguous folds, optionally shuffling
// first. The same seed always yields the same folds.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewKFold creates a splitter with nSplits folds, forcing at least 2.
func NewKFold(nSplits int, shuffle bool, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. y is unused.
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewSource(kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[current:current+testSize])

		inTest := make(map[int]bool, testSize)
		for _, idx := range testIndices {
			inTest[idx] = true
		}
		trainIndices := make([]int, 0, nSamples-testSize)
		for _, idx := range indices {
			if !inTest[idx] {
				trainIndices = append(trainIndices, idx)
			}
		}

		folds[i] = CVFold{TrainIndices: trainIndices, TestIndices: testIndices}
		current += testSize
	}
	return folds
}

// StratifiedKFold keeps each fold's class proportions close to the full
// dataset's. Classification comparisons use it so small classes appear
// in every fold.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewStratifiedKFold creates a stratified splitter with nSplits folds,
// forcing at least 2.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates train/test indices for each fold, distributing every
// class across folds in proportion.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()

	byClass := groupByClass(y, nSamples)
	labels := sortedClassLabels(byClass)

	if skf.Shuffle {
		r := rand.New(rand.NewSource(skf.Seed))
		for _, label := range labels {
			indices := byClass[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)
	for _, label := range labels {
		indices := byClass[label]
		foldSize := len(indices) / skf.NSplits
		remainder := len(indices) % skf.NSplits

		current := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[current:current+testSize]...)
			current += testSize
		}
	}

	for i := range folds {
		inTest := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			inTest[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !inTest[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}
	return folds
}

// groupByClass maps each target label to the rows carrying it.
func groupByClass(y mat.Matrix, nSamples int) map[float64][]int {
	byClass := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		byClass[label] = append(byClass[label], i)
	}
	return byClass
}

// sortedClassLabels fixes the label iteration order so shuffling and
// fold assembly are deterministic.
func sortedClassLabels(byClass map[float64][]int) []float64 {
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)
	return labels
}

// holdoutIndices splits n rows into train and holdout sets after a
// seeded shuffle.
func holdoutIndices(n int, holdFrac float64, seed int64) (train, hold []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	holdCount := int(float64(n) * holdFrac)
	return indices[holdCount:], indices[:holdCount]
}

// stratifiedHoldoutIndices takes holdFrac of every class, so the
// holdout keeps the training label mix.
func stratifiedHoldoutIndices(y mat.Matrix, holdFrac float64, seed int64) (train, hold []int) {
	n, _ := y.Dims()
	byClass := groupByClass(y, n)
	labels := sortedClassLabels(byClass)

	r := rand.New(rand.NewSource(seed))
	for _, label := range labels {
		indices := byClass[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		holdCount := int(float64(len(indices)) * holdFrac)
		hold = append(hold, indices[:holdCount]...)
		train = append(train, indices[holdCount:]...)
	}
	sort.Ints(train)
	sort.Ints(hold)
	return train, hold
}

// subsetRows copies the given rows of X into a new matrix.
func subsetRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, row := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(row, j))
		}
	}
	return out
}

// subsetColumn copies the given rows of a column vector y.
func subsetColumn(y mat.Matrix, idx []int) *mat.Dense {
	out := mat.NewDense(len(idx), 1, nil)
	for i, row := range idx {
		out.Set(i, 0, y.At(row, 0))
	}
	return out
}
