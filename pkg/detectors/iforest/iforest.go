// Package iforest implements the Isolation Forest algorithm for anomaly detection.
//
// Scores follow the decision-function convention: the offset is subtracted from
// the negated anomaly score, so higher values are more normal and negative values
// mark outliers.
package iforest

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hed1ad/affguard/pkg/detectors"
)

// autoOffset is the decision offset used with automatic contamination.
const autoOffset = -0.5

var (
	errEmptyData  = errors.New("empty training data")
	errNotTrained = errors.New("model not trained")
	errWidth      = errors.New("sample width does not match training data")
)

// IsolationForest implements unsupervised anomaly detection using isolation trees.
type IsolationForest struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	maxSamples    int
	contamination float64
	seed          int64

	// Trained model
	trees     []*iTree
	nFeatures int
	psi       int
	offset    float64
	trained   bool
}

// iTree represents a single isolation tree.
type iTree struct {
	root *node
}

// node is a node in the isolation tree.
type node struct {
	// Split parameters (for internal nodes)
	feature int
	split   float64

	// Children
	left  *node
	right *node

	// Leaf information
	size int // number of samples that reached this leaf
}

func (n *node) leaf() bool {
	return n.left == nil && n.right == nil
}

// Option configures an IsolationForest.
type Option func(*IsolationForest)

// WithTrees sets the number of isolation trees.
func WithTrees(n int) Option {
	return func(f *IsolationForest) {
		f.nTrees = n
	}
}

// WithMaxSamples sets the subsample size cap for each tree.
func WithMaxSamples(n int) Option {
	return func(f *IsolationForest) {
		f.maxSamples = n
	}
}

// WithContamination sets the expected proportion of anomalies.
// detectors.ContaminationAuto keeps the fixed offset.
func WithContamination(c float64) Option {
	return func(f *IsolationForest) {
		f.contamination = c
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(f *IsolationForest) {
		f.seed = seed
	}
}

// FromConfig translates a detectors.Config into options.
func FromConfig(cfg detectors.Config) []Option {
	return []Option{
		WithTrees(cfg.Trees),
		WithMaxSamples(cfg.MaxSamples),
		WithContamination(cfg.Contamination),
		WithSeed(cfg.RandomSeed),
	}
}

// New creates a new IsolationForest with the given options.
func New(opts ...Option) *IsolationForest {
	def := detectors.DefaultConfig()
	f := &IsolationForest{
		nTrees:        def.Trees,
		maxSamples:    def.MaxSamples,
		contamination: def.Contamination,
		seed:          def.RandomSeed,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.nTrees < 1 {
		f.nTrees = 1
	}
	if f.maxSamples < 1 {
		f.maxSamples = def.MaxSamples
	}

	return f
}

// Fit trains the Isolation Forest on the provided data.
// Every call reseeds the generator, so equal input yields an equal model.
func (f *IsolationForest) Fit(data [][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data) == 0 {
		return errEmptyData
	}

	nSamples := len(data)
	nFeatures := len(data[0])
	for _, row := range data {
		if len(row) != nFeatures {
			return errWidth
		}
	}

	psi := min(f.maxSamples, nSamples)
	maxDepth := int(math.Ceil(math.Log2(float64(max(psi, 2)))))
	rng := rand.New(rand.NewSource(f.seed))

	b := builder{rng: rng, nFeatures: nFeatures, maxDepth: maxDepth}
	f.trees = make([]*iTree, f.nTrees)
	for i := range f.trees {
		// Sample without replacement
		indices := rng.Perm(nSamples)[:psi]
		sample := make([][]float64, psi)
		for j, idx := range indices {
			sample[j] = data[idx]
		}
		f.trees[i] = &iTree{root: b.build(sample, 0)}
	}

	f.nFeatures = nFeatures
	f.psi = psi
	f.offset = autoOffset
	f.trained = true

	if f.contamination > 0 {
		raw := f.scoreSamples(data)
		f.offset = percentile(raw, 100*f.contamination)
	}

	return nil
}

type builder struct {
	rng       *rand.Rand
	nFeatures int
	maxDepth  int
}

func (b builder) build(data [][]float64, depth int) *node {
	n := len(data)

	// Terminal conditions
	if depth >= b.maxDepth || n <= 1 {
		return &node{size: n}
	}

	// Only features that still vary at this node are split candidates.
	type span struct {
		feature  int
		min, max float64
	}
	candidates := make([]span, 0, b.nFeatures)
	for feature := 0; feature < b.nFeatures; feature++ {
		lo, hi := data[0][feature], data[0][feature]
		for _, row := range data[1:] {
			lo = math.Min(lo, row[feature])
			hi = math.Max(hi, row[feature])
		}
		if lo < hi {
			candidates = append(candidates, span{feature, lo, hi})
		}
	}
	if len(candidates) == 0 {
		return &node{size: n}
	}

	c := candidates[b.rng.Intn(len(candidates))]
	split := c.min + b.rng.Float64()*(c.max-c.min)

	var left, right [][]float64
	for _, row := range data {
		if row[c.feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &node{
		feature: c.feature,
		split:   split,
		left:    b.build(left, depth+1),
		right:   b.build(right, depth+1),
	}
}

// Score returns the decision function for the given samples.
func (f *IsolationForest) Score(data [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, errNotTrained
	}
	for _, row := range data {
		if len(row) != f.nFeatures {
			return nil, errWidth
		}
	}

	scores := f.scoreSamples(data)
	for i := range scores {
		scores[i] -= f.offset
	}
	return scores, nil
}

// scoreSamples returns the negated anomaly score -2^(-E[h(x)]/c(psi)).
func (f *IsolationForest) scoreSamples(data [][]float64) []float64 {
	norm := averagePathLength(float64(f.psi))
	scores := make([]float64, len(data))

	for i, sample := range data {
		var total float64
		for _, tree := range f.trees {
			total += pathLength(sample, tree.root, 0)
		}
		ratio := 1.0
		if norm != 0 {
			ratio = total / float64(len(f.trees)) / norm
		}
		scores[i] = -math.Pow(2, -ratio)
	}

	return scores
}

// pathLength calculates the path length for a sample in a tree.
func pathLength(sample []float64, n *node, depth int) float64 {
	for !n.leaf() {
		if sample[n.feature] < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	// Leaf node: add expected path length for remaining isolation
	return float64(depth) + averagePathLength(float64(n.size))
}

// averagePathLength returns the average path length of unsuccessful search in BST.
func averagePathLength(n float64) float64 {
	switch {
	case n <= 1:
		return 0
	case n <= 2:
		return 1
	}
	// c(n) = 2*H(n-1) - 2*(n-1)/n, H(i) ~ ln(i) + Euler-Mascheroni
	return 2*(math.Log(n-1)+0.5772156649015329) - 2*(n-1)/n
}

// Offset returns the value subtracted from raw scores by Score.
func (f *IsolationForest) Offset() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.offset
}

// percentile calculates the p-th percentile of the data with linear interpolation.
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	pos := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

var _ detectors.Detector = (*IsolationForest)(nil)
