package topics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
)

// K-means defaults.
const (
	DefaultNInit   = 10
	DefaultMaxIter = 300
	DefaultTol     = 1e-4
	DefaultSeed    = 42
)

// KMeansOptions configures a clustering run.
type KMeansOptions struct {
	K       int
	NInit   int
	MaxIter int
	// Tol is relative to the mean per-feature variance of the data.
	Tol  float64
	Seed uint64
}

// KMeansResult is the best of NInit runs by inertia.
type KMeansResult struct {
	Centroids  [][]float64
	Labels     []int
	Inertia    float64
	Iterations int
}

// KMeans clusters points into K groups. Each restart seeds with k-means++
// from its own stream derived from Seed, runs Lloyd iterations, and the run
// with the lowest inertia wins (earliest on ties).
func KMeans(points [][]float64, opts KMeansOptions) (*KMeansResult, error) {
	n := len(points)
	if n == 0 {
		return nil, fmt.Errorf("kmeans: no points: %w", internalerr.ErrInvalidInput)
	}
	if opts.K < 1 || opts.K > n {
		return nil, fmt.Errorf("kmeans: k=%d must be in [1, %d]: %w", opts.K, n, internalerr.ErrInvalidInput)
	}
	if opts.NInit <= 0 {
		opts.NInit = DefaultNInit
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.Tol < 0 {
		opts.Tol = DefaultTol
	}
	tol := opts.Tol * meanVariance(points)

	var best *KMeansResult
	for run := 0; run < opts.NInit; run++ {
		r := newRand(opts.Seed, uint64(run))
		centers := initPlusPlus(points, opts.K, r)
		res := lloyd(points, centers, opts.MaxIter, tol)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}

	if !finiteMatrix(best.Centroids) || math.IsNaN(best.Inertia) {
		return nil, fmt.Errorf("kmeans: non-finite centroids: %w", internalerr.ErrNumerical)
	}
	return best, nil
}

// initPlusPlus picks K initial centers with greedy k-means++: each step
// samples a few candidates proportionally to squared distance and keeps the
// one that lowers the potential most.
func initPlusPlus(points [][]float64, k int, r *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	first := r.IntN(n)
	centers = append(centers, clone(points[first]))

	closest := make([]float64, n)
	var pot float64
	for i, p := range points {
		closest[i] = sqDist(p, centers[0])
		pot += closest[i]
	}

	for len(centers) < k {
		bestCand := -1
		bestPot := math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			cand := sampleIndex(closest, pot, r)
			dist := make([]float64, n)
			var candPot float64
			for i, p := range points {
				dist[i] = math.Min(closest[i], sqDist(p, points[cand]))
				candPot += dist[i]
			}
			if candPot < bestPot {
				bestCand, bestPot, bestDist = cand, candPot, dist
			}
		}
		centers = append(centers, clone(points[bestCand]))
		closest, pot = bestDist, bestPot
	}
	return centers
}

func sampleIndex(weights []float64, total float64, r *rand.Rand) int {
	if total <= 0 {
		return r.IntN(len(weights))
	}
	target := r.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum > target {
			return i
		}
	}
	return len(weights) - 1
}

func lloyd(points, centers [][]float64, maxIter int, tol float64) *KMeansResult {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < maxIter {
		iter++
		changed := assignNearest(points, centers, labels)
		next := recomputeCenters(points, centers, labels)

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next

		if !changed || shift <= tol {
			break
		}
	}
	assignNearest(points, centers, labels)

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return &KMeansResult{Centroids: centers, Labels: labels, Inertia: inertia, Iterations: iter}
}

// assignNearest labels each point with its closest center, lowest index on
// ties, and reports whether any label changed.
func assignNearest(points, centers [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recomputeCenters returns the mean of each cluster. Empty clusters take the
// points farthest from their current centers, which leave their old cluster.
func recomputeCenters(points, centers [][]float64, labels []int) [][]float64 {
	k, dim := len(centers), len(points[0])
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for j, x := range p {
			sums[c][j] += x
		}
	}

	var empty []int
	for c, n := range counts {
		if n == 0 {
			empty = append(empty, c)
		}
	}
	if len(empty) > 0 {
		order := make([]int, len(points))
		for i := range order {
			order[i] = i
		}
		dist := make([]float64, len(points))
		for i, p := range points {
			dist[i] = sqDist(p, centers[labels[i]])
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] > dist[order[b]] })

		for e, c := range empty {
			if e >= len(order) {
				break
			}
			i := order[e]
			old := labels[i]
			counts[old]--
			for j, x := range points[i] {
				sums[old][j] -= x
				sums[c][j] = x
			}
			counts[c] = 1
		}
	}

	next := make([][]float64, k)
	for c := range next {
		if counts[c] == 0 {
			next[c] = clone(centers[c])
			continue
		}
		next[c] = make([]float64, dim)
		for j := range sums[c] {
			next[c][j] = sums[c][j] / float64(counts[c])
		}
	}
	return next
}

func meanVariance(points [][]float64) float64 {
	n, dim := float64(len(points)), len(points[0])
	if dim == 0 {
		return 0
	}
	var total float64
	for j := 0; j < dim; j++ {
		var sum, sumSq float64
		for _, p := range points {
			sum += p[j]
			sumSq += p[j] * p[j]
		}
		mean := sum / n
		total += sumSq/n - mean*mean
	}
	return total / float64(dim)
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
