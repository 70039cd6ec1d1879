// Package kmeans clusters RGB points with multi-attempt k-means and keeps
// the attempt with the lowest inertia.
package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Point is one pixel color in RGB space, each channel in [0,1].
type Point [3]float64

// ErrInvalidParameter is returned when the inputs are rejected before any
// clustering work starts.
var ErrInvalidParameter = errors.New("kmeans: invalid parameter")

const (
	DefaultAttempts   = 5
	DefaultIterations = 50
)

// TimeSeed is the zero Seed value: the call derives its seed from the clock.
// Pass any other value for reproducible runs; seed 0 itself is not
// selectable.
const TimeSeed int64 = 0

// Options tunes a Cluster call. Zero values take defaults: Attempts 5,
// Iterations 50, a time-derived Seed, sequential attempts, no convergence
// short-circuit.
type Options struct {
	Attempts   int
	Iterations int
	// Seed makes the whole call deterministic; attempt i derives its own
	// independent RNG from Seed+i. TimeSeed (the zero value) picks a fresh
	// seed per call.
	Seed int64
	// Workers > 1 runs attempts on that many goroutines. Attempts share no
	// state, so results are identical to a sequential run.
	Workers int
	// Epsilon > 0 stops an attempt early once every centroid's squared
	// movement in an iteration falls below it.
	Epsilon float64
}

// Result is the winning attempt.
type Result struct {
	Centroids []Point
	// Counts[i] is how many points the final assignment pass put in cluster i.
	Counts []int
	// Inertia is the raw sum of squared distances, not normalized by k or N.
	Inertia float64
}

type attemptResult struct {
	centroids []Point
	counts    []int
	inertia   float64
}

// Cluster partitions points into k clusters. It runs opts.Attempts
// independent randomized attempts of opts.Iterations assignment/update
// rounds each and returns the attempt with the lowest inertia; exact ties go
// to the lowest attempt index regardless of execution order.
func Cluster(ctx context.Context, points []Point, k int, opts Options) (Result, error) {
	if len(points) == 0 {
		return Result{}, fmt.Errorf("%w: empty point set", ErrInvalidParameter)
	}
	if k < 1 || k > len(points) {
		return Result{}, fmt.Errorf("%w: k=%d with %d points", ErrInvalidParameter, k, len(points))
	}
	if opts.Attempts == 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Iterations == 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Attempts < 1 {
		return Result{}, fmt.Errorf("%w: attempts=%d", ErrInvalidParameter, opts.Attempts)
	}
	if opts.Iterations < 1 {
		return Result{}, fmt.Errorf("%w: iterations=%d", ErrInvalidParameter, opts.Iterations)
	}
	if opts.Seed == TimeSeed {
		opts.Seed = time.Now().UnixNano()
	}

	results := make([]*attemptResult, opts.Attempts)
	if opts.Workers > 1 {
		if err := runParallel(ctx, points, k, opts, results); err != nil {
			return Result{}, err
		}
	} else {
		for i := 0; i < opts.Attempts; i++ {
			res, err := runAttempt(ctx, points, k, opts, i)
			if err != nil {
				return Result{}, err
			}
			results[i] = res
		}
	}

	// Reduce in attempt-index order so exact ties keep the first-seen winner
	// even when attempts ran out of order.
	best := results[0]
	for _, r := range results[1:] {
		if r.inertia < best.inertia {
			best = r
		}
	}
	return Result{Centroids: best.centroids, Counts: best.counts, Inertia: best.inertia}, nil
}

func runParallel(ctx context.Context, points []Point, k int, opts Options, results []*attemptResult) error {
	workers := opts.Workers
	if workers > opts.Attempts {
		workers = opts.Attempts
	}

	jobs := make(chan int)
	errs := make(chan error, opts.Attempts)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := runAttempt(ctx, points, k, opts, i)
				if err != nil {
					errs <- err
					continue
				}
				results[i] = res
			}
		}()
	}

	for i := 0; i < len(results); i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

// runAttempt performs one full clustering run from a fresh random
// initialization. The attempt owns its centroids and RNG; nothing is shared.
func runAttempt(ctx context.Context, points []Point, k int, opts Options, attempt int) (*attemptResult, error) {
	rng := rand.New(rand.NewSource(opts.Seed + int64(attempt)))

	// Seed centroids from k distinct input points.
	centroids := make([]Point, k)
	for i, idx := range rng.Perm(len(points))[:k] {
		centroids[i] = points[idx]
	}

	assignments := make([]int, len(points))
	sums := make([]Point, k)
	counts := make([]int, k)

	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i, p := range points {
			assignments[i] = nearest(p, centroids)
		}

		for i := range sums {
			sums[i] = Point{}
			counts[i] = 0
		}
		for i, p := range points {
			c := assignments[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			sums[c][2] += p[2]
			counts[c]++
		}

		moved := 0.0
		for i := range centroids {
			if counts[i] == 0 {
				// Empty cluster: keep the previous position. It may pick
				// points back up once the other centroids move.
				continue
			}
			n := float64(counts[i])
			next := Point{sums[i][0] / n, sums[i][1] / n, sums[i][2] / n}
			if d := sqDist(centroids[i], next); d > moved {
				moved = d
			}
			centroids[i] = next
		}
		if opts.Epsilon > 0 && moved < opts.Epsilon {
			break
		}
	}

	// Score against the final centroid positions with one more assignment
	// pass; the counts from this pass are what the caller reports.
	for i := range counts {
		counts[i] = 0
	}
	inertia := 0.0
	for _, p := range points {
		c := nearest(p, centroids)
		counts[c]++
		inertia += sqDist(p, centroids[c])
	}

	return &attemptResult{centroids: centroids, counts: counts, inertia: inertia}, nil
}

// nearest returns the index of the closest centroid by squared Euclidean
// distance. Strict less-than keeps the lowest index on exact ties.
func nearest(p Point, centroids []Point) int {
	best := 0
	bestDist := sqDist(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := sqDist(p, centroids[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func sqDist(a, b Point) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return dr*dr + dg*dg + db*db
}
