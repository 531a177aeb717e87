// Package parallel provides the worker-pool abstraction the ADMM
// reasoner uses to run term-phase and variable-phase updates
// concurrently: given N jobs, run them across a bounded number of
// goroutines and block until every one has completed. Whether P=1 or
// P=NumCPU, the contract is the same: disjoint ranges, a barrier before
// the caller proceeds, and identical results regardless of worker count.
package parallel

import "golang.org/x/sync/errgroup"

// Range is a contiguous half-open block of job indices [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Split partitions [0, n) into contiguous blocks of approximately
// targetBlockSize items each. It always returns at least one range (an
// empty [0,0) range when n is 0) so callers can rely on a non-empty
// result.
func Split(n, targetBlockSize int) []Range {
	if targetBlockSize < 1 {
		targetBlockSize = 1
	}
	if n <= 0 {
		return []Range{{Lo: 0, Hi: 0}}
	}
	ranges := make([]Range, 0, (n+targetBlockSize-1)/targetBlockSize)
	for lo := 0; lo < n; lo += targetBlockSize {
		hi := lo + targetBlockSize
		if hi > n {
			hi = n
		}
		ranges = append(ranges, Range{Lo: lo, Hi: hi})
	}
	return ranges
}

// BlockSize picks a block size of roughly n / (4 * numWorkers), never
// smaller than 1 -- enough blocks per worker to smooth out uneven term
// costs without making the per-block overhead dominate.
func BlockSize(n, numWorkers int) int {
	if numWorkers < 1 {
		numWorkers = 1
	}
	size := n / (4 * numWorkers)
	if size < 1 {
		size = 1
	}
	return size
}

// Run executes fn once per range in ranges across at most numWorkers
// goroutines and blocks until every invocation has completed. Ranges are
// expected to be disjoint (as Split produces), so no two workers ever
// operate on the same job index, and the barrier before Run returns
// guarantees every worker has finished before the caller proceeds to the
// next phase.
func Run(ranges []Range, numWorkers int, fn func(Range) error) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(numWorkers)
	for _, r := range ranges {
		g.Go(func() error {
			return fn(r)
		})
	}
	return g.Wait()
}

// RunReduce is like Run, but each invocation of fn returns its own
// worker-local partial result (scratch buffers, residual accumulators);
// results are returned in range order once every worker has completed.
// Because each goroutine writes only to its own index of results, no
// synchronization is needed beyond the final Wait -- the reduction over
// the returned slice happens sequentially on the calling goroutine, a
// plain loop standing in for a shared critical section instead of a
// lock.
func RunReduce[T any](ranges []Range, numWorkers int, fn func(Range) (T, error)) ([]T, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make([]T, len(ranges))
	g := new(errgroup.Group)
	g.SetLimit(numWorkers)
	for i, r := range ranges {
		g.Go(func() error {
			v, err := fn(r)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
