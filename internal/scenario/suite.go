package scenario

import (
	"context"
	"sync"
	"time"
)

// Check pairs a case with its captured output. A non-empty Download verifies
// the output as a file attachment with that name.
type Check struct {
	Case     Case
	Output   Output
	Download string
}

// Result captures the outcome of one check.
type Result struct {
	Case     Case
	Err      error
	Duration time.Duration
}

// VerifyAll verifies checks with at most concurrency in flight. Results keep
// the order of checks. Checks sharing a (scenario, case) key must not be
// submitted together while their fixture is still missing.
func (r *Runner) VerifyAll(ctx context.Context, checks []Check, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]Result, len(checks))
	sem := make(chan struct{}, concurrency)
	wg := sync.WaitGroup{}

	for i, check := range checks {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Case: check.Case, Err: err}
			continue
		}
		select {
		case <-ctx.Done():
			results[i] = Result{Case: check.Case, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, ch Check) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = r.execute(ctx, ch)
		}(i, check)
	}

	wg.Wait()
	return results
}

func (r *Runner) execute(ctx context.Context, check Check) Result {
	res := Result{Case: check.Case}
	start := time.Now()
	if check.Download != "" {
		res.Err = r.VerifyDownload(ctx, check.Case, check.Output, check.Download)
	} else {
		res.Err = r.Verify(ctx, check.Case, check.Output)
	}
	res.Duration = time.Since(start)
	return res
}
