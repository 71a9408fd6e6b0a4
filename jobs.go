package struai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// WaitOptions configures Job.Wait and JobBatch waits.
type WaitOptions struct {
	// Timeout is the total wait budget per job. Default 120s.
	Timeout time.Duration
	// PollInterval is the sleep between status fetches. Default 2s.
	PollInterval time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	return o
}

// Job is a handle on one server-side sheet-ingestion job. Jobs share no
// state with each other; any number can be polled concurrently.
type Job struct {
	client    *Client
	projectID string

	// ID is the opaque job identifier.
	ID string
	// Page is the page this job ingests, when the server reported one.
	Page *int
}

func newJob(c *Client, projectID string, desc ingestDescriptor) *Job {
	return &Job{client: c, projectID: projectID, ID: desc.JobID, Page: desc.Page}
}

// Status performs a single unconditional status fetch. It never blocks
// waiting for the job to progress.
func (j *Job) Status(ctx context.Context) (*JobStatus, error) {
	var status JobStatus
	path := fmt.Sprintf("/projects/%s/jobs/%s", j.projectID, j.ID)
	if err := j.client.get(ctx, path, nil, &status); err != nil {
		return nil, fmt.Errorf("job status: %w", err)
	}
	return &status, nil
}

// Wait polls until the job reaches a terminal state or the budget elapses.
//
// A complete job yields its SheetResult, or an empty result when the server
// signals completion without a body. A failed job yields *JobFailedError
// carrying the server's error string verbatim; failure is terminal and not
// worth retrying. Elapsed time is measured against one wall-clock start, so
// the final poll may slightly overshoot Timeout; overshooting yields
// *JobTimeoutError, after which no further polls are issued.
func (j *Job) Wait(ctx context.Context, opts WaitOptions) (*SheetResult, error) {
	opts = opts.withDefaults()
	start := time.Now()

	for time.Since(start) < opts.Timeout {
		status, err := j.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.IsComplete() {
			if status.Result == nil {
				return &SheetResult{}, nil
			}
			return status.Result, nil
		}
		if status.IsFailed() {
			reason := "Unknown error"
			if status.Error != nil && *status.Error != "" {
				reason = *status.Error
			}
			return nil, &JobFailedError{JobID: j.ID, Reason: reason}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}

	return nil, &JobTimeoutError{JobID: j.ID, Timeout: opts.Timeout}
}

// JobBatch aggregates the jobs of one multi-page ingestion request, in
// submission order. Single-page requests yield a bare Job instead; a batch
// of size 1 is never constructed.
type JobBatch struct {
	Jobs []*Job
}

// IDs returns the job identifiers in submission order.
func (b *JobBatch) IDs() []string {
	ids := make([]string, len(b.Jobs))
	for i, job := range b.Jobs {
		ids[i] = job.ID
	}
	return ids
}

// StatusAll fans out one status fetch per job, preserving submission order.
func (b *JobBatch) StatusAll(ctx context.Context) ([]*JobStatus, error) {
	statuses := make([]*JobStatus, len(b.Jobs))
	for i, job := range b.Jobs {
		status, err := job.Status(ctx)
		if err != nil {
			return nil, err
		}
		statuses[i] = status
	}
	return statuses, nil
}

// WaitAll waits for every job in sequence. Each job gets the same Timeout
// budget to itself, so the total call duration is bounded by the sum of
// per-job waits. Results come back in submission order, not completion
// order.
func (b *JobBatch) WaitAll(ctx context.Context, opts WaitOptions) ([]*SheetResult, error) {
	results := make([]*SheetResult, len(b.Jobs))
	for i, job := range b.Jobs {
		result, err := job.Wait(ctx, opts)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

// WaitAllParallel waits for every job concurrently, bounding total latency
// by the slowest job rather than the sum. The per-job budget and the
// submission-order result contract match WaitAll.
func (b *JobBatch) WaitAllParallel(ctx context.Context, opts WaitOptions) ([]*SheetResult, error) {
	results := make([]*SheetResult, len(b.Jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range b.Jobs {
		g.Go(func() error {
			result, err := job.Wait(gctx, opts)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Ingest is the tagged result of a sheet ingestion request: exactly one of
// Single and Batch is set. Callers switch on the tag rather than probing.
type Ingest struct {
	Single *Job
	Batch  *JobBatch
}

// Wait waits for whichever side of the variant is set. Batch results keep
// submission order; a single job yields a one-element slice.
func (in *Ingest) Wait(ctx context.Context, opts WaitOptions) ([]*SheetResult, error) {
	if in.Single != nil {
		result, err := in.Single.Wait(ctx, opts)
		if err != nil {
			return nil, err
		}
		return []*SheetResult{result}, nil
	}
	return in.Batch.WaitAll(ctx, opts)
}

// JobIDs returns the ids of all jobs behind the variant.
func (in *Ingest) JobIDs() []string {
	if in.Single != nil {
		return []string{in.Single.ID}
	}
	return in.Batch.IDs()
}
