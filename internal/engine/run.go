package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/barefootlabs/bdp/internal/asset"
)

// Status is the outcome of one planned asset.
type Status string

const (
	// StatusSuccess means the asset's table was written.
	StatusSuccess Status = "success"
	// StatusFailed means materialization was attempted and failed.
	StatusFailed Status = "failed"
	// StatusSkipped means an earlier failure aborted the run before this
	// asset started.
	StatusSkipped Status = "skipped"
)

// AssetResult records the outcome of one planned asset.
type AssetResult struct {
	Asset    *asset.Asset
	Status   Status
	Err      error
	Duration time.Duration
}

// Run records the outcome of a materialization: one result per planned
// asset, in plan order.
type Run struct {
	Results  []*AssetResult
	Duration time.Duration
}

// Counts returns the number of successful, failed, and skipped assets.
func (r *Run) Counts() (success, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusSuccess:
			success++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return success, failed, skipped
}

// Materialize plans the given targets (all assets when empty) and executes
// the plan with full-refresh semantics. The first failure aborts the run;
// the returned Run still reports every planned asset, so completed, failed,
// and never-attempted work are all visible. The error is the first
// materialization failure, if any.
func (e *Engine) Materialize(ctx context.Context, targets []string) (*Run, error) {
	plan, err := e.Plan(targets)
	if err != nil {
		return nil, err
	}
	if err := e.ensureGateway(ctx); err != nil {
		return nil, err
	}

	e.logger.Info("starting run", "assets", len(plan), "jobs", e.cfg.Jobs)
	started := time.Now()

	var run *Run
	if e.cfg.Jobs > 1 {
		run, err = e.runLevels(ctx, plan)
	} else {
		run, err = e.runSequential(ctx, plan)
	}
	if run == nil {
		// runLevels bails before producing results when the subgraph cannot
		// be leveled.
		return nil, err
	}
	run.Duration = time.Since(started)

	success, failed, skipped := run.Counts()
	if err != nil {
		e.logger.Error("run failed", "success", success, "failed", failed, "skipped", skipped)
	} else {
		e.logger.Info("run completed", "success", success, "duration", run.Duration)
	}
	return run, err
}

// runSequential executes the plan one asset at a time in plan order.
func (e *Engine) runSequential(ctx context.Context, plan []*asset.Asset) (*Run, error) {
	run := &Run{Results: make([]*AssetResult, 0, len(plan))}
	var runErr error

	for _, a := range plan {
		if runErr != nil {
			run.Results = append(run.Results, &AssetResult{Asset: a, Status: StatusSkipped})
			continue
		}
		run.Results = append(run.Results, e.materializeOne(ctx, a))
		if last := run.Results[len(run.Results)-1]; last.Status == StatusFailed {
			runErr = last.Err
		}
	}
	return run, runErr
}

// runLevels executes the plan level by level: assets within a level share no
// dependency path, so they run concurrently, bounded by cfg.Jobs. A level
// only starts after the previous one committed; the first failure cancels
// everything still running and skips the rest.
func (e *Engine) runLevels(ctx context.Context, plan []*asset.Asset) (*Run, error) {
	ids := make([]string, len(plan))
	for i, a := range plan {
		ids[i] = a.QualifiedName()
	}
	levels, err := e.graph.Subgraph(ids).ExecutionLevels()
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make(map[string]*AssetResult, len(plan))
		runErr  error
	)

	for _, level := range levels {
		if runErr != nil {
			break
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(e.cfg.Jobs)

		for _, id := range level {
			a := e.assets[id]
			group.Go(func() error {
				// A failure elsewhere in the level cancels the group;
				// queued assets that never started count as skipped.
				if groupCtx.Err() != nil {
					mu.Lock()
					results[id] = &AssetResult{Asset: a, Status: StatusSkipped}
					mu.Unlock()
					return nil
				}
				res := e.materializeOne(groupCtx, a)
				mu.Lock()
				results[id] = res
				mu.Unlock()
				if res.Status == StatusFailed {
					return res.Err
				}
				return nil
			})
		}

		if err := group.Wait(); err != nil && runErr == nil {
			runErr = err
		}
	}

	run := &Run{Results: make([]*AssetResult, 0, len(plan))}
	for _, a := range plan {
		if res, ok := results[a.QualifiedName()]; ok {
			run.Results = append(run.Results, res)
		} else {
			run.Results = append(run.Results, &AssetResult{Asset: a, Status: StatusSkipped})
		}
	}
	return run, runErr
}

// materializeOne dispatches on asset kind and times the attempt.
func (e *Engine) materializeOne(ctx context.Context, a *asset.Asset) *AssetResult {
	name := a.QualifiedName()
	e.logger.Info("materializing", "asset", name, "kind", a.Kind.String())
	started := time.Now()

	err := e.materialize(ctx, a)
	duration := time.Since(started)

	if err != nil {
		e.logger.Error("materialization failed", "asset", name, "error", err)
		return &AssetResult{Asset: a, Status: StatusFailed, Err: err, Duration: duration}
	}
	e.logger.Debug("materialized", "asset", name, "duration", duration)
	return &AssetResult{Asset: a, Status: StatusSuccess, Duration: duration}
}
