// Package engine drives the scheduler to completion.
//
// A run schedules the requested goals, then repeatedly takes every ready
// step from the scheduler, executes it, and reports the outcome back, until
// no step is ready or executing. With one worker, steps execute serially on
// the calling goroutine. With more, a fixed pool of workers executes steps
// while a single coordinator goroutine makes every scheduler call, so the
// scheduler's bookkeeping never races with itself.
//
// Goal failures are results, not errors: Run returns an error only when the
// scheduler reports an internal inconsistency.
package engine
