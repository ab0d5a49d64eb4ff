// Package scheduler turns requested goals into an executable frontier of
// steps, with memoization, requirement-cycle detection and failure
// propagation.
//
// # Goal Lifecycle
//
// Every goal, a (subject address, product kind) pair, gets exactly one node
// in the scheduler's arena and moves through a fixed state machine:
//
//	UNSCHEDULED ─► PLANNING ─┬─► READY ───► EXECUTING ─┬─► FINISHED
//	                         └─► BLOCKED ─┘            └─► FAILED
//
// PLANNING resolves the subject, asks the planner registry for a plan and
// recursively schedules the plan's requirements. A node whose requirements
// are all finished becomes READY; otherwise it is BLOCKED and counts the
// requirements it still waits for. Any state before EXECUTING may also fail
// outright: an unresolvable subject, no applicable planner, a requirement
// cycle, or a failed requirement.
//
// # Memoization
//
// Nodes are never recreated. Requesting a goal that already exists, from the
// same run or a later one, reuses the node: a finished product is returned
// without executing anything, and a failed goal stays failed. The only
// exception is ResetCancelled, which forgets goals that failed solely because
// their run was cancelled.
//
// # Failure Propagation
//
// When a step fails, its node becomes FAILED with a PlanExecutionError and
// every transitive dependent becomes FAILED with a DependencyFailedError
// wrapping the cause. Dependents are never executed. Goals with no path to
// the failure are untouched.
//
// # Thread-Safety
//
// All bookkeeping is guarded by a single mutex. Plans are executed outside
// the scheduler by the engine, which reports outcomes through Finish and
// Fail.
package scheduler
