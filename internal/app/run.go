package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/buildgrid/internal/address"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/product"
	"github.com/specialistvlad/buildgrid/internal/session"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// GoalsFailedError reports how many requested goals did not finish.
// Errs holds the failures in report order.
type GoalsFailedError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *GoalsFailedError) Error() string {
	return fmt.Sprintf("%d of %d goals failed", e.Failed, e.Total)
}

func (e *GoalsFailedError) Unwrap() []error { return e.Errs }

// Run builds the configured goals for the configured targets, writes one
// line per goal to the app's output and fails if any goal failed. A root
// whose dependency graph is invalid fails each of its goals; the other
// roots still run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	roots := make([]address.Address, 0, len(a.config.Targets))
	for _, raw := range a.config.Targets {
		addr, err := address.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
		roots = append(roots, addr)
	}
	if len(roots) == 0 {
		a.logger.Warn("No targets given, execution not required.")
		return nil
	}

	results := make(map[product.Goal]product.Result)
	valid := make([]address.Address, 0, len(roots))
	for _, root := range roots {
		a.logger.Debug("Building dependency graph...", "root", root)
		g, err := a.session.Graph(ctx, root)
		if err != nil {
			a.logger.Error("Dependency graph is invalid.", "root", root, "error", err)
			err = fmt.Errorf("failed to build dependency graph: %w", err)
			for _, goal := range a.requestedGoals(root) {
				results[goal] = product.Result{Err: err}
			}
			continue
		}
		a.logger.Debug("Dependency graph built.", "root", root, "node_count", g.Len())
		valid = append(valid, root)
	}

	if len(valid) > 0 {
		a.logger.Info("🚀 Starting build...", "goals", a.config.Goals, "targets", len(valid))
		built, err := a.session.Request(ctx, session.BuildRequest{Goals: a.config.Goals, Roots: valid})
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		if len(built) == 0 {
			a.logger.Warn("No planner can produce the requested goals for these targets.", "goals", a.config.Goals)
		}
		for goal, res := range built {
			results[goal] = res
		}
	}

	errs := a.report(results)
	a.logger.Info("🏁 Build finished.", "goals", len(results), "failed", len(errs))
	if len(errs) > 0 {
		return &GoalsFailedError{Failed: len(errs), Total: len(results), Errs: errs}
	}
	return nil
}

// requestedGoals lists the goals of root named by the configured goal names,
// without consulting the declarations.
func (a *App) requestedGoals(root address.Address) []product.Goal {
	var goals []product.Goal
	for _, name := range a.config.Goals {
		kinds := a.registry.ProductsForGoal(name)
		if len(kinds) == 0 {
			kinds = []product.Kind{product.Kind(name)}
		}
		for _, k := range kinds {
			goals = append(goals, product.NewGoal(root, k))
		}
	}
	return goals
}

// report prints results ordered by goal and returns the failures.
func (a *App) report(results map[product.Goal]product.Result) []error {
	goals := make([]product.Goal, 0, len(results))
	for g := range results {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].String() < goals[j].String() })

	var failed []error
	for _, g := range goals {
		res := results[g]
		if !res.OK() {
			failed = append(failed, res.Err)
			fmt.Fprintf(a.outW, "FAIL %s: %v\n", g, res.Err)
			continue
		}
		fmt.Fprintf(a.outW, "ok   %s = %s\n", g, formatValue(res.Value))
	}
	return failed
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case cty.Value:
		if v.IsKnown() && !v.IsNull() && v.Type() == cty.String {
			return v.AsString()
		}
		if data, err := ctyjson.Marshal(v, v.Type()); err == nil {
			return string(data)
		}
		return v.GoString()
	default:
		return fmt.Sprintf("%v", v)
	}
}
