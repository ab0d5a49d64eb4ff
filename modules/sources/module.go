// Package sources provides the "sources" product: the files matched by a
// subject's source globs, relative to the declaration root.
package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/fsutil"
	"github.com/specialistvlad/buildgrid/internal/object"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/product"
)

// Kind is the product kind this module makes.
const Kind product.Kind = "sources"

const (
	sourcesAttr = "sources"
	excludeAttr = "exclude"
)

// Module implements the planner.Module interface for this package. Root is
// the directory namespaces are resolved against.
type Module struct {
	Root string
}

type sourcesPlanner struct {
	root string
}

func (p *sourcesPlanner) Name() string { return "sources" }

func (p *sourcesPlanner) Goals() map[string][]product.Kind {
	return map[string][]product.Kind{"sources": {Kind}}
}

// Applicable accepts any addressable subject with a sources attribute.
func (p *sourcesPlanner) Applicable(subject *object.Struct, kind product.Kind) bool {
	if kind != Kind || subject.Address().IsZero() {
		return false
	}
	_, ok := subject.Attr(sourcesAttr)
	return ok
}

func (p *sourcesPlanner) Plan(_ context.Context, subject *object.Struct, _ product.Kind) (*planner.Plan, error) {
	dir := filepath.Join(p.root, filepath.FromSlash(subject.Address().Namespace))
	include := subject.StringListAttr(sourcesAttr)
	exclude := subject.StringListAttr(excludeAttr)

	for _, pattern := range append(append([]string(nil), include...), exclude...) {
		if err := checkPattern(dir, pattern); err != nil {
			return nil, err
		}
	}

	return &planner.Plan{
		Execute: func(ctx context.Context, _ planner.Inputs) (any, error) {
			files, err := Expand(p.root, dir, include, exclude)
			if err != nil {
				return nil, err
			}
			ctxlog.FromContext(ctx).Debug("Sources expanded.", "subject", subject.String(), "files", len(files))
			return files, nil
		},
	}, nil
}

// checkPattern rejects patterns that are absolute or reach outside dir.
func checkPattern(dir, pattern string) error {
	if filepath.IsAbs(pattern) {
		return fmt.Errorf("source glob %q must be relative", pattern)
	}
	if !fsutil.WithinRoot(dir, filepath.Join(dir, filepath.FromSlash(pattern))) {
		return fmt.Errorf("source glob %q points outside %s", pattern, dir)
	}
	return nil
}

// Expand matches include patterns inside dir, drops anything matching an
// exclude pattern, and returns regular files relative to root in slash form,
// sorted.
func Expand(root, dir string, include, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for _, pattern := range include {
		matches, err := doublestar.Glob(filepath.Join(dir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("bad source glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			excluded, err := matchesAny(dir, exclude, m)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			if _, dup := seen[rel]; !dup {
				seen[rel] = struct{}{}
				out = append(out, rel)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func matchesAny(dir string, patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.PathMatch(filepath.Join(dir, filepath.FromSlash(pattern)), path)
		if err != nil {
			return false, fmt.Errorf("bad exclude glob %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Register registers the planner with the registry.
func (m *Module) Register(r *planner.Registry) {
	r.Register(&sourcesPlanner{root: m.Root})
}
