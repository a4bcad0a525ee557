// Package closure computes the transitive set of DLLs a binary needs.
//
// Starting from a root file, the [Resolver] inspects each file once, looks
// every declared name up on the search path, and queues newly resolved files
// for inspection in turn. Names that cannot be resolved are collected rather
// than failing fast, so a single run reports every gap.
package closure

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/depgraph"
	"github.com/matzehuels/dllstage/pkg/errors"
	"github.com/matzehuels/dllstage/pkg/inspect"
	"github.com/matzehuels/dllstage/pkg/observability"
	"github.com/matzehuels/dllstage/pkg/searchpath"
)

// Result is the outcome of a resolution run.
//
// Every declared name ends up in Resolved or Missing, with one exception: a
// name that resolves to the root file itself is in neither, since the root is
// never a dependency of itself. Such an edge is still recorded in Graph.
type Result struct {
	Root       string          // Root file as given
	Resolved   []string        // Resolved dependency files, sorted
	Missing    []inspect.Name  // Unresolved names, one per case-insensitive name, sorted
	SearchPath []string        // Directories searched, in order
	Inspected  int             // Number of files inspected
	Graph      *depgraph.Graph // Who declared what
}

// OK reports whether every dependency was resolved.
func (r *Result) OK() bool { return len(r.Missing) == 0 }

// MissingNames returns the unresolved names as strings.
func (r *Result) MissingNames() []string {
	out := make([]string, len(r.Missing))
	for i, n := range r.Missing {
		out[i] = string(n)
	}
	return out
}

// NeededBy maps each missing name to the base names of the files that
// declare it, sorted.
func (r *Result) NeededBy() map[string][]string {
	if r.Graph == nil {
		return nil
	}
	out := make(map[string][]string, len(r.Missing))
	for _, n := range r.Missing {
		var files []string
		for _, id := range r.Graph.Parents(depgraph.MissingID(n.Key())) {
			files = append(files, filepath.Base(id))
		}
		slices.Sort(files)
		out[string(n)] = files
	}
	return out
}

// MissingErr returns an *errors.MissingError describing the unresolved
// names, or nil when the closure is complete.
func (r *Result) MissingErr() error {
	if r.OK() {
		return nil
	}
	return &errors.MissingError{
		SearchPath: r.SearchPath,
		Missing:    r.MissingNames(),
		NeededBy:   r.NeededBy(),
	}
}

// Resolver computes dependency closures.
type Resolver struct {
	inspector inspect.Inspector
	search    *searchpath.SearchPath
	logger    *log.Logger
}

// NewResolver creates a Resolver. A nil logger means log.Default().
func NewResolver(in inspect.Inspector, sp *searchpath.SearchPath, logger *log.Logger) *Resolver {
	if sp == nil {
		sp = searchpath.New()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{inspector: in, search: sp, logger: logger}
}

// Resolve walks the dependency closure of root. An inspection error aborts
// the walk and is returned as is; unresolved names are reported in
// Result.Missing.
func (r *Resolver) Resolve(ctx context.Context, root string) (*Result, error) {
	w := &walk{
		ctx:      ctx,
		r:        r,
		graph:    depgraph.New(),
		visited:  make(map[string]bool),
		resolved: make(map[string]bool),
		missing:  make(map[string]inspect.Name),
		lookups:  make(map[string]string),
	}
	return w.run(root)
}

type walk struct {
	ctx context.Context
	r   *Resolver

	graph    *depgraph.Graph
	queue    []string
	visited  map[string]bool
	resolved map[string]bool
	missing  map[string]inspect.Name
	lookups  map[string]string
	inspects int
}

func (w *walk) run(root string) (*Result, error) {
	rootKey := filepath.Clean(root)
	w.visited[rootKey] = true
	_ = w.graph.AddNode(depgraph.Node{ID: rootKey, Label: filepath.Base(rootKey), Kind: depgraph.KindRoot})
	w.queue = append(w.queue, rootKey)

	start := time.Now()
	for len(w.queue) > 0 {
		if err := w.ctx.Err(); err != nil {
			return nil, err
		}
		f := w.queue[0]
		w.queue = w.queue[1:]

		names, err := w.r.inspector.Inspect(w.ctx, f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", root, err)
		}
		w.inspects++
		for _, name := range names {
			w.visit(f, name)
		}
	}

	res := &Result{
		Root:       root,
		Resolved:   slices.Sorted(maps.Keys(w.resolved)),
		Missing:    slices.Collect(maps.Values(w.missing)),
		SearchPath: w.r.search.Dirs(),
		Inspected:  w.inspects,
		Graph:      w.graph,
	}
	inspect.SortNames(res.Missing)

	w.r.logger.Debug("resolved closure",
		"root", root,
		"inspected", res.Inspected,
		"resolved", len(res.Resolved),
		"missing", len(res.Missing),
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// visit handles one name declared by parent.
func (w *walk) visit(parent string, name inspect.Name) {
	key := name.Key()

	path, ok := w.lookup(name)
	if !ok {
		id := depgraph.MissingID(key)
		if _, seen := w.missing[key]; !seen {
			w.missing[key] = name
			_ = w.graph.AddNode(depgraph.Node{ID: id, Label: string(name), Kind: depgraph.KindMissing})
			w.r.logger.Debug("missing dependency", "name", name, "from", filepath.Base(parent))
		}
		_ = w.graph.AddEdge(depgraph.Edge{From: parent, To: id})
		return
	}

	if !w.visited[path] {
		w.visited[path] = true
		w.resolved[path] = true
		w.queue = append(w.queue, path)
		_ = w.graph.AddNode(depgraph.Node{
			ID:    path,
			Label: filepath.Base(path),
			Kind:  depgraph.KindLibrary,
			Meta:  depgraph.Metadata{"dir": filepath.Dir(path)},
		})
	}
	_ = w.graph.AddEdge(depgraph.Edge{From: parent, To: path})
}

// lookup resolves name on the search path, remembering the answer for the
// rest of the walk so a name shared by many files is searched once.
func (w *walk) lookup(name inspect.Name) (string, bool) {
	key := name.Key()
	if p, ok := w.lookups[key]; ok {
		return p, p != ""
	}
	p, ok := w.r.search.Lookup(name)
	if ok {
		p = filepath.Clean(p)
	}
	w.lookups[key] = p
	observability.Resolve().OnResolve(w.ctx, string(name), p)
	return p, ok
}
