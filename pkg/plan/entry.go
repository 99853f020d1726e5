package plan

import (
	"github.com/odvcencio/revplan/pkg/analyze"
	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// largeRangeWidth is the generation-window width past which a walk from a
// non-trivial frontier is considered expensive.
const largeRangeWidth = 10_000

var singleGeneration = pattern.NewRange[uint64](1, 2)

func isLargeRange(r pattern.Range[uint64]) bool {
	return r.Width() >= largeRangeWidth
}

func labeled(label string, ctx analyze.Context, tree analyze.Tree) analyze.Child {
	return analyze.Child{Label: label, Context: ctx, Tree: tree}
}

func generationChild(label string, r pattern.Range[uint64], ctx analyze.Context) []analyze.Child {
	if r == resolved.GenerationFull {
		return nil
	}
	return []analyze.Child{labeled(label, ctx, analyze.GenerationRange(r))}
}

func parentsChild(r pattern.Range[uint32], ctx analyze.Context) []analyze.Child {
	if r == resolved.ParentsFull {
		return nil
	}
	return []analyze.Child{labeled("parent_index", ctx, analyze.ParentsRange(r))}
}

func unlabeledList(exprs []Expr, ctx analyze.Context) []analyze.Child {
	children := make([]analyze.Child, len(exprs))
	for i, e := range exprs {
		children[i] = analyze.Child{Context: ctx, Tree: e}
	}
	return children
}

func eagerWrapper(name string, inner Expr) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:     name,
		Context:  analyze.Eager,
		Children: []analyze.Child{{Context: analyze.Eager, Tree: inner}},
	}
}

func (None) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.Leaf("none()")
}

func (r Reference) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.Leaf(r.Ref.String())
}

func (a Ancestors) Entry(ctx analyze.Context) analyze.TreeEntry {
	var children []analyze.Child
	children = append(children, generationChild("generation", a.Generation, ctx)...)
	children = append(children, parentsChild(a.ParentsRange, ctx)...)
	children = append(children, labeled("heads", analyze.Eager, a.Heads))
	return analyze.TreeEntry{Name: "Ancestors", Context: ctx.PredicateToLazy(), Children: children}
}

func (r Range) Entry(ctx analyze.Context) analyze.TreeEntry {
	var children []analyze.Child
	children = append(children, generationChild("generation", r.Generation, ctx)...)
	children = append(children, parentsChild(r.ParentsRange, ctx)...)
	children = append(children,
		labeled("roots", analyze.Eager, r.Roots),
		labeled("heads", analyze.Eager, r.Heads),
	)
	return analyze.TreeEntry{Name: "Range", Context: ctx.PredicateToLazy(), Children: children}
}

func (d DagRange) Entry(ctx analyze.Context) analyze.TreeEntry {
	effective := analyze.Eager
	if d.GenerationFromRoots == singleGeneration {
		effective = ctx.PredicateToLazy()
	}
	children := generationChild("generation_from_roots", d.GenerationFromRoots, ctx)
	children = append(children,
		labeled("roots", analyze.Eager, d.Roots),
		labeled("heads", analyze.Eager, d.Heads),
	)
	return analyze.TreeEntry{Name: "DagRange", Context: effective, Children: children}
}

func (r Reachable) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "Reachable",
		Context: analyze.Eager,
		Children: []analyze.Child{
			labeled("sources", analyze.Predicate, r.Sources),
			labeled("domain", analyze.Eager, r.Domain),
		},
	}
}

func (h Heads) Entry(analyze.Context) analyze.TreeEntry     { return eagerWrapper("Heads", h.Expr) }
func (r Roots) Entry(analyze.Context) analyze.TreeEntry     { return eagerWrapper("Roots", r.Expr) }
func (f ForkPoint) Entry(analyze.Context) analyze.TreeEntry { return eagerWrapper("ForkPoint", f.Expr) }
func (b Bisect) Entry(analyze.Context) analyze.TreeEntry    { return eagerWrapper("Bisect", b.Expr) }

func (h HeadsRange) Entry(ctx analyze.Context) analyze.TreeEntry {
	children := parentsChild(h.ParentsRange, ctx)
	children = append(children,
		labeled("roots", analyze.Eager, h.Roots),
		labeled("heads", analyze.Eager, h.Heads),
	)
	if h.Filter != nil {
		children = append(children, labeled("filter", analyze.Predicate, h.Filter))
	}
	return analyze.TreeEntry{Name: "HeadsRange", Context: analyze.Eager, Children: children}
}

func (h HasSize) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "HasSize",
		Context: analyze.Eager,
		Children: []analyze.Child{
			labeled("count", analyze.Resolved, analyze.Int(h.Count)),
			labeled("candidates", analyze.Lazy, h.Candidates),
		},
	}
}

func (l Latest) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "Latest",
		Context: analyze.Eager,
		Children: []analyze.Child{
			labeled("count", analyze.Resolved, analyze.Int(l.Count)),
			labeled("candidates", analyze.Eager, l.Candidates),
		},
	}
}

func (c Coalesce) Entry(ctx analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{Name: "Coalesce", Context: ctx, Children: unlabeledList(c.Exprs, ctx)}
}

func (u Union) Entry(ctx analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{Name: "Union", Context: ctx, Children: unlabeledList(u.Exprs, ctx)}
}

func (f FilterWithin) Entry(ctx analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "FilterWithin",
		Context: ctx,
		Children: []analyze.Child{
			labeled("candidates", ctx, f.Candidates),
			labeled("predicate", analyze.Predicate, f.Predicate),
		},
	}
}

func (i Intersection) Entry(ctx analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{Name: "Intersection", Context: ctx, Children: unlabeledList(i.Exprs, ctx.EagerToLazy())}
}

func (d Difference) Entry(ctx analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "Difference",
		Context: ctx,
		Children: []analyze.Child{
			labeled("candidates", ctx, d.Left),
			labeled("excluded", ctx.EagerToLazy(), d.Right),
		},
	}
}

// Cost is evaluated against the ambient context, not the node's effective
// one.

func (a Ancestors) Cost(ctx analyze.Context) analyze.Cost {
	if ctx == analyze.Eager && !IsRootOrNone(a.Heads) && isLargeRange(a.Generation) {
		return analyze.Slow
	}
	return analyze.Fast
}

func (r Range) Cost(ctx analyze.Context) analyze.Cost {
	if ctx == analyze.Eager && IsRootOrNone(r.Roots) && !IsRootOrNone(r.Heads) && isLargeRange(r.Generation) {
		return analyze.Slow
	}
	return analyze.Fast
}

func (d DagRange) Cost(analyze.Context) analyze.Cost {
	if !IsNone(d.Roots) && IsRootOrNone(d.Roots) && !IsRootOrNone(d.Heads) && isLargeRange(d.GenerationFromRoots) {
		return analyze.Slow
	}
	return analyze.Fast
}

func (i Intersection) Cost(ctx analyze.Context) analyze.Cost {
	for _, e := range i.Exprs {
		if e.Cost(ctx) != analyze.Slow {
			return analyze.Fast
		}
	}
	return analyze.Slow
}

func (None) Cost(analyze.Context) analyze.Cost         { return analyze.Fast }
func (Reference) Cost(analyze.Context) analyze.Cost    { return analyze.Fast }
func (Reachable) Cost(analyze.Context) analyze.Cost    { return analyze.Fast }
func (Heads) Cost(analyze.Context) analyze.Cost        { return analyze.Fast }
func (HeadsRange) Cost(analyze.Context) analyze.Cost   { return analyze.Fast }
func (Roots) Cost(analyze.Context) analyze.Cost        { return analyze.Fast }
func (ForkPoint) Cost(analyze.Context) analyze.Cost    { return analyze.Fast }
func (Bisect) Cost(analyze.Context) analyze.Cost       { return analyze.Fast }
func (HasSize) Cost(analyze.Context) analyze.Cost      { return analyze.Fast }
func (Latest) Cost(analyze.Context) analyze.Cost       { return analyze.Fast }
func (Coalesce) Cost(analyze.Context) analyze.Cost     { return analyze.Fast }
func (Union) Cost(analyze.Context) analyze.Cost        { return analyze.Fast }
func (FilterWithin) Cost(analyze.Context) analyze.Cost { return analyze.Fast }
func (Difference) Cost(analyze.Context) analyze.Cost   { return analyze.Fast }
