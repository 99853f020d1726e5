package revset

import (
	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// Expression is a parsed revset with aliases expanded and functions
// lowered, before symbol resolution. Resolve replaces CommitRef and
// AtOperation nodes with Commits and WithinVisibility; Lower then turns the
// tree into a resolved.Expression.
type Expression interface {
	isExpression()
}

type None struct{}

type All struct{}

type VisibleHeads struct{}

// VisibleHeadsOrReferenced is the visible heads plus every commit the
// expression names explicitly.
type VisibleHeadsOrReferenced struct{}

type Root struct{}

// CommitRef is a symbolic reference, carrying the display text it resolves
// to.
type CommitRef struct {
	Name reftable.Reference
}

// Commits is a resolved literal set.
type Commits struct {
	IDs []reftable.CommitID
}

type Ancestors struct {
	Heads        Expression
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

type Descendants struct {
	Roots      Expression
	Generation pattern.Range[uint64]
}

type Range struct {
	Roots        Expression
	Heads        Expression
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

type DagRange struct {
	Roots, Heads Expression
}

type Reachable struct {
	Sources, Domain Expression
}

type Heads struct {
	Expr Expression
}

// HeadsRange is heads(Roots..Heads) filtered by Filter, which is All when
// unfiltered.
type HeadsRange struct {
	Roots        Expression
	Heads        Expression
	ParentsRange pattern.Range[uint32]
	Filter       Expression
}

type Roots struct {
	Expr Expression
}

type ForkPoint struct {
	Expr Expression
}

type Bisect struct {
	Expr Expression
}

type HasSize struct {
	Candidates Expression
	Count      int
}

type Latest struct {
	Candidates Expression
	Count      int
}

// Filter is an atomic per-commit test used as a set.
type Filter struct {
	Predicate resolved.FilterPredicate
}

// AsFilter marks a set expression that is evaluated as a predicate.
type AsFilter struct {
	Expr Expression
}

type Divergent struct{}

type Present struct {
	Expr Expression
}

// AtOperation evaluates Candidates as of Operation.
type AtOperation struct {
	Operation  string
	Candidates Expression
}

// WithinVisibility evaluates Candidates with a different set of visible
// heads. It is produced by Resolve from AtOperation.
type WithinVisibility struct {
	Candidates   Expression
	VisibleHeads []reftable.CommitID
}

type Coalesce struct {
	Left, Right Expression
}

type Union struct {
	Left, Right Expression
}

type Intersection struct {
	Left, Right Expression
}

type Difference struct {
	Left, Right Expression
}

type NotIn struct {
	Expr Expression
}

func (None) isExpression()                     {}
func (All) isExpression()                      {}
func (VisibleHeads) isExpression()             {}
func (VisibleHeadsOrReferenced) isExpression() {}
func (Root) isExpression()                     {}
func (CommitRef) isExpression()                {}
func (Commits) isExpression()                  {}
func (Ancestors) isExpression()                {}
func (Descendants) isExpression()              {}
func (Range) isExpression()                    {}
func (DagRange) isExpression()                 {}
func (Reachable) isExpression()                {}
func (Heads) isExpression()                    {}
func (HeadsRange) isExpression()               {}
func (Roots) isExpression()                    {}
func (ForkPoint) isExpression()                {}
func (Bisect) isExpression()                   {}
func (HasSize) isExpression()                  {}
func (Latest) isExpression()                   {}
func (Filter) isExpression()                   {}
func (AsFilter) isExpression()                 {}
func (Divergent) isExpression()                {}
func (Present) isExpression()                  {}
func (AtOperation) isExpression()              {}
func (WithinVisibility) isExpression()         {}
func (Coalesce) isExpression()                 {}
func (Union) isExpression()                    {}
func (Intersection) isExpression()             {}
func (Difference) isExpression()               {}
func (NotIn) isExpression()                    {}

func ancestorsOf(heads Expression) Ancestors {
	return Ancestors{Heads: heads, Generation: resolved.GenerationFull, ParentsRange: resolved.ParentsFull}
}

func descendantsOf(roots Expression) Descendants {
	return Descendants{Roots: roots, Generation: resolved.GenerationFull}
}

func rangeOf(roots, heads Expression) Range {
	return Range{Roots: roots, Heads: heads, Generation: resolved.GenerationFull, ParentsRange: resolved.ParentsFull}
}

// isFullAncestors reports whether e is ::x with no generation or parent
// restriction.
func isFullAncestors(e Expression) (Ancestors, bool) {
	a, ok := e.(Ancestors)
	return a, ok && a.Generation == resolved.GenerationFull && a.ParentsRange == resolved.ParentsFull
}

// mapChildren rebuilds e with f applied to each direct child.
func mapChildren(e Expression, f func(Expression) Expression) Expression {
	switch e := e.(type) {
	case None, All, VisibleHeads, VisibleHeadsOrReferenced, Root, CommitRef, Commits, Filter, Divergent:
		return e
	case Ancestors:
		e.Heads = f(e.Heads)
		return e
	case Descendants:
		e.Roots = f(e.Roots)
		return e
	case Range:
		e.Roots, e.Heads = f(e.Roots), f(e.Heads)
		return e
	case DagRange:
		e.Roots, e.Heads = f(e.Roots), f(e.Heads)
		return e
	case Reachable:
		e.Sources, e.Domain = f(e.Sources), f(e.Domain)
		return e
	case Heads:
		return Heads{Expr: f(e.Expr)}
	case HeadsRange:
		e.Roots, e.Heads, e.Filter = f(e.Roots), f(e.Heads), f(e.Filter)
		return e
	case Roots:
		return Roots{Expr: f(e.Expr)}
	case ForkPoint:
		return ForkPoint{Expr: f(e.Expr)}
	case Bisect:
		return Bisect{Expr: f(e.Expr)}
	case HasSize:
		e.Candidates = f(e.Candidates)
		return e
	case Latest:
		e.Candidates = f(e.Candidates)
		return e
	case AsFilter:
		return AsFilter{Expr: f(e.Expr)}
	case Present:
		return Present{Expr: f(e.Expr)}
	case AtOperation:
		e.Candidates = f(e.Candidates)
		return e
	case WithinVisibility:
		e.Candidates = f(e.Candidates)
		return e
	case Coalesce:
		return Coalesce{Left: f(e.Left), Right: f(e.Right)}
	case Union:
		return Union{Left: f(e.Left), Right: f(e.Right)}
	case Intersection:
		return Intersection{Left: f(e.Left), Right: f(e.Right)}
	case Difference:
		return Difference{Left: f(e.Left), Right: f(e.Right)}
	case NotIn:
		return NotIn{Expr: f(e.Expr)}
	default:
		panic(unknownExpression(e))
	}
}

// transformBottomUp rewrites children before their parent. rewrite returns
// nil to keep a node unchanged.
func transformBottomUp(e Expression, rewrite func(Expression) Expression) Expression {
	var walk func(Expression) Expression
	walk = func(e Expression) Expression {
		e = mapChildren(e, walk)
		if out := rewrite(e); out != nil {
			return out
		}
		return e
	}
	return walk(e)
}
