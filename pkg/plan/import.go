package plan

import (
	"fmt"

	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// FromResolved builds the plan for expr. Every commit id in expr must have
// been issued by table; an unknown id panics.
func FromResolved(expr resolved.Expression, table *reftable.Table) Expr {
	im := importer{table: table}
	return im.expr(expr)
}

// PredicateFromResolved builds the plan for a resolved predicate.
func PredicateFromResolved(pred resolved.Predicate, table *reftable.Table) Predicate {
	im := importer{table: table}
	return im.pred(pred)
}

type importer struct {
	table *reftable.Table
}

func (im importer) ref(id reftable.CommitID) Reference {
	return Reference{Ref: im.table.Get(id)}
}

func (im importer) refs(ids []reftable.CommitID) []Expr {
	out := make([]Expr, len(ids))
	for i, id := range ids {
		out[i] = im.ref(id)
	}
	return out
}

func (im importer) hasVisibleHeads(ids []reftable.CommitID) bool {
	for _, id := range ids {
		if im.table.Get(id) == reftable.VisibleHeads {
			return true
		}
	}
	return false
}

func (im importer) commits(ids []reftable.CommitID) Expr {
	switch {
	case len(ids) == 0:
		return None{}
	case len(ids) == 1:
		return im.ref(ids[0])
	case im.hasVisibleHeads(ids):
		return Reference{Ref: reftable.VisibleHeadsOrReferenced}
	default:
		return Union{Exprs: im.refs(ids)}
	}
}

// flatten walks a nest of one associative operator with an explicit stack
// and calls visit on every operand that is not itself split, left to right.
func flatten[T any](left, right T, split func(T) (T, T, bool), visit func(T)) {
	stack := []T{right, left}
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if a, b, ok := split(next); ok {
			stack = append(stack, b, a)
			continue
		}
		visit(next)
	}
}

func splitUnion(e resolved.Expression) (resolved.Expression, resolved.Expression, bool) {
	u, ok := e.(resolved.Union)
	return u.Left, u.Right, ok
}

func splitIntersection(e resolved.Expression) (resolved.Expression, resolved.Expression, bool) {
	i, ok := e.(resolved.Intersection)
	return i.Left, i.Right, ok
}

func splitCoalesce(e resolved.Expression) (resolved.Expression, resolved.Expression, bool) {
	c, ok := e.(resolved.Coalesce)
	return c.Left, c.Right, ok
}

func splitPredicateUnion(p resolved.Predicate) (resolved.Predicate, resolved.Predicate, bool) {
	u, ok := p.(resolved.PredicateUnion)
	return u.Left, u.Right, ok
}

func splitPredicateIntersection(p resolved.Predicate) (resolved.Predicate, resolved.Predicate, bool) {
	i, ok := p.(resolved.PredicateIntersection)
	return i.Left, i.Right, ok
}

func (im importer) flatExprs(left, right resolved.Expression, split func(resolved.Expression) (resolved.Expression, resolved.Expression, bool)) []Expr {
	var out []Expr
	flatten(left, right, split, func(e resolved.Expression) {
		out = append(out, im.expr(e))
	})
	return out
}

func (im importer) expr(e resolved.Expression) Expr {
	switch x := e.(type) {
	case resolved.Commits:
		return im.commits(x.IDs)
	case resolved.Ancestors:
		return Ancestors{Heads: im.expr(x.Heads), Generation: x.Generation, ParentsRange: x.ParentsRange}
	case resolved.Range:
		return Range{
			Roots:        im.expr(x.Roots),
			Heads:        im.expr(x.Heads),
			Generation:   x.Generation,
			ParentsRange: x.ParentsRange,
		}
	case resolved.DagRange:
		return DagRange{Roots: im.expr(x.Roots), Heads: im.expr(x.Heads), GenerationFromRoots: x.GenerationFromRoots}
	case resolved.Reachable:
		return Reachable{Sources: im.expr(x.Sources), Domain: im.expr(x.Domain)}
	case resolved.Heads:
		return Heads{Expr: im.expr(x.Expr)}
	case resolved.HeadsRange:
		hr := HeadsRange{Roots: im.expr(x.Roots), Heads: im.expr(x.Heads), ParentsRange: x.ParentsRange}
		if x.Filter != nil {
			hr.Filter = im.pred(x.Filter)
		}
		return hr
	case resolved.Roots:
		return Roots{Expr: im.expr(x.Expr)}
	case resolved.ForkPoint:
		return ForkPoint{Expr: im.expr(x.Expr)}
	case resolved.Bisect:
		return Bisect{Expr: im.expr(x.Expr)}
	case resolved.HasSize:
		return HasSize{Candidates: im.expr(x.Candidates), Count: x.Count}
	case resolved.Latest:
		return Latest{Candidates: im.expr(x.Candidates), Count: x.Count}
	case resolved.Coalesce:
		return Coalesce{Exprs: im.flatExprs(x.Left, x.Right, splitCoalesce)}
	case resolved.Union:
		var out []Expr
		flatten[resolved.Expression](x.Left, x.Right, splitUnion, func(e resolved.Expression) {
			// Literal sets are spliced in one reference at a time, unless
			// they collapse to the visible heads.
			if c, ok := e.(resolved.Commits); ok && !im.hasVisibleHeads(c.IDs) {
				out = append(out, im.refs(c.IDs)...)
				return
			}
			out = append(out, im.expr(e))
		})
		return Union{Exprs: out}
	case resolved.FilterWithin:
		return FilterWithin{Candidates: im.expr(x.Candidates), Predicate: im.pred(x.Predicate)}
	case resolved.Intersection:
		return Intersection{Exprs: im.flatExprs(x.Left, x.Right, splitIntersection)}
	case resolved.Difference:
		return Difference{Left: im.expr(x.Left), Right: im.expr(x.Right)}
	default:
		panic(fmt.Sprintf("plan: unknown resolved expression %T", e))
	}
}

func (im importer) pred(p resolved.Predicate) Predicate {
	switch x := p.(type) {
	case resolved.Filter:
		return Filter{Filter: x.Filter}
	case resolved.Divergent:
		return Divergent{VisibleHeads: im.commits(x.VisibleHeads)}
	case resolved.Set:
		return Set{Expr: im.expr(x.Expr)}
	case resolved.NotIn:
		return NotIn{Predicate: im.pred(x.Predicate)}
	case resolved.PredicateUnion:
		var out []Predicate
		flatten[resolved.Predicate](x.Left, x.Right, splitPredicateUnion, func(p resolved.Predicate) {
			set, ok := p.(resolved.Set)
			if !ok {
				out = append(out, im.pred(p))
				return
			}
			inner := im.expr(set.Expr)
			u, ok := inner.(Union)
			if !ok {
				out = append(out, Set{Expr: inner})
				return
			}
			for _, e := range u.Exprs {
				out = append(out, Set{Expr: e})
			}
		})
		return PredicateUnion{Predicates: out}
	case resolved.PredicateIntersection:
		var out []Predicate
		flatten[resolved.Predicate](x.Left, x.Right, splitPredicateIntersection, func(p resolved.Predicate) {
			out = append(out, im.pred(p))
		})
		return PredicateIntersection{Predicates: out}
	default:
		panic(fmt.Sprintf("plan: unknown resolved predicate %T", p))
	}
}
