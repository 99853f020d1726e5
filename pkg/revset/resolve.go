package revset

import (
	"fmt"

	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// Resolve interns every symbolic reference in expr into table and returns
// the expression with CommitRef nodes replaced by Commits. The root and the
// visible heads are interned first so they always get the first two ids.
func Resolve(expr Expression, table *reftable.Table) Expression {
	table.Insert(reftable.Root)
	table.Insert(reftable.VisibleHeads)
	return resolveRefs(expr, "", table)
}

func resolveRefs(expr Expression, operation string, table *reftable.Table) Expression {
	switch e := expr.(type) {
	case CommitRef:
		name := e.Name
		if operation != "" {
			name = reftable.Reference(fmt.Sprintf("%s at operation %s", name, operation))
		}
		return Commits{IDs: []reftable.CommitID{table.Insert(name)}}
	case AtOperation:
		candidates := resolveRefs(e.Candidates, e.Operation, table)
		heads := table.Insert(reftable.Reference("visible_heads() at operation " + e.Operation))
		return WithinVisibility{Candidates: candidates, VisibleHeads: []reftable.CommitID{heads}}
	default:
		return mapChildren(expr, func(child Expression) Expression {
			return resolveRefs(child, operation, table)
		})
	}
}

// Lower converts a resolved expression into the tree consumed by the plan.
// expr must not contain CommitRef or AtOperation nodes.
func Lower(expr Expression, table *reftable.Table) resolved.Expression {
	lw := backend{
		root:         table.Insert(reftable.Root),
		visibleHeads: []reftable.CommitID{table.Insert(reftable.VisibleHeads)},
	}
	lw.referenced = referencedCommits(expr)
	return lw.expr(expr)
}

// referencedCommits collects every literal commit id in expr, in first
// appearance order.
func referencedCommits(expr Expression) []reftable.CommitID {
	var ids []reftable.CommitID
	transformBottomUp(expr, func(e Expression) Expression {
		if c, ok := e.(Commits); ok {
			for _, id := range c.IDs {
				if !resolved.ContainsID(ids, id) {
					ids = append(ids, id)
				}
			}
		}
		return nil
	})
	return ids
}

type backend struct {
	root         reftable.CommitID
	visibleHeads []reftable.CommitID
	referenced   []reftable.CommitID
}

func (b backend) visibleHeadsOrReferenced() resolved.Commits {
	ids := append([]reftable.CommitID(nil), b.visibleHeads...)
	for _, id := range b.referenced {
		if !resolved.ContainsID(ids, id) {
			ids = append(ids, id)
		}
	}
	return resolved.Commits{IDs: ids}
}

func (b backend) all() resolved.Expression {
	return resolved.AncestorsOf(b.visibleHeadsOrReferenced())
}

func (b backend) expr(expr Expression) resolved.Expression {
	switch e := expr.(type) {
	case None:
		return resolved.Commits{}
	case All:
		return b.all()
	case VisibleHeads:
		return resolved.Commits{IDs: append([]reftable.CommitID(nil), b.visibleHeads...)}
	case VisibleHeadsOrReferenced:
		return b.visibleHeadsOrReferenced()
	case Root:
		return resolved.CommitsOf(b.root)
	case Commits:
		return resolved.Commits{IDs: e.IDs}
	case Ancestors:
		return resolved.Ancestors{Heads: b.expr(e.Heads), Generation: e.Generation, ParentsRange: e.ParentsRange}
	case Descendants:
		return resolved.DagRange{Roots: b.expr(e.Roots), Heads: b.visibleHeadsOrReferenced(), GenerationFromRoots: e.Generation}
	case Range:
		return resolved.Range{Roots: b.expr(e.Roots), Heads: b.expr(e.Heads), Generation: e.Generation, ParentsRange: e.ParentsRange}
	case DagRange:
		return resolved.DagRange{Roots: b.expr(e.Roots), Heads: b.expr(e.Heads), GenerationFromRoots: resolved.GenerationFull}
	case Reachable:
		return resolved.Reachable{Sources: b.expr(e.Sources), Domain: b.expr(e.Domain)}
	case Heads:
		return resolved.Heads{Expr: b.expr(e.Expr)}
	case HeadsRange:
		out := resolved.HeadsRange{Roots: b.expr(e.Roots), Heads: b.expr(e.Heads), ParentsRange: e.ParentsRange}
		if _, all := e.Filter.(All); !all && e.Filter != nil {
			out.Filter = b.predicate(e.Filter)
		}
		return out
	case Roots:
		return resolved.Roots{Expr: b.expr(e.Expr)}
	case ForkPoint:
		return resolved.ForkPoint{Expr: b.expr(e.Expr)}
	case Bisect:
		return resolved.Bisect{Expr: b.expr(e.Expr)}
	case HasSize:
		return resolved.HasSize{Candidates: b.expr(e.Candidates), Count: e.Count}
	case Latest:
		return resolved.Latest{Candidates: b.expr(e.Candidates), Count: e.Count}
	case Filter, AsFilter, Divergent:
		return resolved.FilterWithin{Candidates: b.all(), Predicate: b.predicate(e)}
	case Present:
		return b.expr(e.Expr)
	case WithinVisibility:
		inner := b
		inner.visibleHeads = e.VisibleHeads
		return inner.expr(e.Candidates)
	case Coalesce:
		return resolved.Coalesce{Left: b.expr(e.Left), Right: b.expr(e.Right)}
	case Union:
		return resolved.Union{Left: b.expr(e.Left), Right: b.expr(e.Right)}
	case Intersection:
		if isFilter(e.Right) {
			return resolved.FilterWithin{Candidates: b.expr(e.Left), Predicate: b.predicate(e.Right)}
		}
		return resolved.Intersection{Left: b.expr(e.Left), Right: b.expr(e.Right)}
	case Difference:
		if isFilter(e.Right) {
			return resolved.FilterWithin{Candidates: b.expr(e.Left), Predicate: resolved.NotIn{Predicate: b.predicate(e.Right)}}
		}
		return resolved.Difference{Left: b.expr(e.Left), Right: b.expr(e.Right)}
	case NotIn:
		return resolved.Difference{Left: b.all(), Right: b.expr(e.Expr)}
	case CommitRef, AtOperation:
		panic(fmt.Sprintf("revset: %T must be resolved before lowering", e))
	default:
		panic(unknownExpression(expr))
	}
}

func (b backend) predicate(expr Expression) resolved.Predicate {
	switch e := expr.(type) {
	case Filter:
		return resolved.Filter{Filter: e.Predicate}
	case AsFilter:
		return b.predicate(e.Expr)
	case Present:
		return b.predicate(e.Expr)
	case Divergent:
		return resolved.Divergent{VisibleHeads: append([]reftable.CommitID(nil), b.visibleHeads...)}
	case NotIn:
		return resolved.NotIn{Predicate: b.predicate(e.Expr)}
	case Union:
		return resolved.PredicateUnion{Left: b.predicate(e.Left), Right: b.predicate(e.Right)}
	case Intersection:
		return resolved.PredicateIntersection{Left: b.predicate(e.Left), Right: b.predicate(e.Right)}
	case Difference:
		return resolved.PredicateIntersection{Left: b.predicate(e.Left), Right: resolved.NotIn{Predicate: b.predicate(e.Right)}}
	default:
		return resolved.Set{Expr: b.expr(expr)}
	}
}
