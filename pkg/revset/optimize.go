package revset

import (
	"slices"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// Optimize rewrites expr into an equivalent tree that is cheaper to
// evaluate. The passes run in a fixed order; later passes rely on the
// shapes earlier ones produce.
func Optimize(expr Expression) Expression {
	expr = unfoldDifference(expr)
	expr = foldRedundant(expr)
	expr = foldGeneration(expr)
	expr = flattenIntersections(expr)
	expr = sortNegationsAndAncestors(expr)
	expr = internalizeFilter(expr)
	expr = foldHeadsRange(expr)
	expr = foldDifference(expr)
	return foldNotInAncestors(expr)
}

// unfoldDifference rewrites x..y as ::y & ~::x and a ~ b as a & ~b so later
// passes only deal with intersections and negations.
func unfoldDifference(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		switch e := e.(type) {
		case Range:
			heads := Ancestors{Heads: e.Heads, Generation: e.Generation, ParentsRange: e.ParentsRange}
			return Intersection{Left: heads, Right: NotIn{Expr: ancestorsOf(e.Roots)}}
		case Difference:
			return Intersection{Left: e.Left, Right: NotIn{Expr: e.Right}}
		}
		return nil
	})
}

func foldRedundant(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		if outer, ok := e.(NotIn); ok {
			if inner, ok := outer.Expr.(NotIn); ok {
				return inner.Expr
			}
		}
		return nil
	})
}

// foldGeneration merges directly nested ancestors (or descendants) walks.
func foldGeneration(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		switch e := e.(type) {
		case Ancestors:
			inner, ok := e.Heads.(Ancestors)
			if !ok || e.ParentsRange != resolved.ParentsFull || inner.ParentsRange != resolved.ParentsFull {
				return nil
			}
			return Ancestors{Heads: inner.Heads, Generation: addGeneration(e.Generation, inner.Generation), ParentsRange: resolved.ParentsFull}
		case Descendants:
			inner, ok := e.Roots.(Descendants)
			if !ok {
				return nil
			}
			return Descendants{Roots: inner.Roots, Generation: addGeneration(e.Generation, inner.Generation)}
		}
		return nil
	})
}

// addGeneration composes two walks: a commit is reached in g1 then g2
// steps, so the starts add and the exclusive ends add minus one.
func addGeneration(g1, g2 pattern.Range[uint64]) pattern.Range[uint64] {
	if g1.IsEmpty() || g2.IsEmpty() {
		return pattern.NewRange[uint64](0, 0)
	}
	end := saturatingAdd(g1.End, g2.End)
	if end != ^uint64(0) {
		end--
	}
	return pattern.NewRange(saturatingAdd(g1.Start, g2.Start), end)
}

// intersectionOperands lists the operands of a left-deep intersection chain.
func intersectionOperands(e Expression) []Expression {
	var out []Expression
	for {
		i, ok := e.(Intersection)
		if !ok {
			break
		}
		out = append(out, i.Right)
		e = i.Left
	}
	out = append(out, e)
	slices.Reverse(out)
	return out
}

func intersectAll(operands []Expression) Expression {
	out := operands[0]
	for _, e := range operands[1:] {
		out = Intersection{Left: out, Right: e}
	}
	return out
}

// flattenIntersections reassociates a & (b & c) into (a & b) & c.
func flattenIntersections(expr Expression) Expression {
	var flatten func(left, right Expression) Expression
	flatten = func(left, right Expression) Expression {
		if inner, ok := right.(Intersection); ok {
			return flatten(flatten(left, inner.Left), inner.Right)
		}
		return Intersection{Left: left, Right: right}
	}
	return transformBottomUp(expr, func(e Expression) Expression {
		if i, ok := e.(Intersection); ok {
			if _, nested := i.Right.(Intersection); nested {
				return flatten(i.Left, i.Right)
			}
		}
		return nil
	})
}

type operandOrder int

const (
	orderNegatedAncestors operandOrder = iota
	orderAncestors
	orderOther
	orderNegatedOther
)

func operandOrderOf(e Expression) operandOrder {
	if _, ok := isFullAncestors(e); ok {
		return orderAncestors
	}
	if n, ok := e.(NotIn); ok {
		if _, ok := isFullAncestors(n.Expr); ok {
			return orderNegatedAncestors
		}
		return orderNegatedOther
	}
	return orderOther
}

// sortNegationsAndAncestors orders each intersection chain so ~::x comes
// first and other negations come last, which lets the difference and range
// folds find their operands side by side.
func sortNegationsAndAncestors(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		if _, ok := e.(Intersection); !ok {
			return nil
		}
		operands := intersectionOperands(e)
		if slices.IsSortedFunc(operands, compareOperands) {
			return nil
		}
		slices.SortStableFunc(operands, compareOperands)
		return intersectAll(operands)
	})
}

func compareOperands(a, b Expression) int {
	return int(operandOrderOf(a)) - int(operandOrderOf(b))
}

// filterOf returns the predicate tree of a filter-like node.
func filterOf(e Expression) (Expression, bool) {
	switch e := e.(type) {
	case Filter, Divergent:
		return e, true
	case AsFilter:
		return e.Expr, true
	}
	return nil, false
}

// internalizeFilter moves filters to the right of intersections and marks
// every subtree that contains one, so the filter is evaluated against the
// candidates it intersects instead of the whole repository.
func internalizeFilter(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		switch e := e.(type) {
		case Present:
			if f, ok := filterOf(e.Expr); ok {
				return AsFilter{Expr: Present{Expr: f}}
			}
		case NotIn:
			if f, ok := filterOf(e.Expr); ok {
				return AsFilter{Expr: NotIn{Expr: f}}
			}
		case Union:
			f1, ok1 := filterOf(e.Left)
			f2, ok2 := filterOf(e.Right)
			if !ok1 && !ok2 {
				return nil
			}
			if !ok1 {
				f1 = e.Left
			}
			if !ok2 {
				f2 = e.Right
			}
			return AsFilter{Expr: Union{Left: f1, Right: f2}}
		case Intersection:
			return intersectDown(e.Left, e.Right)
		}
		return nil
	})
}

// intersectDown builds left & right keeping at most one filter, as the
// rightmost operand.
func intersectDown(left, right Expression) Expression {
	f1, ok1 := filterOf(left)
	f2, ok2 := filterOf(right)
	switch {
	case ok1 && ok2:
		return AsFilter{Expr: Intersection{Left: f1, Right: f2}}
	case ok1:
		return intersectDown(right, left)
	case ok2:
		if inner, ok := left.(Intersection); ok {
			if f12, ok := filterOf(inner.Right); ok {
				return Intersection{Left: inner.Left, Right: AsFilter{Expr: Intersection{Left: f12, Right: f2}}}
			}
		}
		return Intersection{Left: left, Right: right}
	default:
		if inner, ok := left.(Intersection); ok {
			if _, ok := filterOf(inner.Right); ok {
				return Intersection{Left: intersectDown(inner.Left, right), Right: inner.Right}
			}
		}
		return Intersection{Left: left, Right: right}
	}
}

func isFilter(e Expression) bool {
	_, ok := filterOf(e)
	return ok
}

type filteredRange struct {
	roots        Expression
	heads        Expression
	parentsRange pattern.Range[uint32]
	filter       Expression
}

func (r *filteredRange) add(e Expression) bool {
	if r.heads == nil {
		if a, ok := e.(Ancestors); ok && a.Generation == resolved.GenerationFull {
			r.heads, r.parentsRange = a.Heads, a.ParentsRange
			return true
		}
	}
	if !isFilter(e) {
		return false
	}
	if _, all := r.filter.(All); all {
		r.filter = e
	} else {
		r.filter = Intersection{Left: r.filter, Right: e}
	}
	return true
}

func toFilteredRange(e Expression) (*filteredRange, bool) {
	switch e := e.(type) {
	case Ancestors:
		if e.Generation == resolved.GenerationFull {
			return &filteredRange{roots: None{}, heads: e.Heads, parentsRange: e.ParentsRange, filter: All{}}, true
		}
	case Range:
		if e.Generation == resolved.GenerationFull {
			return &filteredRange{roots: e.Roots, heads: e.Heads, parentsRange: e.ParentsRange, filter: All{}}, true
		}
	case NotIn:
		if a, ok := isFullAncestors(e.Expr); ok {
			return &filteredRange{roots: a.Heads, filter: All{}}, true
		}
	case All:
		return &filteredRange{roots: None{}, filter: All{}}, true
	case Filter, AsFilter, Divergent:
		return &filteredRange{roots: None{}, filter: e}, true
	case Intersection:
		r, ok := toFilteredRange(e.Left)
		if !ok || !r.add(e.Right) {
			return nil, false
		}
		return r, true
	}
	return nil, false
}

// foldHeadsRange turns heads() of an ancestor walk, a range, or either
// intersected with filters into a single HeadsRange.
func foldHeadsRange(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		h, ok := e.(Heads)
		if !ok {
			return nil
		}
		r, ok := toFilteredRange(h.Expr)
		if !ok {
			return nil
		}
		if r.heads == nil {
			r.heads, r.parentsRange = VisibleHeadsOrReferenced{}, resolved.ParentsFull
		}
		return HeadsRange{Roots: r.roots, Heads: r.heads, ParentsRange: r.parentsRange, Filter: r.filter}
	})
}

// foldDifference turns a & ~b back into a ~ b, leaving trailing filters in
// place.
func foldDifference(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		i, ok := e.(Intersection)
		if !ok {
			return nil
		}
		switch right := i.Right.(type) {
		case Filter, AsFilter, Divergent:
			return nil
		case NotIn:
			return Difference{Left: i.Left, Right: right.Expr}
		}
		if left, ok := i.Left.(NotIn); ok {
			return Difference{Left: i.Right, Right: left.Expr}
		}
		return nil
	})
}

// foldNotInAncestors recognizes ::h ~ ::r as the range r..h.
func foldNotInAncestors(expr Expression) Expression {
	return transformBottomUp(expr, func(e Expression) Expression {
		switch e := e.(type) {
		case NotIn:
			if a, ok := isFullAncestors(e.Expr); ok {
				return rangeOf(a.Heads, VisibleHeadsOrReferenced{})
			}
		case Difference:
			heads, ok := e.Left.(Ancestors)
			if !ok {
				return nil
			}
			if roots, ok := isFullAncestors(e.Right); ok {
				return Range{Roots: roots.Heads, Heads: heads.Heads, Generation: heads.Generation, ParentsRange: heads.ParentsRange}
			}
		}
		return nil
	})
}
