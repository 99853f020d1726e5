// Package plan is the explain-plan model of a resolved revset. A plan is
// built once from a resolved.Expression by FromResolved, is immutable
// afterwards, and implements analyze.Tree at every node.
//
// Union, Intersection and Coalesce hold flat operand lists: an operand is
// never of the same kind as the list that holds it.
package plan

import (
	"github.com/odvcencio/revplan/pkg/analyze"
	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
)

// Expr is a set-valued plan node.
type Expr interface {
	analyze.Tree
	isExpr()
}

// None is the empty set.
type None struct{}

// Reference is a single symbolic commit set.
type Reference struct {
	Ref reftable.Reference
}

type Ancestors struct {
	Heads        Expr
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

type Range struct {
	Roots        Expr
	Heads        Expr
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

type DagRange struct {
	Roots               Expr
	Heads               Expr
	GenerationFromRoots pattern.Range[uint64]
}

type Reachable struct {
	Sources Expr
	Domain  Expr
}

type Heads struct {
	Expr Expr
}

// HeadsRange is heads(Roots..Heads). Filter is nil when absent.
type HeadsRange struct {
	Roots        Expr
	Heads        Expr
	ParentsRange pattern.Range[uint32]
	Filter       Predicate
}

type Roots struct {
	Expr Expr
}

type ForkPoint struct {
	Expr Expr
}

type Bisect struct {
	Expr Expr
}

type HasSize struct {
	Candidates Expr
	Count      int
}

type Latest struct {
	Candidates Expr
	Count      int
}

type Coalesce struct {
	Exprs []Expr
}

type Union struct {
	Exprs []Expr
}

type FilterWithin struct {
	Candidates Expr
	Predicate  Predicate
}

type Intersection struct {
	Exprs []Expr
}

type Difference struct {
	Left, Right Expr
}

func (None) isExpr()         {}
func (Reference) isExpr()    {}
func (Ancestors) isExpr()    {}
func (Range) isExpr()        {}
func (DagRange) isExpr()     {}
func (Reachable) isExpr()    {}
func (Heads) isExpr()        {}
func (HeadsRange) isExpr()   {}
func (Roots) isExpr()        {}
func (ForkPoint) isExpr()    {}
func (Bisect) isExpr()       {}
func (HasSize) isExpr()      {}
func (Latest) isExpr()       {}
func (Coalesce) isExpr()     {}
func (Union) isExpr()        {}
func (FilterWithin) isExpr() {}
func (Intersection) isExpr() {}
func (Difference) isExpr()   {}

// IsNone reports whether e is the empty set.
func IsNone(e Expr) bool {
	_, ok := e.(None)
	return ok
}

// IsRootOrNone reports whether e provably evaluates to at most the root
// commit.
func IsRootOrNone(e Expr) bool {
	switch x := e.(type) {
	case None:
		return true
	case Reference:
		return x.Ref == reftable.Root
	case Coalesce:
		return allRootOrNone(x.Exprs)
	case Union:
		return allRootOrNone(x.Exprs)
	case Intersection:
		for _, sub := range x.Exprs {
			if IsRootOrNone(sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func allRootOrNone(exprs []Expr) bool {
	for _, sub := range exprs {
		if !IsRootOrNone(sub) {
			return false
		}
	}
	return true
}
