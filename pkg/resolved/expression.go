// Package resolved defines the resolved revset tree: the output of symbol
// resolution and optimization, and the input of the explain plan. Every
// symbolic reference has already been replaced by a commit id issued by a
// reftable.Table.
//
// Associative operators are binary here; the plan package flattens them.
package resolved

import (
	"math"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
)

var (
	// GenerationFull is the unrestricted generation range.
	GenerationFull = pattern.NewRange[uint64](0, math.MaxUint64)
	// ParentsFull is the unrestricted parent-index range.
	ParentsFull = pattern.NewRange[uint32](0, math.MaxUint32)
	// MergeParents is the parent-count range matched by merges().
	MergeParents = pattern.NewRange[uint32](2, math.MaxUint32)
)

// Expression is a resolved set expression.
type Expression interface {
	isExpression()
}

// Commits is a literal set of commits.
type Commits struct {
	IDs []reftable.CommitID
}

// Ancestors walks from Heads towards the root.
type Ancestors struct {
	Heads        Expression
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

// Range is ancestors of Heads that are not ancestors of Roots.
type Range struct {
	Roots        Expression
	Heads        Expression
	Generation   pattern.Range[uint64]
	ParentsRange pattern.Range[uint32]
}

// DagRange is descendants of Roots that are also ancestors of Heads.
type DagRange struct {
	Roots               Expression
	Heads               Expression
	GenerationFromRoots pattern.Range[uint64]
}

// Reachable is every commit in Domain connected to Sources within Domain.
type Reachable struct {
	Sources Expression
	Domain  Expression
}

// Heads is the commits in Expr with no descendants in Expr.
type Heads struct {
	Expr Expression
}

// HeadsRange is heads(Roots..Heads), optionally restricted by Filter.
type HeadsRange struct {
	Roots        Expression
	Heads        Expression
	ParentsRange pattern.Range[uint32]
	Filter       Predicate // nil when unfiltered
}

// Roots is the commits in Expr with no ancestors in Expr.
type Roots struct {
	Expr Expression
}

// ForkPoint is the common ancestors of Expr closest to it.
type ForkPoint struct {
	Expr Expression
}

// Bisect is the commits halfway through Expr.
type Bisect struct {
	Expr Expression
}

// HasSize is Candidates if it contains exactly Count commits.
type HasSize struct {
	Candidates Expression
	Count      int
}

// Latest is the Count newest commits of Candidates.
type Latest struct {
	Candidates Expression
	Count      int
}

// Coalesce is the first non-empty operand.
type Coalesce struct {
	Left, Right Expression
}

// Union is commits in either operand.
type Union struct {
	Left, Right Expression
}

// FilterWithin is the commits in Candidates matching Predicate.
type FilterWithin struct {
	Candidates Expression
	Predicate  Predicate
}

// Intersection is commits in both operands.
type Intersection struct {
	Left, Right Expression
}

// Difference is commits in Left but not in Right.
type Difference struct {
	Left, Right Expression
}

func (Commits) isExpression()      {}
func (Ancestors) isExpression()    {}
func (Range) isExpression()        {}
func (DagRange) isExpression()     {}
func (Reachable) isExpression()    {}
func (Heads) isExpression()        {}
func (HeadsRange) isExpression()   {}
func (Roots) isExpression()        {}
func (ForkPoint) isExpression()    {}
func (Bisect) isExpression()       {}
func (HasSize) isExpression()      {}
func (Latest) isExpression()       {}
func (Coalesce) isExpression()     {}
func (Union) isExpression()        {}
func (FilterWithin) isExpression() {}
func (Intersection) isExpression() {}
func (Difference) isExpression()   {}

// CommitsOf builds a literal commit set.
func CommitsOf(ids ...reftable.CommitID) Commits {
	return Commits{IDs: ids}
}

// AncestorsOf returns ::heads with unrestricted ranges.
func AncestorsOf(heads Expression) Ancestors {
	return Ancestors{Heads: heads, Generation: GenerationFull, ParentsRange: ParentsFull}
}

// ContainsID reports whether ids contains id.
func ContainsID(ids []reftable.CommitID, id reftable.CommitID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
