package plan

import (
	"fmt"
	"strconv"

	"github.com/odvcencio/revplan/pkg/analyze"
	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// Predicate is a boolean plan node.
type Predicate interface {
	analyze.Tree
	isPredicate()
}

// Filter is an atomic filter, rendered as its canonical revset text.
type Filter struct {
	Filter resolved.FilterPredicate
}

// Divergent carries the visible heads it was resolved against. They are not
// an expression, but print like one.
type Divergent struct {
	VisibleHeads Expr
}

// Set uses an expression as a membership test.
type Set struct {
	Expr Expr
}

type NotIn struct {
	Predicate Predicate
}

type PredicateUnion struct {
	Predicates []Predicate
}

type PredicateIntersection struct {
	Predicates []Predicate
}

func (Filter) isPredicate()                {}
func (Divergent) isPredicate()             {}
func (Set) isPredicate()                   {}
func (NotIn) isPredicate()                 {}
func (PredicateUnion) isPredicate()        {}
func (PredicateIntersection) isPredicate() {}

func (f Filter) Entry(analyze.Context) analyze.TreeEntry {
	if isNonEmpty(f.Filter) {
		return predicateLeaf("~empty()")
	}
	return predicateLeaf(FilterText(f.Filter))
}

func (d Divergent) Entry(analyze.Context) analyze.TreeEntry {
	return analyze.TreeEntry{
		Name:    "Divergent",
		Context: analyze.Predicate,
		Children: []analyze.Child{
			{Label: "visible_heads", Context: analyze.Eager, Tree: d.VisibleHeads},
		},
	}
}

func (s Set) Entry(analyze.Context) analyze.TreeEntry {
	return s.Expr.Entry(analyze.Predicate)
}

func (n NotIn) Entry(analyze.Context) analyze.TreeEntry {
	if f, ok := n.Predicate.(Filter); ok {
		if isNonEmpty(f.Filter) {
			return predicateLeaf("empty()")
		}
		return predicateLeaf("~" + FilterText(f.Filter))
	}
	return analyze.TreeEntry{
		Name:     "NotIn",
		Context:  analyze.Predicate,
		Children: []analyze.Child{{Context: analyze.Predicate, Tree: n.Predicate}},
	}
}

func (u PredicateUnion) Entry(analyze.Context) analyze.TreeEntry {
	return predicateList("Union", u.Predicates)
}

func (i PredicateIntersection) Entry(analyze.Context) analyze.TreeEntry {
	return predicateList("Intersection", i.Predicates)
}

func (s Set) Cost(analyze.Context) analyze.Cost {
	return s.Expr.Cost(analyze.Predicate)
}

func (Filter) Cost(analyze.Context) analyze.Cost                { return analyze.Fast }
func (Divergent) Cost(analyze.Context) analyze.Cost             { return analyze.Fast }
func (NotIn) Cost(analyze.Context) analyze.Cost                 { return analyze.Fast }
func (PredicateUnion) Cost(analyze.Context) analyze.Cost        { return analyze.Fast }
func (PredicateIntersection) Cost(analyze.Context) analyze.Cost { return analyze.Fast }

func predicateLeaf(name string) analyze.TreeEntry {
	return analyze.TreeEntry{Name: name, Context: analyze.Predicate}
}

func predicateList(name string, preds []Predicate) analyze.TreeEntry {
	children := make([]analyze.Child, len(preds))
	for i, p := range preds {
		children[i] = analyze.Child{Context: analyze.Predicate, Tree: p}
	}
	return analyze.TreeEntry{Name: name, Context: analyze.Predicate, Children: children}
}

// isNonEmpty matches files(all()), which is how ~empty() resolves.
func isNonEmpty(f resolved.FilterPredicate) bool {
	file, ok := f.(resolved.File)
	return ok && pattern.IsAll(file.Files)
}

// FilterText renders an atomic filter as revset text.
func FilterText(f resolved.FilterPredicate) string {
	switch x := f.(type) {
	case resolved.ParentCount:
		if x.Range == resolved.MergeParents {
			return "merges()"
		}
		text, _ := pattern.FormatRange(x.Range, resolved.ParentsFull)
		return "parent_count(" + text + ")"
	case resolved.StringFilter:
		return x.Field.String() + "(" + pattern.FormatString(x.Pattern) + ")"
	case resolved.DateFilter:
		return x.Field.String() + "(" + pattern.FormatDate(x.Date) + ")"
	case resolved.File:
		return "files(" + pattern.FormatFileset(x.Files) + ")"
	case resolved.DiffLines:
		return "diff_lines(" + pattern.FormatString(x.Text) + ", " + pattern.FormatFileset(x.Files) + ")"
	case resolved.HasConflict:
		return "conflicts()"
	case resolved.Signed:
		return "signed()"
	case resolved.Extension:
		return "extension(" + strconv.Quote(x.Name) + ")"
	default:
		panic(fmt.Sprintf("plan: unknown filter %T", f))
	}
}
