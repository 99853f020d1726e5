package resolved

import (
	"fmt"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
)

// Predicate is a per-commit boolean test.
type Predicate interface {
	isPredicate()
}

// Filter applies an atomic filter.
type Filter struct {
	Filter FilterPredicate
}

// Divergent matches commits whose change has several visible commits, as
// seen from VisibleHeads.
type Divergent struct {
	VisibleHeads []reftable.CommitID
}

// Set tests membership in a set expression.
type Set struct {
	Expr Expression
}

// NotIn negates a predicate.
type NotIn struct {
	Predicate Predicate
}

// PredicateUnion matches when either operand does.
type PredicateUnion struct {
	Left, Right Predicate
}

// PredicateIntersection matches when both operands do.
type PredicateIntersection struct {
	Left, Right Predicate
}

func (Filter) isPredicate()                {}
func (Divergent) isPredicate()             {}
func (Set) isPredicate()                   {}
func (NotIn) isPredicate()                 {}
func (PredicateUnion) isPredicate()        {}
func (PredicateIntersection) isPredicate() {}

// FilterPredicate is an atomic commit filter.
type FilterPredicate interface {
	isFilterPredicate()
}

// StringField names the commit metadata a StringFilter inspects.
type StringField int

const (
	Description StringField = iota
	Subject
	AuthorName
	AuthorEmail
	CommitterName
	CommitterEmail
)

var stringFieldNames = [...]string{
	Description:    "description",
	Subject:        "subject",
	AuthorName:     "author_name",
	AuthorEmail:    "author_email",
	CommitterName:  "committer_name",
	CommitterEmail: "committer_email",
}

// String returns the revset function name for the field.
func (f StringField) String() string {
	if f < 0 || int(f) >= len(stringFieldNames) {
		return fmt.Sprintf("StringField(%d)", int(f))
	}
	return stringFieldNames[f]
}

// ParseStringField maps a revset function name to its field.
func ParseStringField(name string) (StringField, bool) {
	for f, n := range stringFieldNames {
		if n == name {
			return StringField(f), true
		}
	}
	return 0, false
}

// DateField names the timestamp a DateFilter inspects.
type DateField int

const (
	AuthorDate DateField = iota
	CommitterDate
)

func (f DateField) String() string {
	switch f {
	case AuthorDate:
		return "author_date"
	case CommitterDate:
		return "committer_date"
	default:
		return fmt.Sprintf("DateField(%d)", int(f))
	}
}

// ParentCount matches commits whose parent count is in Range.
type ParentCount struct {
	Range pattern.Range[uint32]
}

// StringFilter matches a text field against a string expression.
type StringFilter struct {
	Field   StringField
	Pattern pattern.StringExpr
}

// DateFilter matches a timestamp against a date pattern.
type DateFilter struct {
	Field DateField
	Date  pattern.DatePattern
}

// File matches commits touching Files.
type File struct {
	Files pattern.FilesetExpr
}

// DiffLines matches commits whose diff in Files has lines matching Text.
type DiffLines struct {
	Text  pattern.StringExpr
	Files pattern.FilesetExpr
}

// HasConflict matches commits with conflicted trees.
type HasConflict struct{}

// Signed matches cryptographically signed commits.
type Signed struct{}

// Extension is a filter contributed by an extension, identified by Name.
type Extension struct {
	Name string
}

func (ParentCount) isFilterPredicate()  {}
func (StringFilter) isFilterPredicate() {}
func (DateFilter) isFilterPredicate()   {}
func (File) isFilterPredicate()         {}
func (DiffLines) isFilterPredicate()    {}
func (HasConflict) isFilterPredicate()  {}
func (Signed) isFilterPredicate()       {}
func (Extension) isFilterPredicate()    {}
