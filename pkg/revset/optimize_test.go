package revset

import (
	"math"
	"reflect"
	"testing"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/resolved"
)

func gen(start, end uint64) pattern.Range[uint64] {
	return pattern.NewRange(start, end)
}

func TestOptimize(t *testing.T) {
	x, y := sym("x"), sym("y")
	conflicts := Filter{Predicate: resolved.HasConflict{}}
	signed := Filter{Predicate: resolved.Signed{}}

	tests := []struct {
		name string
		in   Expression
		want Expression
	}{
		{
			name: "double negation",
			in:   NotIn{Expr: NotIn{Expr: x}},
			want: x,
		},
		{
			name: "plain negation stays",
			in:   NotIn{Expr: x},
			want: NotIn{Expr: x},
		},
		{
			name: "range round trips",
			in:   rangeOf(x, y),
			want: rangeOf(x, y),
		},
		{
			name: "negated ancestors become a range to the heads",
			in:   NotIn{Expr: ancestorsOf(x)},
			want: rangeOf(x, VisibleHeadsOrReferenced{}),
		},
		{
			name: "ancestors difference becomes a range",
			in:   Difference{Left: ancestorsOf(y), Right: ancestorsOf(x)},
			want: rangeOf(x, y),
		},
		{
			name: "difference",
			in:   Intersection{Left: x, Right: NotIn{Expr: y}},
			want: Difference{Left: x, Right: y},
		},
		{
			name: "difference with negation first",
			in:   Intersection{Left: NotIn{Expr: y}, Right: x},
			want: Difference{Left: x, Right: y},
		},
		{
			name: "nested parents",
			in:   parentsAt(parentsAt(x, 1), 1),
			want: Ancestors{Heads: x, Generation: gen(2, 3), ParentsRange: resolved.ParentsFull},
		},
		{
			name: "ancestors of parents",
			in:   ancestorsOf(parentsAt(x, 1)),
			want: Ancestors{Heads: x, Generation: gen(1, math.MaxUint64), ParentsRange: resolved.ParentsFull},
		},
		{
			name: "nested children",
			in:   childrenAt(childrenAt(x, 1), 1),
			want: Descendants{Roots: x, Generation: gen(2, 3)},
		},
		{
			name: "empty generation absorbs",
			in:   parentsAt(Ancestors{Heads: x, Generation: gen(0, 0), ParentsRange: resolved.ParentsFull}, 1),
			want: Ancestors{Heads: x, Generation: gen(0, 0), ParentsRange: resolved.ParentsFull},
		},
		{
			name: "first parent walks do not fold",
			in:   Ancestors{Heads: parentsAt(x, 1), Generation: gen(1, 2), ParentsRange: firstParentRange},
			want: Ancestors{Heads: parentsAt(x, 1), Generation: gen(1, 2), ParentsRange: firstParentRange},
		},
		{
			name: "filter moves right",
			in:   Intersection{Left: conflicts, Right: x},
			want: Intersection{Left: x, Right: conflicts},
		},
		{
			name: "filters merge",
			in:   Intersection{Left: Intersection{Left: x, Right: conflicts}, Right: Intersection{Left: y, Right: signed}},
			want: Intersection{
				Left:  Intersection{Left: x, Right: y},
				Right: AsFilter{Expr: Intersection{Left: conflicts, Right: signed}},
			},
		},
		{
			name: "negated filter",
			in:   Difference{Left: x, Right: conflicts},
			want: Intersection{Left: x, Right: AsFilter{Expr: NotIn{Expr: conflicts}}},
		},
		{
			name: "union with filter",
			in:   Intersection{Left: x, Right: Union{Left: y, Right: conflicts}},
			want: Intersection{Left: x, Right: AsFilter{Expr: Union{Left: y, Right: conflicts}}},
		},
		{
			name: "present filter",
			in:   Intersection{Left: x, Right: Present{Expr: conflicts}},
			want: Intersection{Left: x, Right: AsFilter{Expr: Present{Expr: conflicts}}},
		},
		{
			name: "heads of ancestors",
			in:   Heads{Expr: ancestorsOf(x)},
			want: HeadsRange{Roots: None{}, Heads: x, ParentsRange: resolved.ParentsFull, Filter: All{}},
		},
		{
			name: "heads of range",
			in:   Heads{Expr: rangeOf(x, y)},
			want: HeadsRange{Roots: x, Heads: y, ParentsRange: resolved.ParentsFull, Filter: All{}},
		},
		{
			name: "heads of filtered ancestors",
			in:   Heads{Expr: Intersection{Left: ancestorsOf(x), Right: conflicts}},
			want: HeadsRange{Roots: None{}, Heads: x, ParentsRange: resolved.ParentsFull, Filter: conflicts},
		},
		{
			name: "heads of all",
			in:   Heads{Expr: All{}},
			want: HeadsRange{Roots: None{}, Heads: VisibleHeadsOrReferenced{}, ParentsRange: resolved.ParentsFull, Filter: All{}},
		},
		{
			name: "heads of symbol stays",
			in:   Heads{Expr: x},
			want: Heads{Expr: x},
		},
		{
			name: "heads of ancestors and symbol stays",
			in:   Heads{Expr: Intersection{Left: ancestorsOf(x), Right: y}},
			want: Heads{Expr: Intersection{Left: ancestorsOf(x), Right: y}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Optimize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Optimize() =\n%#v\nwant\n%#v", got, tt.want)
			}
		})
	}
}

func TestAddGeneration(t *testing.T) {
	tests := []struct {
		a, b, want pattern.Range[uint64]
	}{
		{gen(1, 2), gen(1, 2), gen(2, 3)},
		{gen(0, 3), gen(2, 4), gen(2, 6)},
		{gen(0, 0), gen(1, 2), gen(0, 0)},
		{gen(1, 2), gen(5, 5), gen(0, 0)},
		{resolved.GenerationFull, gen(1, 2), gen(1, math.MaxUint64)},
		{gen(math.MaxUint64-1, math.MaxUint64), gen(3, 4), gen(math.MaxUint64, math.MaxUint64)},
	}
	for _, tt := range tests {
		if got := addGeneration(tt.a, tt.b); got != tt.want {
			t.Errorf("addGeneration(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortNegationsAndAncestors(t *testing.T) {
	x, y, z := sym("x"), sym("y"), sym("z")
	in := intersectAll([]Expression{NotIn{Expr: z}, x, ancestorsOf(y), NotIn{Expr: ancestorsOf(z)}})
	want := intersectAll([]Expression{NotIn{Expr: ancestorsOf(z)}, ancestorsOf(y), x, NotIn{Expr: z}})
	if got := sortNegationsAndAncestors(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("sortNegationsAndAncestors() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestFlattenIntersections(t *testing.T) {
	a, b, c, d := sym("a"), sym("b"), sym("c"), sym("d")
	in := Intersection{Left: a, Right: Intersection{Left: Intersection{Left: b, Right: c}, Right: d}}
	want := intersectAll([]Expression{a, b, c, d})
	if got := flattenIntersections(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("flattenIntersections() =\n%#v\nwant\n%#v", got, want)
	}
}
