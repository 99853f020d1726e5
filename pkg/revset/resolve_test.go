package revset

import (
	"reflect"
	"testing"

	"github.com/odvcencio/revplan/pkg/analyze"
	"github.com/odvcencio/revplan/pkg/plan"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/render"
	"github.com/odvcencio/revplan/pkg/resolved"
)

func TestResolveInternsInOrder(t *testing.T) {
	table := reftable.New()
	got := Resolve(Union{Left: sym("main"), Right: CommitRef{Name: reftable.WorkingCopy}}, table)

	want := []reftable.Reference{reftable.Root, reftable.VisibleHeads, "main", reftable.WorkingCopy}
	if refs := table.References(); !reflect.DeepEqual(refs, want) {
		t.Fatalf("References() = %q, want %q", refs, want)
	}
	main, _ := table.Lookup("main")
	wc, _ := table.Lookup(reftable.WorkingCopy)
	wantExpr := Union{Left: Commits{IDs: []reftable.CommitID{main}}, Right: Commits{IDs: []reftable.CommitID{wc}}}
	if !reflect.DeepEqual(got, Expression(wantExpr)) {
		t.Fatalf("Resolve() = %#v, want %#v", got, wantExpr)
	}
}

func TestResolveSameReferenceTwice(t *testing.T) {
	table := reftable.New()
	Resolve(Union{Left: sym("x"), Right: sym("x")}, table)
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
}

func TestResolveAtOperation(t *testing.T) {
	table := reftable.New()
	got := Resolve(AtOperation{Operation: "abc", Candidates: Union{Left: sym("x"), Right: VisibleHeads{}}}, table)

	x, ok := table.Lookup("x at operation abc")
	if !ok {
		t.Fatal("reference with operation suffix not interned")
	}
	heads, ok := table.Lookup("visible_heads() at operation abc")
	if !ok {
		t.Fatal("visible heads at operation not interned")
	}
	want := WithinVisibility{
		Candidates:   Union{Left: Commits{IDs: []reftable.CommitID{x}}, Right: VisibleHeads{}},
		VisibleHeads: []reftable.CommitID{heads},
	}
	if !reflect.DeepEqual(got, Expression(want)) {
		t.Fatalf("Resolve() = %#v, want %#v", got, want)
	}

	lowered := Lower(got, table)
	wantLowered := resolved.Union{Left: resolved.CommitsOf(x), Right: resolved.CommitsOf(heads)}
	if !reflect.DeepEqual(lowered, resolved.Expression(wantLowered)) {
		t.Fatalf("Lower() = %#v, want %#v", lowered, wantLowered)
	}
}

func TestLower(t *testing.T) {
	table := reftable.New()
	root := table.Insert(reftable.Root)
	vh := table.Insert(reftable.VisibleHeads)
	x := table.Insert("x")
	y := table.Insert("y")
	cx, cy := Commits{IDs: []reftable.CommitID{x}}, Commits{IDs: []reftable.CommitID{y}}
	rx, ry := resolved.CommitsOf(x), resolved.CommitsOf(y)
	conflicts := Filter{Predicate: resolved.HasConflict{}}
	hasConflict := resolved.Filter{Filter: resolved.HasConflict{}}

	tests := []struct {
		name string
		in   Expression
		want resolved.Expression
	}{
		{"none", None{}, resolved.Commits{}},
		{"root", Root{}, resolved.CommitsOf(root)},
		{"visible heads", VisibleHeads{}, resolved.CommitsOf(vh)},
		{
			name: "all includes referenced commits",
			in:   Union{Left: cx, Right: All{}},
			want: resolved.Union{Left: rx, Right: resolved.AncestorsOf(resolved.CommitsOf(vh, x))},
		},
		{
			name: "negation",
			in:   NotIn{Expr: cx},
			want: resolved.Difference{Left: resolved.AncestorsOf(resolved.CommitsOf(vh, x)), Right: rx},
		},
		{
			name: "descendants reach the heads",
			in:   descendantsOf(cx),
			want: resolved.DagRange{Roots: rx, Heads: resolved.CommitsOf(vh, x), GenerationFromRoots: resolved.GenerationFull},
		},
		{
			name: "dag range",
			in:   DagRange{Roots: cx, Heads: cy},
			want: resolved.DagRange{Roots: rx, Heads: ry, GenerationFromRoots: resolved.GenerationFull},
		},
		{
			name: "present is transparent",
			in:   Present{Expr: cx},
			want: rx,
		},
		{
			name: "bare filter",
			in:   conflicts,
			want: resolved.FilterWithin{Candidates: resolved.AncestorsOf(resolved.CommitsOf(vh)), Predicate: hasConflict},
		},
		{
			name: "intersection with filter",
			in:   Intersection{Left: cx, Right: conflicts},
			want: resolved.FilterWithin{Candidates: rx, Predicate: hasConflict},
		},
		{
			name: "difference with filter",
			in:   Difference{Left: cx, Right: conflicts},
			want: resolved.FilterWithin{Candidates: rx, Predicate: resolved.NotIn{Predicate: hasConflict}},
		},
		{
			name: "filter tree",
			in:   Intersection{Left: cx, Right: AsFilter{Expr: Union{Left: cy, Right: NotIn{Expr: conflicts}}}},
			want: resolved.FilterWithin{Candidates: rx, Predicate: resolved.PredicateUnion{
				Left:  resolved.Set{Expr: ry},
				Right: resolved.NotIn{Predicate: hasConflict},
			}},
		},
		{
			name: "divergent",
			in:   Divergent{},
			want: resolved.FilterWithin{
				Candidates: resolved.AncestorsOf(resolved.CommitsOf(vh)),
				Predicate:  resolved.Divergent{VisibleHeads: []reftable.CommitID{vh}},
			},
		},
		{
			name: "unfiltered heads range",
			in:   HeadsRange{Roots: None{}, Heads: cx, ParentsRange: resolved.ParentsFull, Filter: All{}},
			want: resolved.HeadsRange{Roots: resolved.Commits{}, Heads: rx, ParentsRange: resolved.ParentsFull},
		},
		{
			name: "filtered heads range",
			in:   HeadsRange{Roots: None{}, Heads: cx, ParentsRange: resolved.ParentsFull, Filter: conflicts},
			want: resolved.HeadsRange{Roots: resolved.Commits{}, Heads: rx, ParentsRange: resolved.ParentsFull, Filter: hasConflict},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lower(tt.in, table); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Lower() =\n%#v\nwant\n%#v", got, tt.want)
			}
		})
	}
}

func TestLowerPanicsOnUnresolvedReference(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Lower(sym("x"), reftable.New())
}

func explain(t *testing.T, text string, ctx *ParseContext, optimize, analyzeCost bool) string {
	t.Helper()
	table := reftable.New()
	expr, err := Compile(text, ctx, table, optimize)
	if err != nil {
		t.Fatalf("Compile(%q): %v", text, err)
	}
	return render.Sprint(plan.FromResolved(expr, table), analyze.Eager, render.Options{Analyze: analyzeCost})
}

func TestExplainEndToEnd(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		optimize bool
		analyze  bool
		want     string
	}{
		{
			name:     "range",
			input:    "main..@",
			optimize: true,
			want:     "Range {\n  roots: main\n  heads: @\n}\n",
		},
		{
			name:    "unoptimized range",
			input:   "main..@",
			want:    "Range {\n  roots: main\n  heads: @\n}\n",
			analyze: true,
		},
		{
			name:     "expensive ancestors",
			input:    "::@",
			optimize: true,
			analyze:  true,
			want:     "(EXPENSIVE) Ancestors {\n  heads: @\n}\n",
		},
		{
			name:     "filter within candidates",
			input:    "@ & description(fix)",
			optimize: true,
			want:     "FilterWithin {\n  candidates: @\n  predicate: description(substring:\"fix\")\n}\n",
		},
		{
			name:     "descendants",
			input:    "x::",
			optimize: true,
			want:     "DagRange {\n  roots: x\n  heads: visible_heads() and referenced revisions\n}\n",
		},
		{
			name:     "union of symbols",
			input:    "a | b | c",
			optimize: true,
			want:     "Union [\n  a\n  b\n  c\n]\n",
		},
		{
			name:     "difference",
			input:    "a ~ b",
			optimize: true,
			want:     "Difference {\n  candidates: a\n  excluded: b\n}\n",
		},
		{
			name:     "parents",
			input:    "@-",
			optimize: true,
			want:     "Ancestors {\n  generation: 1\n  heads: @\n}\n",
		},
		{
			name:     "at operation",
			input:    "at_operation(abc, x)",
			optimize: true,
			want:     "x at operation abc\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explain(t, tt.input, testContext(), tt.optimize, tt.analyze)
			if got != tt.want {
				t.Fatalf("explain(%q) =\n%s\nwant\n%s", tt.input, got, tt.want)
			}
		})
	}
}

func TestExplainCollapsedAlias(t *testing.T) {
	ctx := testContext()
	ctx.Aliases = mustAliases(t, "trunk()", "latest((main | master) & remote_bookmarks())")
	if err := ctx.Aliases.Collapse("trunk()"); err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	got := explain(t, "trunk()..@", ctx, true, false)
	want := "Range {\n  roots: trunk()\n  heads: @\n}\n"
	if got != want {
		t.Fatalf("explain() =\n%s\nwant\n%s", got, want)
	}
}
