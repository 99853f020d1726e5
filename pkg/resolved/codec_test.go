package resolved

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
)

func sampleTree(table *reftable.Table) Expression {
	root := table.Insert(reftable.Root)
	main := table.Insert("main")
	wc := table.Insert(reftable.WorkingCopy)
	heads := table.Insert(reftable.VisibleHeads)

	return Union{
		Left: FilterWithin{
			Candidates: Range{
				Roots:        CommitsOf(root),
				Heads:        CommitsOf(main, wc),
				Generation:   pattern.NewRange[uint64](0, 20000),
				ParentsRange: ParentsFull,
			},
			Predicate: PredicateUnion{
				Left: Filter{Filter: StringFilter{
					Field:   AuthorEmail,
					Pattern: pattern.StringNotIn{Expr: pattern.StringPattern{Kind: pattern.GlobI, Text: "*@bots"}},
				}},
				Right: PredicateIntersection{
					Left: NotIn{Predicate: Divergent{VisibleHeads: []reftable.CommitID{heads}}},
					Right: Filter{Filter: DiffLines{
						Text: pattern.StringPattern{Kind: pattern.Substring},
						Files: pattern.FilesetDifference{
							Left: pattern.FilesetUnion{Exprs: []pattern.FilesetExpr{
								pattern.FilePattern{Kind: pattern.PrefixPath, Path: "src"},
								pattern.FilePattern{Kind: pattern.FileGlob, Dir: "docs", Glob: "*.md"},
							}},
							Right: pattern.FilesetNone{},
						},
					}},
				},
			},
		},
		Right: Coalesce{
			Left: HeadsRange{
				Roots:        CommitsOf(root),
				Heads:        AncestorsOf(CommitsOf(heads)),
				ParentsRange: pattern.NewRange[uint32](0, 1),
				Filter: Set{Expr: Latest{
					Candidates: Reachable{Sources: CommitsOf(wc), Domain: DagRange{
						Roots:               CommitsOf(root),
						Heads:               CommitsOf(main),
						GenerationFromRoots: GenerationFull,
					}},
					Count: 3,
				}},
			},
			Right: Difference{
				Left: Intersection{
					Left:  HasSize{Candidates: Bisect{Expr: CommitsOf(main)}, Count: 0},
					Right: ForkPoint{Expr: Roots{Expr: Heads{Expr: CommitsOf(wc)}}},
				},
				Right: FilterWithin{
					Candidates: CommitsOf(main),
					Predicate: PredicateUnion{
						Left: Filter{Filter: DateFilter{
							Field: CommitterDate,
							Date:  pattern.BeforeTime(time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.UTC)),
						}},
						Right: PredicateUnion{
							Left:  Filter{Filter: ParentCount{Range: MergeParents}},
							Right: PredicateUnion{Left: Filter{Filter: HasConflict{}}, Right: Filter{Filter: Extension{Name: "tag"}}},
						},
					},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	table := reftable.New()
	tree := sampleTree(table)

	var buf bytes.Buffer
	if err := Encode(&buf, tree, table); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(bytes.NewReader(buf.Bytes()), table)
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(got, tree) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, tree)
	}
}

func TestDecodeIntoFreshTable(t *testing.T) {
	table := reftable.New()
	tree := sampleTree(table)

	var buf bytes.Buffer
	if err := Encode(&buf, tree, table); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	fresh := reftable.New()
	if _, err := Decode(&buf, fresh); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fresh.Len() != table.Len() {
		t.Fatalf("fresh table has %d references, want %d", fresh.Len(), table.Len())
	}
	for _, ref := range table.References() {
		if _, ok := fresh.Lookup(ref); !ok {
			t.Fatalf("reference %q missing after decode", ref)
		}
	}
}

func TestEncodeOmitsFullRanges(t *testing.T) {
	table := reftable.New()
	tree := AncestorsOf(CommitsOf(table.Insert("main")))

	var buf bytes.Buffer
	if err := Encode(&buf, tree, table); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "generation") || strings.Contains(out, "parents_range") {
		t.Fatalf("full ranges should be omitted:\n%s", out)
	}
	if !strings.Contains(out, "refs: [main]") {
		t.Fatalf("commit ids should be written as references:\n%s", out)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "empty input"},
		{name: "version", input: "version: 7\nexpression: {kind: commits}\n", want: "unsupported version 7"},
		{name: "missing expression", input: "version: 1\n", want: "expression: missing expression"},
		{name: "unknown kind", input: "version: 1\nexpression: {kind: everything}\n", want: `unknown expression kind "everything"`},
		{name: "missing kind", input: "version: 1\nexpression: {refs: [a]}\n", want: "missing kind"},
		{name: "unknown field", input: "version: 1\nexpression: {kind: commits, colour: red}\n", want: "colour"},
		{
			name:  "bad range",
			input: "version: 1\nexpression: {kind: ancestors, heads: {kind: commits, refs: [a]}, generation: [1]}\n",
			want:  "expression.generation: want [start, end]",
		},
		{
			name:  "nested path",
			input: "version: 1\nexpression: {kind: union, left: {kind: commits, refs: [a]}, right: {kind: heads}}\n",
			want:  "expression.right.of: missing expression",
		},
		{
			name:  "missing count",
			input: "version: 1\nexpression: {kind: latest, candidates: {kind: commits, refs: [a]}}\n",
			want:  "missing count",
		},
		{
			name:  "bad filter",
			input: "version: 1\nexpression: {kind: filter_within, candidates: {kind: commits, refs: [a]}, predicate: {kind: filter, filter: {kind: mood}}}\n",
			want:  `unknown filter kind "mood"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input), reftable.New())
			if err == nil {
				t.Fatalf("Decode succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Decode error = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestDecodeAcceptsJSON(t *testing.T) {
	table := reftable.New()
	input := `{"version": 1, "expression": {"kind": "heads", "of": {"kind": "commits", "refs": ["@"]}}}`
	got, err := Decode(strings.NewReader(input), table)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Heads{Expr: CommitsOf(table.Insert(reftable.WorkingCopy))}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decode = %#v, want %#v", got, want)
	}
}
