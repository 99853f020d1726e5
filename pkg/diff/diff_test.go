package diff

import (
	"reflect"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []Edit
	}{
		{
			name: "replace middle line",
			a:    []string{"a", "b", "c"},
			b:    []string{"a", "x", "c"},
			want: []Edit{{Equal, "a"}, {Delete, "b"}, {Insert, "x"}, {Equal, "c"}},
		},
		{
			name: "both empty",
		},
		{
			name: "insert only",
			b:    []string{"a", "b"},
			want: []Edit{{Insert, "a"}, {Insert, "b"}},
		},
		{
			name: "delete only",
			a:    []string{"a", "b"},
			want: []Edit{{Delete, "a"}, {Delete, "b"}},
		},
		{
			name: "identical",
			a:    []string{"a", "b"},
			b:    []string{"a", "b"},
			want: []Edit{{Equal, "a"}, {Equal, "b"}},
		},
		{
			name: "append",
			a:    []string{"a"},
			b:    []string{"a", "b"},
			want: []Edit{{Equal, "a"}, {Insert, "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lines(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Lines() = %v, want %v", got, tt.want)
			}
		})
	}
}

// apply replays edits and returns both sides.
func apply(edits []Edit) (before, after []string) {
	for _, e := range edits {
		if e.Op != Insert {
			before = append(before, e.Line)
		}
		if e.Op != Delete {
			after = append(after, e.Line)
		}
	}
	return before, after
}

func TestLinesReproducesInputs(t *testing.T) {
	a := strings.Fields("Range { roots: main heads: @ } x y")
	b := strings.Fields("Difference { candidates: main excluded: @ } y z")
	edits := Lines(a, b)
	before, after := apply(edits)
	if !reflect.DeepEqual(before, a) || !reflect.DeepEqual(after, b) {
		t.Fatalf("edits replay to %q / %q, want %q / %q", before, after, a, b)
	}
	equal := 0
	for _, e := range edits {
		if e.Op == Equal {
			equal++
		}
	}
	// "{", "main", "@", "}" and "y" are a longest common subsequence.
	if equal != 5 {
		t.Fatalf("script keeps %d lines, want 5", equal)
	}
}

func TestPlansAndFormat(t *testing.T) {
	before := "Union [\n  a\n  b\n]\n"
	after := "Union [\n  a\n  c\n]\n"
	edits := Plans(before, after)
	if !Changed(edits) {
		t.Fatal("Changed() = false, want true")
	}
	want := "--- unoptimized\n+++ optimized\n Union [\n   a\n-  b\n+  c\n ]\n"
	if got := Format("unoptimized", "optimized", edits); got != want {
		t.Fatalf("Format() =\n%s\nwant\n%s", got, want)
	}

	if Changed(Plans(before, before)) {
		t.Fatal("Changed() = true for identical plans")
	}
}
