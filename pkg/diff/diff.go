// Package diff compares two rendered plans line by line, so the effect of a
// rewrite such as the optimizer can be shown as an edit script.
package diff

import (
	"slices"
	"strings"
)

// Op classifies one line of an edit script.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

// prefix is the marker each Op gets in formatted output.
func (op Op) prefix() byte {
	switch op {
	case Delete:
		return '-'
	case Insert:
		return '+'
	default:
		return ' '
	}
}

// Edit is one line of an edit script.
type Edit struct {
	Op   Op
	Line string
}

// Lines returns a shortest edit script turning a into b. Where several
// scripts are equally short, deletions come before insertions.
func Lines(a, b []string) []Edit {
	n, m := len(a), len(b)
	offset := n + m
	// frontier[offset+k] is the furthest x reached on diagonal k = x - y.
	frontier := make([]int, 2*offset+2)
	var trace [][]int

	for d := 0; d <= offset; d++ {
		trace = append(trace, slices.Clone(frontier))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && frontier[offset+k-1] < frontier[offset+k+1]) {
				x = frontier[offset+k+1]
			} else {
				x = frontier[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			frontier[offset+k] = x
			if x >= n && y >= m {
				return backtrack(a, b, trace, offset)
			}
		}
	}
	return nil
}

// backtrack walks trace from the end of both inputs back to the origin.
// trace[d] is the frontier as it stood before step d.
func backtrack(a, b []string, trace [][]int, offset int) []Edit {
	x, y := len(a), len(b)
	var edits []Edit
	for d := len(trace) - 1; d > 0; d-- {
		frontier := trace[d]
		k := x - y
		prevK := k - 1
		if k == -d || (k != d && frontier[offset+k-1] < frontier[offset+k+1]) {
			prevK = k + 1
		}
		prevX := frontier[offset+prevK]
		prevY := prevX - prevK
		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, Edit{Op: Equal, Line: a[x]})
		}
		if x == prevX {
			y--
			edits = append(edits, Edit{Op: Insert, Line: b[y]})
		} else {
			x--
			edits = append(edits, Edit{Op: Delete, Line: a[x]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		edits = append(edits, Edit{Op: Equal, Line: a[x]})
	}
	slices.Reverse(edits)
	return edits
}

// splitLines splits rendered text into lines. A trailing newline does not
// produce an empty last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Plans diffs two rendered plans.
func Plans(before, after string) []Edit {
	return Lines(splitLines(before), splitLines(after))
}

// Changed reports whether edits contains anything but Equal lines.
func Changed(edits []Edit) bool {
	for _, e := range edits {
		if e.Op != Equal {
			return true
		}
	}
	return false
}

// Format prints edits under a "--- beforeName" / "+++ afterName" header,
// one line per edit.
func Format(beforeName, afterName string, edits []Edit) string {
	var b strings.Builder
	b.WriteString("--- " + beforeName + "\n")
	b.WriteString("+++ " + afterName + "\n")
	for _, e := range edits {
		b.WriteByte(e.Op.prefix())
		b.WriteString(e.Line)
		b.WriteByte('\n')
	}
	return b.String()
}
