// Package render prints any analyze.Tree as an indented, optionally colored
// explain plan.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/odvcencio/revplan/pkg/analyze"
)

// Options controls what Print annotates.
type Options struct {
	// Analyze adds cost markers and colors names by their context.
	Analyze bool
	// Color enables ANSI styling.
	Color bool
}

const indentWidth = 2

// Print writes the plan for tree evaluated in ctx to w.
func Print(w io.Writer, tree analyze.Tree, ctx analyze.Context, opts Options) error {
	_, err := io.WriteString(w, Sprint(tree, ctx, opts))
	return err
}

// Sprint returns the plan for tree evaluated in ctx.
func Sprint(tree analyze.Tree, ctx analyze.Context, opts Options) string {
	p := printer{analyze: opts.Analyze, styles: newStyles(opts.Color)}
	p.node(tree, ctx, 0)
	return p.b.String()
}

type printer struct {
	b       strings.Builder
	analyze bool
	styles  styles
}

func (p *printer) node(tree analyze.Tree, ctx analyze.Context, depth int) {
	entry := tree.Entry(ctx)
	if p.analyze && tree.Cost(ctx) == analyze.Slow {
		p.b.WriteString(p.styles.expensive("(EXPENSIVE)"))
		p.b.WriteByte(' ')
	}
	p.b.WriteString(p.styles.name(entry.Name, entry.Context, p.analyze, len(entry.Children) > 0))

	if len(entry.Children) == 0 {
		p.b.WriteByte('\n')
		return
	}

	start, end := brackets(entry.Children)
	p.b.WriteString(p.styles.dim(start))
	p.b.WriteByte('\n')
	for _, child := range entry.Children {
		p.indent(depth + 1)
		if child.Labeled() {
			p.b.WriteString(p.styles.dim(child.Label + ":"))
			p.b.WriteByte(' ')
		}
		p.node(child.Tree, child.Context, depth+1)
	}
	p.indent(depth)
	p.b.WriteString(p.styles.dim(end))
	p.b.WriteByte('\n')
}

func (p *printer) indent(depth int) {
	p.b.WriteString(strings.Repeat(" ", depth*indentWidth))
}

func brackets(children []analyze.Child) (string, string) {
	for _, c := range children {
		if c.Labeled() {
			return " {", "}"
		}
	}
	if len(children) == 1 {
		return "(", ")"
	}
	return " [", "]"
}

type styles struct {
	enabled    bool
	marker     lipgloss.Style
	eager      lipgloss.Style
	lazy       lipgloss.Style
	predicate  lipgloss.Style
	nonDefault lipgloss.Style
	plain      lipgloss.Style
	faint      lipgloss.Style
}

func newStyles(enabled bool) styles {
	if !enabled {
		return styles{}
	}
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return styles{
		enabled:    true,
		marker:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		eager:      r.NewStyle().Foreground(lipgloss.Color("12")),
		lazy:       r.NewStyle().Foreground(lipgloss.Color("14")),
		predicate:  r.NewStyle().Foreground(lipgloss.Color("13")),
		nonDefault: r.NewStyle().Foreground(lipgloss.Color("4")),
		plain:      r.NewStyle(),
		faint:      r.NewStyle().Faint(true),
	}
}

func (s styles) expensive(text string) string {
	if !s.enabled {
		return text
	}
	return s.marker.Render(text)
}

func (s styles) dim(text string) string {
	if !s.enabled {
		return text
	}
	return s.faint.Render(text)
}

func (s styles) name(text string, ctx analyze.Context, analyzing, hasChildren bool) string {
	if !s.enabled {
		return text
	}
	st := s.plain
	switch {
	case analyzing && ctx == analyze.Eager:
		st = s.eager
	case analyzing && ctx == analyze.Lazy:
		st = s.lazy
	case analyzing && ctx == analyze.Predicate:
		st = s.predicate
	case !analyzing && ctx != analyze.Resolved:
		st = s.nonDefault
	}
	if hasChildren {
		st = st.Bold(true)
	}
	return st.Render(text)
}
