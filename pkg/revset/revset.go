// Package revset is the front end of the explain pipeline: it parses revset
// text, expands aliases, lowers function calls, resolves symbols into a
// reftable.Table, optionally optimizes, and produces the resolved tree that
// the plan package imports.
package revset

import (
	"time"

	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// ParseContext carries everything parsing depends on besides the text.
type ParseContext struct {
	Aliases   *AliasMap
	UserEmail string
	// Now anchors relative dates. The zero value means the current time.
	Now       time.Time
	Workspace Workspace
}

func (c *ParseContext) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Parse parses text, expands aliases and lowers function calls.
func Parse(text string, ctx *ParseContext) (Expression, error) {
	if ctx == nil {
		ctx = &ParseContext{}
	}
	tree, err := ParseSyntax(text)
	if err != nil {
		return nil, err
	}
	if ctx.Aliases != nil {
		if tree, err = ctx.Aliases.Expand(tree); err != nil {
			return nil, err
		}
	}
	l := &lowerer{ctx: ctx}
	return l.expr(tree)
}

// Compile runs the whole front end and returns the resolved tree. Every
// commit id in the result is issued by table.
func Compile(text string, ctx *ParseContext, table *reftable.Table, optimize bool) (resolved.Expression, error) {
	expr, err := Parse(text, ctx)
	if err != nil {
		return nil, err
	}
	expr = Resolve(expr, table)
	if optimize {
		expr = Optimize(expr)
	}
	return Lower(expr, table), nil
}
