package revset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

// call lowers a built-in function. Aliases have already been expanded, so
// any name left over that is not built in is an error.
func (l *lowerer) call(c *FunctionCall) (Expression, error) {
	switch c.Name {
	case "none", "all", "root", "visible_heads", "merges", "conflicts", "signed",
		"empty", "mine", "divergent", "git_refs", "git_head", "working_copies":
		if _, err := expectArgs(c, nil, 0); err != nil {
			return nil, err
		}
		return l.nullary(c.Name), nil

	case "heads", "roots", "fork_point", "bisect", "present", "connected":
		args, err := expectArgs(c, []string{"x"}, 1)
		if err != nil {
			return nil, err
		}
		x, err := l.expr(args[0])
		if err != nil {
			return nil, err
		}
		switch c.Name {
		case "heads":
			return Heads{Expr: x}, nil
		case "roots":
			return Roots{Expr: x}, nil
		case "fork_point":
			return ForkPoint{Expr: x}, nil
		case "bisect":
			return Bisect{Expr: x}, nil
		case "present":
			return Present{Expr: x}, nil
		default:
			return DagRange{Roots: x, Heads: x}, nil
		}

	case "parents", "children", "first_parent":
		args, err := expectArgs(c, []string{"x", "depth"}, 1)
		if err != nil {
			return nil, err
		}
		x, err := l.expr(args[0])
		if err != nil {
			return nil, err
		}
		depth := uint64(1)
		if args[1] != nil {
			if depth, err = integerArg(c, args[1]); err != nil {
				return nil, err
			}
		}
		switch c.Name {
		case "parents":
			return parentsAt(x, depth), nil
		case "children":
			return childrenAt(x, depth), nil
		default:
			return Ancestors{Heads: x, Generation: generationAt(depth), ParentsRange: firstParentRange}, nil
		}

	case "ancestors", "descendants", "first_ancestors":
		args, err := expectArgs(c, []string{"x", "depth"}, 1)
		if err != nil {
			return nil, err
		}
		x, err := l.expr(args[0])
		if err != nil {
			return nil, err
		}
		generation := resolved.GenerationFull
		if args[1] != nil {
			depth, err := integerArg(c, args[1])
			if err != nil {
				return nil, err
			}
			generation = generationUpTo(depth)
		}
		switch c.Name {
		case "ancestors":
			return Ancestors{Heads: x, Generation: generation, ParentsRange: resolved.ParentsFull}, nil
		case "descendants":
			return Descendants{Roots: x, Generation: generation}, nil
		default:
			return Ancestors{Heads: x, Generation: generation, ParentsRange: firstParentRange}, nil
		}

	case "reachable":
		args, err := expectArgs(c, []string{"srcs", "domain"}, 2)
		if err != nil {
			return nil, err
		}
		sources, err := l.expr(args[0])
		if err != nil {
			return nil, err
		}
		domain, err := l.expr(args[1])
		if err != nil {
			return nil, err
		}
		return Reachable{Sources: sources, Domain: domain}, nil

	case "exactly", "latest":
		required := 2
		if c.Name == "latest" {
			required = 1
		}
		args, err := expectArgs(c, []string{"x", "count"}, required)
		if err != nil {
			return nil, err
		}
		x, err := l.expr(args[0])
		if err != nil {
			return nil, err
		}
		count := 1
		if args[1] != nil {
			if count, err = countArg(c, args[1]); err != nil {
				return nil, err
			}
		}
		if c.Name == "exactly" {
			return HasSize{Candidates: x, Count: count}, nil
		}
		return Latest{Candidates: x, Count: count}, nil

	case "coalesce":
		if len(c.Keywords) > 0 {
			return nil, errorf(c.Keywords[0].Value.Pos(), "function %q: unexpected keyword argument %q", c.Name, c.Keywords[0].Name)
		}
		var out Expression = None{}
		for i, arg := range c.Args {
			x, err := l.expr(arg)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				out = x
				continue
			}
			out = Coalesce{Left: out, Right: x}
		}
		return out, nil

	case "at_operation":
		args, err := expectArgs(c, []string{"op", "x"}, 2)
		if err != nil {
			return nil, err
		}
		op, err := operationText(args[0])
		if err != nil {
			return nil, err
		}
		x, err := l.expr(args[1])
		if err != nil {
			return nil, err
		}
		return AtOperation{Operation: op, Candidates: x}, nil

	case "change_id", "commit_id":
		args, err := expectArgs(c, []string{"prefix"}, 1)
		if err != nil {
			return nil, err
		}
		prefix, err := symbolText(args[0])
		if err != nil {
			return nil, err
		}
		digits := "0123456789abcdef"
		if c.Name == "change_id" {
			digits = "klmnopqrstuvwxyz"
		}
		if prefix == "" || strings.Trim(prefix, digits) != "" {
			return nil, errorf(args[0].Pos(), "invalid %s prefix %q", strings.ReplaceAll(c.Name, "_", " "), prefix)
		}
		return CommitRef{Name: reftable.Reference(fmt.Sprintf("%s(%s)", c.Name, prefix))}, nil

	case "bookmarks", "tags":
		args, err := expectArgs(c, []string{"pattern"}, 0)
		if err != nil {
			return nil, err
		}
		p, err := l.optionalStringArg(args[0], pattern.Glob)
		if err != nil {
			return nil, err
		}
		if pattern.IsMatchAll(p) {
			return CommitRef{Name: reftable.Reference(c.Name + "()")}, nil
		}
		return CommitRef{Name: reftable.Reference(c.Name + "(" + pattern.FormatString(p) + ")")}, nil

	case "remote_bookmarks", "tracked_remote_bookmarks", "untracked_remote_bookmarks":
		args, err := expectArgs(c, []string{"bookmark", "remote"}, 0)
		if err != nil {
			return nil, err
		}
		bookmark, err := l.optionalStringArg(args[0], pattern.Glob)
		if err != nil {
			return nil, err
		}
		remote, err := l.optionalStringArg(args[1], pattern.Glob)
		if err != nil {
			return nil, err
		}
		if pattern.IsMatchAll(bookmark) && pattern.IsMatchAll(remote) {
			return CommitRef{Name: reftable.Reference(c.Name + "()")}, nil
		}
		return CommitRef{Name: reftable.Reference(fmt.Sprintf("%s(%s, remote=%s)",
			c.Name, pattern.FormatString(bookmark), pattern.FormatString(remote)))}, nil

	case "description", "subject", "author_name", "author_email", "committer_name", "committer_email":
		args, err := expectArgs(c, []string{"pattern"}, 1)
		if err != nil {
			return nil, err
		}
		p, err := l.stringExpr(args[0], pattern.Substring)
		if err != nil {
			return nil, err
		}
		field, _ := resolved.ParseStringField(c.Name)
		return Filter{Predicate: resolved.StringFilter{Field: field, Pattern: p}}, nil

	case "author", "committer":
		args, err := expectArgs(c, []string{"pattern"}, 1)
		if err != nil {
			return nil, err
		}
		p, err := l.stringExpr(args[0], pattern.Substring)
		if err != nil {
			return nil, err
		}
		name, email := resolved.AuthorName, resolved.AuthorEmail
		if c.Name == "committer" {
			name, email = resolved.CommitterName, resolved.CommitterEmail
		}
		return Union{
			Left:  Filter{Predicate: resolved.StringFilter{Field: name, Pattern: p}},
			Right: Filter{Predicate: resolved.StringFilter{Field: email, Pattern: p}},
		}, nil

	case "author_date", "committer_date":
		args, err := expectArgs(c, []string{"pattern"}, 1)
		if err != nil {
			return nil, err
		}
		date, err := l.dateArg(args[0])
		if err != nil {
			return nil, err
		}
		field := resolved.AuthorDate
		if c.Name == "committer_date" {
			field = resolved.CommitterDate
		}
		return Filter{Predicate: resolved.DateFilter{Field: field, Date: date}}, nil

	case "files":
		args, err := expectArgs(c, []string{"fileset"}, 1)
		if err != nil {
			return nil, err
		}
		files, err := l.fileset(args[0])
		if err != nil {
			return nil, err
		}
		return Filter{Predicate: resolved.File{Files: files}}, nil

	case "diff_lines":
		args, err := expectArgs(c, []string{"text", "files"}, 1)
		if err != nil {
			return nil, err
		}
		text, err := l.stringExpr(args[0], pattern.Substring)
		if err != nil {
			return nil, err
		}
		var files pattern.FilesetExpr = pattern.FilesetAll{}
		if args[1] != nil {
			if files, err = l.fileset(args[1]); err != nil {
				return nil, err
			}
		}
		return Filter{Predicate: resolved.DiffLines{Text: text, Files: files}}, nil
	}
	return nil, errorf(c.Pos(), "function %q doesn't exist", c.Name)
}

func (l *lowerer) nullary(name string) Expression {
	switch name {
	case "none":
		return None{}
	case "all":
		return All{}
	case "root":
		return Root{}
	case "visible_heads":
		return VisibleHeads{}
	case "merges":
		return Filter{Predicate: resolved.ParentCount{Range: resolved.MergeParents}}
	case "conflicts":
		return Filter{Predicate: resolved.HasConflict{}}
	case "signed":
		return Filter{Predicate: resolved.Signed{}}
	case "empty":
		return NotIn{Expr: Filter{Predicate: resolved.File{Files: pattern.FilesetAll{}}}}
	case "mine":
		return Filter{Predicate: resolved.StringFilter{
			Field:   resolved.AuthorEmail,
			Pattern: pattern.StringPattern{Kind: pattern.ExactI, Text: l.ctx.UserEmail},
		}}
	case "divergent":
		return Divergent{}
	default:
		return CommitRef{Name: reftable.Reference(name + "()")}
	}
}

// expectArgs matches positional and keyword arguments against names and
// returns one slot per name, nil where an optional argument is absent.
func expectArgs(c *FunctionCall, names []string, required int) ([]Node, error) {
	if len(c.Args) > len(names) || len(c.Args)+len(c.Keywords) < required {
		return nil, errorf(c.Pos(), "function %q: expected %s", c.Name, arityText(required, len(names)))
	}
	out := make([]Node, len(names))
	copy(out, c.Args)
	for _, kw := range c.Keywords {
		i := slices.Index(names, kw.Name)
		if i < 0 {
			return nil, errorf(kw.Value.Pos(), "function %q: unexpected keyword argument %q", c.Name, kw.Name)
		}
		if out[i] != nil {
			return nil, errorf(kw.Value.Pos(), "function %q: got multiple values for argument %q", c.Name, kw.Name)
		}
		out[i] = kw.Value
	}
	for i := 0; i < required; i++ {
		if out[i] == nil {
			return nil, errorf(c.Pos(), "function %q: missing argument %q", c.Name, names[i])
		}
	}
	return out, nil
}

func arityText(required, total int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}
		return strconv.Itoa(n) + " arguments"
	}
	switch {
	case total == 0:
		return "0 arguments"
	case required == total:
		return "exactly " + plural(total)
	case required == 0:
		return "at most " + plural(total)
	default:
		return fmt.Sprintf("%d to %s", required, plural(total))
	}
}

func integerArg(c *FunctionCall, n Node) (uint64, error) {
	if id, ok := n.(*Identifier); ok {
		if v, err := strconv.ParseUint(id.Name, 10, 64); err == nil {
			return v, nil
		}
	}
	return 0, errorf(n.Pos(), "function %q: expected a non-negative integer", c.Name)
}

func countArg(c *FunctionCall, n Node) (int, error) {
	if id, ok := n.(*Identifier); ok {
		if v, err := strconv.ParseUint(id.Name, 10, 31); err == nil {
			return int(v), nil
		}
	}
	return 0, errorf(n.Pos(), "function %q: expected a non-negative integer", c.Name)
}

// symbolText returns the text of a bare or quoted symbol.
func symbolText(n Node) (string, error) {
	switch n := n.(type) {
	case *Identifier:
		return n.Name, nil
	case *StringLiteral:
		return n.Value, nil
	}
	return "", errorf(n.Pos(), "expected a symbol")
}

// operationText accepts an operation id or an operation expression such as
// "@-" and returns it as written.
func operationText(n Node) (string, error) {
	switch n := n.(type) {
	case *WorkingCopyNode:
		if n.Workspace == "" {
			return "@", nil
		}
	case *UnaryOp:
		inner, err := operationText(n.Operand)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case ParentsOp:
			return inner + "-", nil
		case ChildrenOp:
			return inner + "+", nil
		}
	default:
		if s, err := symbolText(n); err == nil {
			return s, nil
		}
	}
	return "", errorf(n.Pos(), "expected an operation")
}
