package revset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/odvcencio/revplan/pkg/pattern"
)

// stringExpr converts a string-pattern argument. Bare and quoted values use
// defaultKind; '|', '&', '~' combine patterns.
func (l *lowerer) stringExpr(n Node, defaultKind pattern.Kind) (pattern.StringExpr, error) {
	switch n := n.(type) {
	case *Identifier:
		return checkStringPattern(n, pattern.StringPattern{Kind: defaultKind, Text: n.Name})
	case *StringLiteral:
		return checkStringPattern(n, pattern.StringPattern{Kind: defaultKind, Text: n.Value})
	case *PatternNode:
		kind, ok := pattern.ParseKind(n.Kind)
		if !ok {
			return nil, errorf(n.Pos(), "invalid string pattern kind %q", n.Kind)
		}
		return checkStringPattern(n, pattern.StringPattern{Kind: kind, Text: n.Value})
	case *UnaryOp:
		if n.Op == Negate {
			inner, err := l.stringExpr(n.Operand, defaultKind)
			if err != nil {
				return nil, err
			}
			return pattern.StringNotIn{Expr: inner}, nil
		}
	case *BinaryOp:
		if n.Op != UnionOp && n.Op != IntersectionOp && n.Op != DifferenceOp {
			break
		}
		left, err := l.stringExpr(n.Left, defaultKind)
		if err != nil {
			return nil, err
		}
		right, err := l.stringExpr(n.Right, defaultKind)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case UnionOp:
			return pattern.StringUnion{Left: left, Right: right}, nil
		case IntersectionOp:
			return pattern.StringIntersection{Left: left, Right: right}, nil
		default:
			return pattern.StringIntersection{Left: left, Right: pattern.StringNotIn{Expr: right}}, nil
		}
	}
	return nil, errorf(n.Pos(), "expected a string pattern")
}

// optionalStringArg returns the match-all pattern when n is absent.
func (l *lowerer) optionalStringArg(n Node, defaultKind pattern.Kind) (pattern.StringExpr, error) {
	if n == nil {
		return pattern.StringPattern{Kind: pattern.Substring}, nil
	}
	return l.stringExpr(n, defaultKind)
}

func checkStringPattern(n Node, p pattern.StringPattern) (pattern.StringExpr, error) {
	switch {
	case p.Kind.IsGlob():
		if !doublestar.ValidatePattern(p.Text) {
			return nil, errorf(n.Pos(), "invalid glob pattern %q", p.Text)
		}
	case p.Kind == pattern.Regex || p.Kind == pattern.RegexI:
		if _, err := regexp.Compile(p.Text); err != nil {
			return nil, errorf(n.Pos(), "invalid regular expression %q: %v", p.Text, err)
		}
	}
	return p, nil
}

func (l *lowerer) dateArg(n Node) (pattern.DatePattern, error) {
	kind, text := "after", ""
	switch n := n.(type) {
	case *Identifier:
		text = n.Name
	case *StringLiteral:
		text = n.Value
	case *PatternNode:
		kind, text = n.Kind, n.Value
	default:
		return pattern.DatePattern{}, errorf(n.Pos(), "expected a date pattern")
	}
	t, err := parseDate(text, l.ctx.now())
	if err != nil {
		return pattern.DatePattern{}, errorf(n.Pos(), "%v", err)
	}
	switch kind {
	case "after":
		return pattern.AfterTime(t), nil
	case "before":
		return pattern.BeforeTime(t), nil
	}
	return pattern.DatePattern{}, errorf(n.Pos(), "invalid date pattern kind %q, expected after or before", kind)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var relativeUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// parseDate accepts absolute timestamps, now/today/yesterday, and
// "N units ago". Dates without a zone are read in now's location.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "now":
		return now, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	if fields := strings.Fields(s); len(fields) == 3 && strings.EqualFold(fields[2], "ago") {
		n, err := strconv.Atoi(fields[0])
		if err == nil && n >= 0 {
			unit := strings.TrimSuffix(strings.ToLower(fields[1]), "s")
			switch unit {
			case "month":
				return now.AddDate(0, -n, 0), nil
			case "year":
				return now.AddDate(-n, 0, 0), nil
			}
			if d, ok := relativeUnits[unit]; ok {
				return now.Add(-time.Duration(n) * d), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// fileset converts a file-set argument. Paths are relative to the current
// directory unless the pattern kind says otherwise.
func (l *lowerer) fileset(n Node) (pattern.FilesetExpr, error) {
	switch n := n.(type) {
	case *Identifier:
		return l.filePattern(n, "cwd", n.Name)
	case *StringLiteral:
		return l.filePattern(n, "cwd", n.Value)
	case *PatternNode:
		return l.filePattern(n, n.Kind, n.Value)
	case *FunctionCall:
		if _, err := expectArgs(n, nil, 0); err != nil {
			return nil, err
		}
		switch n.Name {
		case "all":
			return pattern.FilesetAll{}, nil
		case "none":
			return pattern.FilesetNone{}, nil
		}
		return nil, errorf(n.Pos(), "fileset function %q doesn't exist", n.Name)
	case *UnaryOp:
		if n.Op != Negate {
			break
		}
		inner, err := l.fileset(n.Operand)
		if err != nil {
			return nil, err
		}
		return pattern.FilesetDifference{Left: pattern.FilesetAll{}, Right: inner}, nil
	case *BinaryOp:
		switch n.Op {
		case UnionOp:
			var exprs []pattern.FilesetExpr
			for _, side := range []Node{n.Left, n.Right} {
				e, err := l.fileset(side)
				if err != nil {
					return nil, err
				}
				if u, ok := e.(pattern.FilesetUnion); ok {
					exprs = append(exprs, u.Exprs...)
				} else {
					exprs = append(exprs, e)
				}
			}
			return pattern.FilesetUnion{Exprs: exprs}, nil
		case IntersectionOp, DifferenceOp:
			left, err := l.fileset(n.Left)
			if err != nil {
				return nil, err
			}
			right, err := l.fileset(n.Right)
			if err != nil {
				return nil, err
			}
			if n.Op == IntersectionOp {
				return pattern.FilesetIntersection{Left: left, Right: right}, nil
			}
			return pattern.FilesetDifference{Left: left, Right: right}, nil
		}
	}
	return nil, errorf(n.Pos(), "expected a fileset expression")
}

func (l *lowerer) filePattern(n Node, kind, value string) (pattern.FilesetExpr, error) {
	base, rest, found := strings.Cut(kind, "-")
	rootRelative := false
	switch {
	case found && base == "root":
		rootRelative, kind = true, rest
	case found && base == "cwd":
		kind = rest
	}
	kind = strings.TrimSuffix(kind, "-i")

	switch kind {
	case "cwd", "root":
		p, err := l.ctx.Workspace.toRepoPath(value, kind == "root")
		if err != nil {
			return nil, errorf(n.Pos(), "%v", err)
		}
		return pattern.FilePattern{Kind: pattern.PrefixPath, Path: p}, nil
	case "file":
		p, err := l.ctx.Workspace.toRepoPath(value, rootRelative)
		if err != nil {
			return nil, errorf(n.Pos(), "%v", err)
		}
		return pattern.FilePattern{Kind: pattern.FilePath, Path: p}, nil
	case "glob", "prefix-glob":
		dir, glob := splitGlob(value)
		if !doublestar.ValidatePattern(glob) {
			return nil, errorf(n.Pos(), "invalid glob pattern %q", value)
		}
		d, err := l.ctx.Workspace.toRepoPath(dir, rootRelative)
		if err != nil {
			return nil, errorf(n.Pos(), "%v", err)
		}
		fk := pattern.FileGlob
		if kind == "prefix-glob" {
			fk = pattern.PrefixGlob
		}
		return pattern.FilePattern{Kind: fk, Dir: d, Glob: glob}, nil
	}
	return nil, errorf(n.Pos(), "invalid file pattern kind %q", kind)
}

// splitGlob separates the literal directory prefix of a glob from the part
// containing metacharacters.
func splitGlob(s string) (dir, glob string) {
	meta := strings.IndexAny(s, `*?[{\`)
	if meta < 0 {
		meta = len(s)
	}
	slash := strings.LastIndexByte(s[:meta], '/')
	if slash < 0 {
		return "", s
	}
	return s[:slash], s[slash+1:]
}

// Workspace locates the working directory inside the workspace so that file
// arguments can be rewritten as workspace-relative paths.
type Workspace struct {
	Root string
	Cwd  string
}

func (w Workspace) toRepoPath(p string, rootRelative bool) (string, error) {
	var abs string
	switch {
	case rootRelative:
		abs = filepath.Join(w.Root, filepath.FromSlash(p))
	case filepath.IsAbs(p):
		abs = filepath.Clean(p)
	default:
		abs = filepath.Join(w.Cwd, filepath.FromSlash(p))
	}
	rel, err := filepath.Rel(w.Root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is not in the workspace", p)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
