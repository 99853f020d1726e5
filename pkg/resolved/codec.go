package resolved

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
)

// DumpVersion is the only dump format version this package reads and writes.
const DumpVersion = 1

// A dump stores commit ids as the reference text they stand for, so a dump
// can be read back into a fresh table in another process.
type dump struct {
	Version    int   `yaml:"version"`
	Expression *node `yaml:"expression"`
}

type node struct {
	Kind                string    `yaml:"kind"`
	Refs                []string  `yaml:"refs,omitempty,flow"`
	Roots               *node     `yaml:"roots,omitempty"`
	Heads               *node     `yaml:"heads,omitempty"`
	Sources             *node     `yaml:"sources,omitempty"`
	Domain              *node     `yaml:"domain,omitempty"`
	Candidates          *node     `yaml:"candidates,omitempty"`
	Of                  *node     `yaml:"of,omitempty"`
	Left                *node     `yaml:"left,omitempty"`
	Right               *node     `yaml:"right,omitempty"`
	Generation          []uint64  `yaml:"generation,omitempty,flow"`
	GenerationFromRoots []uint64  `yaml:"generation_from_roots,omitempty,flow"`
	ParentsRange        []uint32  `yaml:"parents_range,omitempty,flow"`
	Count               *int      `yaml:"count,omitempty"`
	Filter              *predNode `yaml:"filter,omitempty"`
	Predicate           *predNode `yaml:"predicate,omitempty"`
}

type predNode struct {
	Kind   string      `yaml:"kind"`
	Filter *filterNode `yaml:"filter,omitempty"`
	Refs   []string    `yaml:"refs,omitempty,flow"`
	Set    *node       `yaml:"set,omitempty"`
	Of     *predNode   `yaml:"of,omitempty"`
	Left   *predNode   `yaml:"left,omitempty"`
	Right  *predNode   `yaml:"right,omitempty"`
}

type filterNode struct {
	Kind    string       `yaml:"kind"`
	Range   []uint32     `yaml:"range,omitempty,flow"`
	Pattern *stringNode  `yaml:"pattern,omitempty"`
	Date    *dateNode    `yaml:"date,omitempty"`
	Files   *filesetNode `yaml:"files,omitempty"`
	Name    string       `yaml:"name,omitempty"`
}

type stringNode struct {
	Kind  string      `yaml:"kind"`
	Text  string      `yaml:"text,omitempty"`
	Of    *stringNode `yaml:"of,omitempty"`
	Left  *stringNode `yaml:"left,omitempty"`
	Right *stringNode `yaml:"right,omitempty"`
}

type dateNode struct {
	Kind string `yaml:"kind"`
	At   string `yaml:"at"`
}

type filesetNode struct {
	Kind  string         `yaml:"kind"`
	Path  string         `yaml:"path,omitempty"`
	Dir   string         `yaml:"dir,omitempty"`
	Glob  string         `yaml:"glob,omitempty"`
	Exprs []*filesetNode `yaml:"exprs,omitempty"`
	Left  *filesetNode   `yaml:"left,omitempty"`
	Right *filesetNode   `yaml:"right,omitempty"`
}

// Encode writes expr as a YAML dump. Every commit id in expr must have been
// issued by table.
func Encode(w io.Writer, expr Expression, table *reftable.Table) error {
	e := encoder{table: table}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump{Version: DumpVersion, Expression: e.expr(expr)}); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode dump: close: %w", err)
	}
	return nil
}

// Decode reads a YAML (or JSON) dump, interning its references into table.
func Decode(r io.Reader, table *reftable.Table) (Expression, error) {
	var d dump
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode dump: empty input")
		}
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	if d.Version != DumpVersion {
		return nil, fmt.Errorf("decode dump: unsupported version %d (want %d)", d.Version, DumpVersion)
	}
	dc := decoder{table: table}
	expr, err := dc.expr(d.Expression, "expression")
	if err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	return expr, nil
}

type encoder struct {
	table *reftable.Table
}

func (e encoder) refs(ids []reftable.CommitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = e.table.Get(id).String()
	}
	return out
}

func encodeRange[T pattern.Unsigned](r, full pattern.Range[T]) []T {
	if r == full {
		return nil
	}
	return []T{r.Start, r.End}
}

func (e encoder) expr(expr Expression) *node {
	switch x := expr.(type) {
	case Commits:
		return &node{Kind: "commits", Refs: e.refs(x.IDs)}
	case Ancestors:
		return &node{
			Kind:         "ancestors",
			Heads:        e.expr(x.Heads),
			Generation:   encodeRange(x.Generation, GenerationFull),
			ParentsRange: encodeRange(x.ParentsRange, ParentsFull),
		}
	case Range:
		return &node{
			Kind:         "range",
			Roots:        e.expr(x.Roots),
			Heads:        e.expr(x.Heads),
			Generation:   encodeRange(x.Generation, GenerationFull),
			ParentsRange: encodeRange(x.ParentsRange, ParentsFull),
		}
	case DagRange:
		return &node{
			Kind:                "dag_range",
			Roots:               e.expr(x.Roots),
			Heads:               e.expr(x.Heads),
			GenerationFromRoots: encodeRange(x.GenerationFromRoots, GenerationFull),
		}
	case Reachable:
		return &node{Kind: "reachable", Sources: e.expr(x.Sources), Domain: e.expr(x.Domain)}
	case Heads:
		return &node{Kind: "heads", Of: e.expr(x.Expr)}
	case HeadsRange:
		n := &node{
			Kind:         "heads_range",
			Roots:        e.expr(x.Roots),
			Heads:        e.expr(x.Heads),
			ParentsRange: encodeRange(x.ParentsRange, ParentsFull),
		}
		if x.Filter != nil {
			n.Filter = e.pred(x.Filter)
		}
		return n
	case Roots:
		return &node{Kind: "roots", Of: e.expr(x.Expr)}
	case ForkPoint:
		return &node{Kind: "fork_point", Of: e.expr(x.Expr)}
	case Bisect:
		return &node{Kind: "bisect", Of: e.expr(x.Expr)}
	case HasSize:
		count := x.Count
		return &node{Kind: "has_size", Candidates: e.expr(x.Candidates), Count: &count}
	case Latest:
		count := x.Count
		return &node{Kind: "latest", Candidates: e.expr(x.Candidates), Count: &count}
	case Coalesce:
		return &node{Kind: "coalesce", Left: e.expr(x.Left), Right: e.expr(x.Right)}
	case Union:
		return &node{Kind: "union", Left: e.expr(x.Left), Right: e.expr(x.Right)}
	case FilterWithin:
		return &node{Kind: "filter_within", Candidates: e.expr(x.Candidates), Predicate: e.pred(x.Predicate)}
	case Intersection:
		return &node{Kind: "intersection", Left: e.expr(x.Left), Right: e.expr(x.Right)}
	case Difference:
		return &node{Kind: "difference", Left: e.expr(x.Left), Right: e.expr(x.Right)}
	default:
		panic(fmt.Sprintf("resolved: unknown expression %T", expr))
	}
}

func (e encoder) pred(p Predicate) *predNode {
	switch x := p.(type) {
	case Filter:
		return &predNode{Kind: "filter", Filter: encodeFilter(x.Filter)}
	case Divergent:
		return &predNode{Kind: "divergent", Refs: e.refs(x.VisibleHeads)}
	case Set:
		return &predNode{Kind: "set", Set: e.expr(x.Expr)}
	case NotIn:
		return &predNode{Kind: "not_in", Of: e.pred(x.Predicate)}
	case PredicateUnion:
		return &predNode{Kind: "union", Left: e.pred(x.Left), Right: e.pred(x.Right)}
	case PredicateIntersection:
		return &predNode{Kind: "intersection", Left: e.pred(x.Left), Right: e.pred(x.Right)}
	default:
		panic(fmt.Sprintf("resolved: unknown predicate %T", p))
	}
}

func encodeFilter(f FilterPredicate) *filterNode {
	switch x := f.(type) {
	case ParentCount:
		return &filterNode{Kind: "parent_count", Range: []uint32{x.Range.Start, x.Range.End}}
	case StringFilter:
		return &filterNode{Kind: x.Field.String(), Pattern: encodeString(x.Pattern)}
	case DateFilter:
		kind := "after"
		if x.Date.Kind == pattern.Before {
			kind = "before"
		}
		return &filterNode{
			Kind: x.Field.String(),
			Date: &dateNode{Kind: kind, At: x.Date.Time().Format(time.RFC3339Nano)},
		}
	case File:
		return &filterNode{Kind: "files", Files: encodeFileset(x.Files)}
	case DiffLines:
		return &filterNode{Kind: "diff_lines", Pattern: encodeString(x.Text), Files: encodeFileset(x.Files)}
	case HasConflict:
		return &filterNode{Kind: "conflicts"}
	case Signed:
		return &filterNode{Kind: "signed"}
	case Extension:
		return &filterNode{Kind: "extension", Name: x.Name}
	default:
		panic(fmt.Sprintf("resolved: unknown filter %T", f))
	}
}

func encodeString(s pattern.StringExpr) *stringNode {
	switch x := s.(type) {
	case pattern.StringPattern:
		return &stringNode{Kind: x.Kind.String(), Text: x.Text}
	case pattern.StringNotIn:
		return &stringNode{Kind: "not_in", Of: encodeString(x.Expr)}
	case pattern.StringUnion:
		return &stringNode{Kind: "union", Left: encodeString(x.Left), Right: encodeString(x.Right)}
	case pattern.StringIntersection:
		return &stringNode{Kind: "intersection", Left: encodeString(x.Left), Right: encodeString(x.Right)}
	default:
		panic(fmt.Sprintf("resolved: unknown string expression %T", s))
	}
}

func encodeFileset(f pattern.FilesetExpr) *filesetNode {
	switch x := f.(type) {
	case pattern.FilesetNone:
		return &filesetNode{Kind: "none"}
	case pattern.FilesetAll:
		return &filesetNode{Kind: "all"}
	case pattern.FilePattern:
		switch x.Kind {
		case pattern.FilePath:
			return &filesetNode{Kind: "file", Path: x.Path}
		case pattern.PrefixPath:
			return &filesetNode{Kind: "prefix", Path: x.Path}
		case pattern.FileGlob:
			return &filesetNode{Kind: "glob", Dir: x.Dir, Glob: x.Glob}
		default:
			return &filesetNode{Kind: "prefix_glob", Dir: x.Dir, Glob: x.Glob}
		}
	case pattern.FilesetUnion:
		n := &filesetNode{Kind: "union"}
		for _, sub := range x.Exprs {
			n.Exprs = append(n.Exprs, encodeFileset(sub))
		}
		return n
	case pattern.FilesetIntersection:
		return &filesetNode{Kind: "intersection", Left: encodeFileset(x.Left), Right: encodeFileset(x.Right)}
	case pattern.FilesetDifference:
		return &filesetNode{Kind: "difference", Left: encodeFileset(x.Left), Right: encodeFileset(x.Right)}
	default:
		panic(fmt.Sprintf("resolved: unknown fileset expression %T", f))
	}
}

type decoder struct {
	table *reftable.Table
}

func (d decoder) refs(refs []string) []reftable.CommitID {
	ids := make([]reftable.CommitID, len(refs))
	for i, ref := range refs {
		ids[i] = d.table.Insert(reftable.Reference(ref))
	}
	return ids
}

func decodeRange[T pattern.Unsigned](v []T, full pattern.Range[T], path string) (pattern.Range[T], error) {
	if v == nil {
		return full, nil
	}
	if len(v) != 2 {
		return pattern.Range[T]{}, fmt.Errorf("%s: want [start, end], got %d values", path, len(v))
	}
	return pattern.NewRange(v[0], v[1]), nil
}

func (d decoder) expr(n *node, path string) (Expression, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing expression", path)
	}
	switch n.Kind {
	case "commits":
		return Commits{IDs: d.refs(n.Refs)}, nil
	case "ancestors":
		heads, err := d.expr(n.Heads, path+".heads")
		if err != nil {
			return nil, err
		}
		gen, err := decodeRange(n.Generation, GenerationFull, path+".generation")
		if err != nil {
			return nil, err
		}
		parents, err := decodeRange(n.ParentsRange, ParentsFull, path+".parents_range")
		if err != nil {
			return nil, err
		}
		return Ancestors{Heads: heads, Generation: gen, ParentsRange: parents}, nil
	case "range":
		roots, heads, err := d.pair(n.Roots, n.Heads, path, "roots", "heads")
		if err != nil {
			return nil, err
		}
		gen, err := decodeRange(n.Generation, GenerationFull, path+".generation")
		if err != nil {
			return nil, err
		}
		parents, err := decodeRange(n.ParentsRange, ParentsFull, path+".parents_range")
		if err != nil {
			return nil, err
		}
		return Range{Roots: roots, Heads: heads, Generation: gen, ParentsRange: parents}, nil
	case "dag_range":
		roots, heads, err := d.pair(n.Roots, n.Heads, path, "roots", "heads")
		if err != nil {
			return nil, err
		}
		gen, err := decodeRange(n.GenerationFromRoots, GenerationFull, path+".generation_from_roots")
		if err != nil {
			return nil, err
		}
		return DagRange{Roots: roots, Heads: heads, GenerationFromRoots: gen}, nil
	case "reachable":
		sources, domain, err := d.pair(n.Sources, n.Domain, path, "sources", "domain")
		if err != nil {
			return nil, err
		}
		return Reachable{Sources: sources, Domain: domain}, nil
	case "heads", "roots", "fork_point", "bisect":
		of, err := d.expr(n.Of, path+".of")
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case "heads":
			return Heads{Expr: of}, nil
		case "roots":
			return Roots{Expr: of}, nil
		case "fork_point":
			return ForkPoint{Expr: of}, nil
		default:
			return Bisect{Expr: of}, nil
		}
	case "heads_range":
		roots, heads, err := d.pair(n.Roots, n.Heads, path, "roots", "heads")
		if err != nil {
			return nil, err
		}
		parents, err := decodeRange(n.ParentsRange, ParentsFull, path+".parents_range")
		if err != nil {
			return nil, err
		}
		hr := HeadsRange{Roots: roots, Heads: heads, ParentsRange: parents}
		if n.Filter != nil {
			if hr.Filter, err = d.pred(n.Filter, path+".filter"); err != nil {
				return nil, err
			}
		}
		return hr, nil
	case "has_size", "latest":
		candidates, err := d.expr(n.Candidates, path+".candidates")
		if err != nil {
			return nil, err
		}
		if n.Count == nil {
			return nil, fmt.Errorf("%s: missing count", path)
		}
		if *n.Count < 0 {
			return nil, fmt.Errorf("%s: negative count %d", path, *n.Count)
		}
		if n.Kind == "has_size" {
			return HasSize{Candidates: candidates, Count: *n.Count}, nil
		}
		return Latest{Candidates: candidates, Count: *n.Count}, nil
	case "coalesce", "union", "intersection", "difference":
		left, right, err := d.pair(n.Left, n.Right, path, "left", "right")
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case "coalesce":
			return Coalesce{Left: left, Right: right}, nil
		case "union":
			return Union{Left: left, Right: right}, nil
		case "intersection":
			return Intersection{Left: left, Right: right}, nil
		default:
			return Difference{Left: left, Right: right}, nil
		}
	case "filter_within":
		candidates, err := d.expr(n.Candidates, path+".candidates")
		if err != nil {
			return nil, err
		}
		if n.Predicate == nil {
			return nil, fmt.Errorf("%s: missing predicate", path)
		}
		pred, err := d.pred(n.Predicate, path+".predicate")
		if err != nil {
			return nil, err
		}
		return FilterWithin{Candidates: candidates, Predicate: pred}, nil
	case "":
		return nil, fmt.Errorf("%s: missing kind", path)
	default:
		return nil, fmt.Errorf("%s: unknown expression kind %q", path, n.Kind)
	}
}

func (d decoder) pair(a, b *node, path, aName, bName string) (Expression, Expression, error) {
	first, err := d.expr(a, path+"."+aName)
	if err != nil {
		return nil, nil, err
	}
	second, err := d.expr(b, path+"."+bName)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (d decoder) pred(n *predNode, path string) (Predicate, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing predicate", path)
	}
	switch n.Kind {
	case "filter":
		f, err := decodeFilter(n.Filter, path+".filter")
		if err != nil {
			return nil, err
		}
		return Filter{Filter: f}, nil
	case "divergent":
		return Divergent{VisibleHeads: d.refs(n.Refs)}, nil
	case "set":
		expr, err := d.expr(n.Set, path+".set")
		if err != nil {
			return nil, err
		}
		return Set{Expr: expr}, nil
	case "not_in":
		inner, err := d.pred(n.Of, path+".of")
		if err != nil {
			return nil, err
		}
		return NotIn{Predicate: inner}, nil
	case "union", "intersection":
		left, err := d.pred(n.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := d.pred(n.Right, path+".right")
		if err != nil {
			return nil, err
		}
		if n.Kind == "union" {
			return PredicateUnion{Left: left, Right: right}, nil
		}
		return PredicateIntersection{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("%s: unknown predicate kind %q", path, n.Kind)
	}
}

func decodeFilter(n *filterNode, path string) (FilterPredicate, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing filter", path)
	}
	if field, ok := ParseStringField(n.Kind); ok {
		s, err := decodeString(n.Pattern, path+".pattern")
		if err != nil {
			return nil, err
		}
		return StringFilter{Field: field, Pattern: s}, nil
	}
	switch n.Kind {
	case "parent_count":
		r, err := decodeRange(n.Range, ParentsFull, path+".range")
		if err != nil {
			return nil, err
		}
		return ParentCount{Range: r}, nil
	case "author_date", "committer_date":
		if n.Date == nil {
			return nil, fmt.Errorf("%s: missing date", path)
		}
		at, err := time.Parse(time.RFC3339Nano, n.Date.At)
		if err != nil {
			return nil, fmt.Errorf("%s.date: %w", path, err)
		}
		var date pattern.DatePattern
		switch n.Date.Kind {
		case "after":
			date = pattern.AfterTime(at)
		case "before":
			date = pattern.BeforeTime(at)
		default:
			return nil, fmt.Errorf("%s.date: unknown kind %q", path, n.Date.Kind)
		}
		field := AuthorDate
		if n.Kind == "committer_date" {
			field = CommitterDate
		}
		return DateFilter{Field: field, Date: date}, nil
	case "files":
		files, err := decodeFileset(n.Files, path+".files")
		if err != nil {
			return nil, err
		}
		return File{Files: files}, nil
	case "diff_lines":
		text, err := decodeString(n.Pattern, path+".pattern")
		if err != nil {
			return nil, err
		}
		files, err := decodeFileset(n.Files, path+".files")
		if err != nil {
			return nil, err
		}
		return DiffLines{Text: text, Files: files}, nil
	case "conflicts":
		return HasConflict{}, nil
	case "signed":
		return Signed{}, nil
	case "extension":
		return Extension{Name: n.Name}, nil
	default:
		return nil, fmt.Errorf("%s: unknown filter kind %q", path, n.Kind)
	}
}

func decodeString(n *stringNode, path string) (pattern.StringExpr, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing string pattern", path)
	}
	if kind, ok := pattern.ParseKind(n.Kind); ok {
		return pattern.StringPattern{Kind: kind, Text: n.Text}, nil
	}
	switch n.Kind {
	case "not_in":
		inner, err := decodeString(n.Of, path+".of")
		if err != nil {
			return nil, err
		}
		return pattern.StringNotIn{Expr: inner}, nil
	case "union", "intersection":
		left, err := decodeString(n.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := decodeString(n.Right, path+".right")
		if err != nil {
			return nil, err
		}
		if n.Kind == "union" {
			return pattern.StringUnion{Left: left, Right: right}, nil
		}
		return pattern.StringIntersection{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("%s: unknown string pattern kind %q", path, n.Kind)
	}
}

func decodeFileset(n *filesetNode, path string) (pattern.FilesetExpr, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing fileset", path)
	}
	switch n.Kind {
	case "none":
		return pattern.FilesetNone{}, nil
	case "all":
		return pattern.FilesetAll{}, nil
	case "file":
		return pattern.FilePattern{Kind: pattern.FilePath, Path: n.Path}, nil
	case "prefix":
		return pattern.FilePattern{Kind: pattern.PrefixPath, Path: n.Path}, nil
	case "glob":
		return pattern.FilePattern{Kind: pattern.FileGlob, Dir: n.Dir, Glob: n.Glob}, nil
	case "prefix_glob":
		return pattern.FilePattern{Kind: pattern.PrefixGlob, Dir: n.Dir, Glob: n.Glob}, nil
	case "union":
		u := pattern.FilesetUnion{}
		for i, sub := range n.Exprs {
			expr, err := decodeFileset(sub, fmt.Sprintf("%s.exprs[%d]", path, i))
			if err != nil {
				return nil, err
			}
			u.Exprs = append(u.Exprs, expr)
		}
		return u, nil
	case "intersection", "difference":
		left, err := decodeFileset(n.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := decodeFileset(n.Right, path+".right")
		if err != nil {
			return nil, err
		}
		if n.Kind == "intersection" {
			return pattern.FilesetIntersection{Left: left, Right: right}, nil
		}
		return pattern.FilesetDifference{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("%s: unknown fileset kind %q", path, n.Kind)
	}
}
