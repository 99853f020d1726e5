package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// FileKind selects how a FilePattern matches repository paths.
type FileKind int

const (
	// FilePath matches exactly one file.
	FilePath FileKind = iota
	// PrefixPath matches a file or everything under a directory.
	PrefixPath
	// FileGlob matches files in Dir whose relative path matches Glob.
	FileGlob
	// PrefixGlob matches FileGlob targets and everything under them.
	PrefixGlob
)

// FilesetExpr is a file-set expression. Implementations are FilesetNone,
// FilesetAll, FilePattern, FilesetUnion, FilesetIntersection and
// FilesetDifference.
type FilesetExpr interface {
	isFilesetExpr()
}

// FilePattern is a leaf file-set. Path and Dir are workspace-relative,
// slash-separated, and empty for the workspace root.
type FilePattern struct {
	Kind FileKind
	Path string
	Dir  string
	Glob string
}

// FilesetNone matches nothing.
type FilesetNone struct{}

// FilesetAll matches every file.
type FilesetAll struct{}

// FilesetUnion matches files in any operand.
type FilesetUnion struct {
	Exprs []FilesetExpr
}

// FilesetIntersection matches files in both operands.
type FilesetIntersection struct {
	Left, Right FilesetExpr
}

// FilesetDifference matches files in Left but not Right.
type FilesetDifference struct {
	Left, Right FilesetExpr
}

func (FilePattern) isFilesetExpr()         {}
func (FilesetNone) isFilesetExpr()         {}
func (FilesetAll) isFilesetExpr()          {}
func (FilesetUnion) isFilesetExpr()        {}
func (FilesetIntersection) isFilesetExpr() {}
func (FilesetDifference) isFilesetExpr()   {}

func dirString(dir string) string {
	if dir == "" {
		return ""
	}
	return strings.TrimSuffix(dir, "/") + "/"
}

// FormatFilePattern renders a leaf pattern in canonical fileset form.
func FormatFilePattern(p FilePattern) string {
	switch p.Kind {
	case FilePath:
		return "file:" + strconv.Quote(p.Path)
	case PrefixPath:
		return strconv.Quote(p.Path)
	case FileGlob:
		return "glob:" + strconv.Quote(dirString(p.Dir)+p.Glob)
	case PrefixGlob:
		return "prefix-glob:" + strconv.Quote(dirString(p.Dir)+p.Glob)
	default:
		panic(fmt.Sprintf("pattern: unknown file pattern kind %d", int(p.Kind)))
	}
}

// FormatFileset renders a file-set expression in canonical form.
func FormatFileset(expr FilesetExpr) string {
	switch e := expr.(type) {
	case FilesetNone:
		return "none()"
	case FilesetAll:
		return "all()"
	case FilePattern:
		return FormatFilePattern(e)
	case FilesetUnion:
		parts := make([]string, len(e.Exprs))
		for i, sub := range e.Exprs {
			parts[i] = FormatFileset(sub)
		}
		return "(" + strings.Join(parts, " | ") + ")"
	case FilesetIntersection:
		return "(" + FormatFileset(e.Left) + " & " + FormatFileset(e.Right) + ")"
	case FilesetDifference:
		return "(" + FormatFileset(e.Left) + " ~ " + FormatFileset(e.Right) + ")"
	default:
		panic(fmt.Sprintf("pattern: unknown fileset expression %T", expr))
	}
}

// IsAll reports whether expr is the universal file set.
func IsAll(expr FilesetExpr) bool {
	_, ok := expr.(FilesetAll)
	return ok
}
