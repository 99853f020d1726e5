package revset

// Node is a revset syntax tree node.
type Node interface {
	Pos() int
}

type pos int

func (p pos) Pos() int { return int(p) }

// Identifier is a bare symbol such as a bookmark name or alias.
type Identifier struct {
	pos
	Name string
}

// StringLiteral is a quoted symbol.
type StringLiteral struct {
	pos
	Value string
}

// PatternNode is kind:value, as in glob:"release-*".
type PatternNode struct {
	pos
	Kind  string
	Value string
}

// RemoteSymbol is name@remote.
type RemoteSymbol struct {
	pos
	Name   string
	Remote string
}

// WorkingCopyNode is "@" (Workspace empty) or "name@".
type WorkingCopyNode struct {
	pos
	Workspace string
}

// FunctionCall is name(args, keyword=arg).
type FunctionCall struct {
	pos
	Name     string
	Args     []Node
	Keywords []KeywordArg
}

type KeywordArg struct {
	Name  string
	Value Node
}

type UnaryKind int

const (
	Negate UnaryKind = iota
	DagRangePrefix
	DagRangePostfix
	RangePrefix
	RangePostfix
	ParentsOp
	ChildrenOp
)

type UnaryOp struct {
	pos
	Op      UnaryKind
	Operand Node
}

type BinaryKind int

const (
	UnionOp BinaryKind = iota
	IntersectionOp
	DifferenceOp
	DagRangeOp
	RangeOp
)

type BinaryOp struct {
	pos
	Op          BinaryKind
	Left, Right Node
}

// RangeAll is a bare "::" or "..".
type RangeAll struct {
	pos
	Dag bool
}
