package revset

import (
	"strconv"

	"github.com/odvcencio/revplan/pkg/pattern"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

type lowerer struct {
	ctx *ParseContext
}

// expr lowers an alias-expanded syntax tree to an Expression.
func (l *lowerer) expr(n Node) (Expression, error) {
	switch n := n.(type) {
	case *Identifier:
		return CommitRef{Name: reftable.Reference(n.Name)}, nil
	case *StringLiteral:
		return CommitRef{Name: reftable.Reference(n.Value)}, nil
	case *RemoteSymbol:
		return CommitRef{Name: reftable.Reference(n.Name + "@" + n.Remote)}, nil
	case *WorkingCopyNode:
		if n.Workspace == "" {
			return CommitRef{Name: reftable.WorkingCopy}, nil
		}
		return CommitRef{Name: reftable.Reference(n.Workspace + "@")}, nil
	case *PatternNode:
		return nil, errorf(n.Pos(), "string pattern %s:%s is not a revision; use it as a function argument", n.Kind, strconv.Quote(n.Value))
	case *RangeAll:
		if n.Dag {
			return All{}, nil
		}
		return rangeOf(Root{}, VisibleHeadsOrReferenced{}), nil
	case *UnaryOp:
		operand, err := l.expr(n.Operand)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case Negate:
			return NotIn{Expr: operand}, nil
		case DagRangePrefix:
			return ancestorsOf(operand), nil
		case DagRangePostfix:
			return descendantsOf(operand), nil
		case RangePrefix:
			return rangeOf(Root{}, operand), nil
		case RangePostfix:
			return rangeOf(operand, VisibleHeadsOrReferenced{}), nil
		case ParentsOp:
			return parentsAt(operand, 1), nil
		case ChildrenOp:
			return childrenAt(operand, 1), nil
		}
		return nil, errorf(n.Pos(), "unknown unary operator %d", n.Op)
	case *BinaryOp:
		left, err := l.expr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case UnionOp:
			return Union{Left: left, Right: right}, nil
		case IntersectionOp:
			return Intersection{Left: left, Right: right}, nil
		case DifferenceOp:
			return Difference{Left: left, Right: right}, nil
		case DagRangeOp:
			return DagRange{Roots: left, Heads: right}, nil
		case RangeOp:
			return rangeOf(left, right), nil
		}
		return nil, errorf(n.Pos(), "unknown binary operator %d", n.Op)
	case *FunctionCall:
		return l.call(n)
	default:
		return nil, errorf(n.Pos(), "unexpected syntax node %T", n)
	}
}

func generationAt(depth uint64) pattern.Range[uint64] {
	return pattern.NewRange(depth, saturatingAdd(depth, 1))
}

// generationUpTo covers depth generations, counting x itself as the first.
func generationUpTo(depth uint64) pattern.Range[uint64] {
	return pattern.NewRange(0, depth)
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

func parentsAt(x Expression, depth uint64) Ancestors {
	return Ancestors{Heads: x, Generation: generationAt(depth), ParentsRange: resolved.ParentsFull}
}

func childrenAt(x Expression, depth uint64) Descendants {
	return Descendants{Roots: x, Generation: generationAt(depth)}
}

// firstParentRange restricts a walk to each commit's first parent.
var firstParentRange = pattern.NewRange[uint32](0, 1)
