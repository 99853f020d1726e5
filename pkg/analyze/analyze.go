// Package analyze defines the capability shared by every node of an explain
// plan: given the context it is evaluated in, a node describes itself as a
// TreeEntry and classifies its own cost.
package analyze

import (
	"fmt"
	"math"
	"strconv"

	"github.com/odvcencio/revplan/pkg/pattern"
)

// Context describes how the evaluator consumes a subexpression.
type Context int

const (
	// Eager subexpressions are fully materialized before use.
	Eager Context = iota
	// Lazy subexpressions are consulted by incremental membership tests.
	Lazy
	// Predicate subexpressions are only ever used as a boolean test.
	Predicate
	// Resolved is the terminal context of leaves.
	Resolved
)

// PredicateToLazy maps Predicate to Lazy and leaves other contexts alone.
func (c Context) PredicateToLazy() Context {
	if c == Predicate {
		return Lazy
	}
	return c
}

// EagerToLazy maps Eager to Lazy and leaves other contexts alone.
func (c Context) EagerToLazy() Context {
	if c == Eager {
		return Lazy
	}
	return c
}

func (c Context) String() string {
	switch c {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Predicate:
		return "predicate"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("Context(%d)", int(c))
	}
}

// ParseContext parses a user-selectable context. Resolved is not one.
func ParseContext(s string) (Context, error) {
	switch s {
	case "eager":
		return Eager, nil
	case "lazy":
		return Lazy, nil
	case "predicate":
		return Predicate, nil
	default:
		return 0, fmt.Errorf("invalid context %q (want eager, lazy or predicate)", s)
	}
}

// Cost is a coarse evaluation-cost classification.
type Cost int

const (
	Fast Cost = iota
	Slow
)

func (c Cost) String() string {
	if c == Slow {
		return "slow"
	}
	return "fast"
}

// TreeEntry is how a node presents itself under a given context.
type TreeEntry struct {
	Name     string
	Context  Context
	Children []Child
}

// Child is one sub-node of a TreeEntry. Label is empty for unlabeled
// children.
type Child struct {
	Label   string
	Context Context
	Tree    Tree
}

// Labeled reports whether the child carries a label.
func (c Child) Labeled() bool {
	return c.Label != ""
}

// Tree is implemented by every node of an explain plan.
type Tree interface {
	Entry(ctx Context) TreeEntry
	Cost(ctx Context) Cost
}

// Leaf returns an entry with no children in the Resolved context.
func Leaf(name string) TreeEntry {
	return TreeEntry{Name: name, Context: Resolved}
}

// Int is a resolved integer leaf.
type Int int

func (n Int) Entry(Context) TreeEntry { return Leaf(strconv.Itoa(int(n))) }
func (Int) Cost(Context) Cost         { return Fast }

var (
	fullGeneration = pattern.NewRange[uint64](0, math.MaxUint64)
	fullParents    = pattern.NewRange[uint32](0, math.MaxUint32)
)

// GenerationRange is a resolved generation-range leaf.
type GenerationRange pattern.Range[uint64]

func (r GenerationRange) Entry(Context) TreeEntry {
	text, _ := pattern.FormatRange(pattern.Range[uint64](r), fullGeneration)
	return Leaf(text)
}

func (GenerationRange) Cost(Context) Cost { return Fast }

// ParentsRange is a resolved parent-index-range leaf.
type ParentsRange pattern.Range[uint32]

func (r ParentsRange) Entry(Context) TreeEntry {
	text, _ := pattern.FormatRange(pattern.Range[uint32](r), fullParents)
	return Leaf(text)
}

func (ParentsRange) Cost(Context) Cost { return Fast }

// Text is a resolved leaf displaying a fixed string.
type Text string

func (t Text) Entry(Context) TreeEntry { return Leaf(string(t)) }
func (Text) Cost(Context) Cost         { return Fast }
