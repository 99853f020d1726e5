// Package reftable interns the symbolic commit-set descriptions produced while
// resolving a revset. The resolver only ever sees opaque CommitIDs; the
// explain output recovers the readable text from the table.
package reftable

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Reference is the display text of a symbolic commit-set input, such as
// "root()", "main@origin" or "bookmarks(glob:\"feature-*\")".
type Reference string

const (
	Root                     Reference = "root()"
	VisibleHeads             Reference = "visible_heads()"
	VisibleHeadsOrReferenced Reference = "visible_heads() and referenced revisions"
	WorkingCopy              Reference = "@"
)

func (r Reference) String() string {
	return string(r)
}

// idWidth is the byte width of every CommitID handed out by a Table.
const idWidth = 8

// CommitID is an opaque commit identifier. IDs issued by a Table encode the
// reference's index as idWidth little-endian bytes.
type CommitID string

// Hex returns the lowercase hex encoding of the raw id bytes.
func (id CommitID) Hex() string {
	return hex.EncodeToString([]byte(id))
}

func (id CommitID) String() string {
	return id.Hex()
}

func encodeIndex(index int) CommitID {
	var buf [idWidth]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(index))
	return CommitID(buf[:])
}

// Table is a bijective mapping between References and dense CommitIDs,
// assigned in first-insertion order. It is owned by a single analysis run and
// is not safe for concurrent mutation.
type Table struct {
	refs  []Reference
	index map[Reference]int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: make(map[Reference]int)}
}

// Insert interns ref and returns its id. Inserting a reference that is
// already present returns the id it was first given.
func (t *Table) Insert(ref Reference) CommitID {
	if i, ok := t.index[ref]; ok {
		return encodeIndex(i)
	}
	i := len(t.refs)
	t.refs = append(t.refs, ref)
	t.index[ref] = i
	return encodeIndex(i)
}

// Lookup returns the id of ref without inserting it.
func (t *Table) Lookup(ref Reference) (CommitID, bool) {
	i, ok := t.index[ref]
	if !ok {
		return "", false
	}
	return encodeIndex(i), true
}

// Get returns the reference named by id. Every id reaching Get must have been
// issued by this table, so an unknown id is a programming error and panics.
func (t *Table) Get(id CommitID) Reference {
	if len(id) != idWidth {
		panic(fmt.Sprintf("reftable: commit id %s has %d bytes, want %d", id, len(id), idWidth))
	}
	i := binary.LittleEndian.Uint64([]byte(id))
	if i >= uint64(len(t.refs)) {
		panic(fmt.Sprintf("reftable: commit id %s was never assigned (table has %d references)", id, len(t.refs)))
	}
	return t.refs[i]
}

// Len reports how many distinct references have been interned.
func (t *Table) Len() int {
	return len(t.refs)
}

// References returns the interned references in insertion order.
func (t *Table) References() []Reference {
	out := make([]Reference, len(t.refs))
	copy(out, t.refs)
	return out
}
