// Package cellset defines the H3 cell identifier and cell-set value types
// shared across the indexer and query engine.
package cellset

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"
)

// Cell is an H3 cell identifier, stored as the raw 64-bit encoding.
// Storage and columnar math use this form; API/display boundaries use
// the 15-hex-digit string form via String/ParseCell.
type Cell uint64

// ParseCell parses the 15-hex-digit string presentation of a cell.
func ParseCell(s string) (Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parse h3 cell %q: %w", s, err)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("invalid h3 cell %q", s)
	}
	return Cell(c), nil
}

func (c Cell) String() string {
	return h3.Cell(c).String()
}

// IsValid reports whether c is a structurally valid H3 cell.
func (c Cell) IsValid() bool {
	return h3.Cell(c).IsValid()
}

// Resolution returns the H3 resolution (0-15) encoded in c.
func (c Cell) Resolution() int {
	return h3.Cell(c).Resolution()
}

// IsPentagon reports whether c is one of the 12 base pentagons (or a
// descendant of one), surfaced for callers introspecting single cells;
// neither the encoder nor the planner special-cases it.
func (c Cell) IsPentagon() bool {
	return h3.Cell(c).IsPentagon()
}

// Set is an unordered, duplicate-free collection of cells, conceptually
// all at one resolution; mixing resolutions is handled by the query engine
// and internal/predicates, not here. The backing representation is a sorted
// slice: cache-friendly and SIMD-friendly for the set intersections the
// query engine performs on potentially large cell sets (spec.md "Design
// Notes"). Membership tests use binary search (sort.Search) at every size.
type Set struct {
	cells []Cell
}

// NewSet builds a de-duplicated, sorted Set from cs.
func NewSet(cs ...Cell) Set {
	s := Set{cells: append([]Cell(nil), cs...)}
	s.normalize()
	return s
}

func (s *Set) normalize() {
	sort.Slice(s.cells, func(i, j int) bool { return s.cells[i] < s.cells[j] })
	if len(s.cells) < 2 {
		return
	}
	out := s.cells[:1]
	for _, c := range s.cells[1:] {
		if c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	s.cells = out
}

// Len returns the number of distinct cells.
func (s Set) Len() int { return len(s.cells) }

// Cells returns the sorted, de-duplicated backing slice. Callers must not
// mutate the returned slice.
func (s Set) Cells() []Cell { return s.cells }

// Contains reports whether c is a member of s.
func (s Set) Contains(c Cell) bool {
	i := sort.Search(len(s.cells), func(i int) bool { return s.cells[i] >= c })
	return i < len(s.cells) && s.cells[i] == c
}

// Union returns the sorted union of s and other.
func (s Set) Union(other Set) Set {
	out := make([]Cell, 0, len(s.cells)+len(other.cells))
	out = append(out, s.cells...)
	out = append(out, other.cells...)
	u := Set{cells: out}
	u.normalize()
	return u
}

// Intersect returns the sorted intersection of s and other.
func (s Set) Intersect(other Set) Set {
	out := make([]Cell, 0, min(len(s.cells), len(other.cells)))
	i, j := 0, 0
	for i < len(s.cells) && j < len(other.cells) {
		switch {
		case s.cells[i] < other.cells[j]:
			i++
		case s.cells[i] > other.cells[j]:
			j++
		default:
			out = append(out, s.cells[i])
			i++
			j++
		}
	}
	return Set{cells: out}
}

// Equal reports whether s and other contain exactly the same cells.
// Callers that need equality after normalization to a common resolution
// must normalize both sets first, the way internal/predicates does
// before comparing across mixed-resolution inputs.
func (s Set) Equal(other Set) bool {
	if len(s.cells) != len(other.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Strings returns the cell set as sorted 15-hex-digit strings, for
// API/display boundaries.
func (s Set) Strings() []string {
	out := make([]string, len(s.cells))
	for i, c := range s.cells {
		out[i] = c.String()
	}
	return out
}
