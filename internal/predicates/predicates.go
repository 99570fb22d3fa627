// Package predicates implements the pure, stateless hierarchical spatial
// predicates over in-memory H3 cell sets: Intersects, Within, Contains,
// Touches. All four are hierarchical-aware — mixed-resolution inputs are
// normalized to the coarser resolution before comparison, mirroring the
// reference predicate library this package ports.
package predicates

import (
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// normalizeToCoarserResolution normalizes a and b to the coarser of their
// two resolutions, per-cell, via cell_to_parent. Empty sets and sets
// already at the same resolution pass through unchanged.
func normalizeToCoarserResolution(a, b cellset.Set) (cellset.Set, cellset.Set, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return a, b, nil
	}

	resA := a.Cells()[0].Resolution()
	resB := b.Cells()[0].Resolution()
	if resA == resB {
		return a, b, nil
	}

	target := resA
	if resB < target {
		target = resB
	}

	na, err := toParentRes(a, target)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, err
	}
	nb, err := toParentRes(b, target)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, err
	}
	return na, nb, nil
}

func toParentRes(s cellset.Set, res int) (cellset.Set, error) {
	cells := s.Cells()
	if len(cells) == 0 || cells[0].Resolution() == res {
		return s, nil
	}
	out := make([]cellset.Cell, len(cells))
	for i, c := range cells {
		p, err := h3kernel.CellToParent(c, res)
		if err != nil {
			return cellset.Set{}, err
		}
		out[i] = p
	}
	return cellset.NewSet(out...), nil
}

// Intersects reports whether a and b share at least one cell once
// normalized to their coarser resolution.
func Intersects(a, b cellset.Set) (bool, error) {
	na, nb, err := normalizeToCoarserResolution(a, b)
	if err != nil {
		return false, err
	}
	return na.Intersect(nb).Len() > 0, nil
}

// Within reports whether every cell of a is contained in b, once
// normalized to their coarser resolution. An empty a or b is never
// within the other: there is nothing to witness the relation.
func Within(a, b cellset.Set) (bool, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return false, nil
	}

	na, nb, err := normalizeToCoarserResolution(a, b)
	if err != nil {
		return false, err
	}
	for _, c := range na.Cells() {
		if !nb.Contains(c) {
			return false, nil
		}
	}
	return true, nil
}

// Contains reports whether a contains every cell of b — the inverse of
// Within(b, a).
func Contains(a, b cellset.Set) (bool, error) {
	return Within(b, a)
}

// Touches reports whether a and b do not intersect, but at least one
// cell of a (at the normalized resolution) is a grid-disk(k=1) neighbor
// of some cell of b.
func Touches(a, b cellset.Set) (bool, error) {
	intersecting, err := Intersects(a, b)
	if err != nil {
		return false, err
	}
	if intersecting {
		return false, nil
	}

	na, nb, err := normalizeToCoarserResolution(a, b)
	if err != nil {
		return false, err
	}

	neighbors, err := GetNeighbors(na, 1)
	if err != nil {
		return false, err
	}
	return neighbors.Intersect(nb).Len() > 0, nil
}

// GetNeighbors returns the union of grid-disk(k) around every cell in s,
// excluding the cells of s itself.
func GetNeighbors(s cellset.Set, k int) (cellset.Set, error) {
	all := cellset.NewSet()
	for _, c := range s.Cells() {
		disk, err := h3kernel.GridDisk(c, k)
		if err != nil {
			return cellset.Set{}, err
		}
		all = all.Union(disk)
	}
	out := make([]cellset.Cell, 0, all.Len())
	for _, c := range all.Cells() {
		if !s.Contains(c) {
			out = append(out, c)
		}
	}
	return cellset.NewSet(out...), nil
}
