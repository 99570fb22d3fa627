package cellset

import "testing"

func TestSet_DeduplicatesAndSorts(t *testing.T) {
	c1, err := ParseCell("8a2a1072a6bffff")
	if err != nil {
		t.Fatalf("parse c1: %v", err)
	}
	c2, err := ParseCell("8a2a1072a6cffff")
	if err != nil {
		t.Fatalf("parse c2: %v", err)
	}

	s := NewSet(c2, c1, c2, c1)
	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct cells, got %d", s.Len())
	}
	cells := s.Cells()
	if cells[0] >= cells[1] {
		t.Fatalf("expected sorted ascending order, got %v", cells)
	}
	if !s.Contains(c1) || !s.Contains(c2) {
		t.Fatalf("expected set to contain both parsed cells")
	}
}

func TestSet_UnionIntersect(t *testing.T) {
	c1, _ := ParseCell("8a2a1072a6bffff")
	c2, _ := ParseCell("8a2a1072a6cffff")
	c3, _ := ParseCell("8a2a1072a6dffff")

	a := NewSet(c1, c2)
	b := NewSet(c2, c3)

	u := a.Union(b)
	if u.Len() != 3 {
		t.Fatalf("expected union of 3 distinct cells, got %d", u.Len())
	}

	i := a.Intersect(b)
	if i.Len() != 1 || !i.Contains(c2) {
		t.Fatalf("expected intersection to contain only c2, got %v", i.Strings())
	}
}

func TestSet_Equal(t *testing.T) {
	c1, _ := ParseCell("8a2a1072a6bffff")
	c2, _ := ParseCell("8a2a1072a6cffff")

	a := NewSet(c1, c2)
	b := NewSet(c2, c1)
	if !a.Equal(b) {
		t.Fatalf("expected sets with same members in different insertion order to be equal")
	}

	c := NewSet(c1)
	if a.Equal(c) {
		t.Fatalf("expected sets of different size to be unequal")
	}
}

func TestParseCell_Invalid(t *testing.T) {
	if _, err := ParseCell("not-a-cell"); err == nil {
		t.Fatalf("expected error for malformed cell string")
	}
}
