package rebuildfeed

import "testing"

func TestGenerationDedupe_OnlyAppliesIncreasing(t *testing.T) {
	d := newGenerationDedupe(8)

	if !d.shouldApply("t1", 1) {
		t.Fatalf("expected first generation to apply")
	}
	if d.shouldApply("t1", 1) {
		t.Fatalf("expected a repeated generation to be rejected")
	}
	if d.shouldApply("t1", 0) {
		t.Fatalf("expected an older generation to be rejected")
	}
	if !d.shouldApply("t1", 2) {
		t.Fatalf("expected a strictly newer generation to apply")
	}
	if !d.shouldApply("t2", 1) {
		t.Fatalf("expected a different table path to track its own generation")
	}
}
