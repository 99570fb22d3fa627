package main

import (
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore"
)

func TestMergeStats(t *testing.T) {
	a := featurestore.IngestStats{
		FeaturesInserted: 10,
		CellsInserted:    100,
		TooSmall:         1,
		CorrectedUp:      2,
		PerSourceFile: map[string]featurestore.SourceStats{
			"a.geojson": {Features: 10, Cells: 100, MinRes: 7, MaxRes: 9},
		},
	}
	b := featurestore.IngestStats{
		FeaturesInserted: 5,
		CellsInserted:    50,
		TooSmall:         0,
		CorrectedUp:      1,
		PerSourceFile: map[string]featurestore.SourceStats{
			"b.geojson": {Features: 5, Cells: 50, MinRes: 6, MaxRes: 8},
		},
	}

	merged := mergeStats(a, b)

	if merged.FeaturesInserted != 15 {
		t.Errorf("FeaturesInserted = %d, want 15", merged.FeaturesInserted)
	}
	if merged.CellsInserted != 150 {
		t.Errorf("CellsInserted = %d, want 150", merged.CellsInserted)
	}
	if merged.TooSmall != 1 {
		t.Errorf("TooSmall = %d, want 1", merged.TooSmall)
	}
	if merged.CorrectedUp != 3 {
		t.Errorf("CorrectedUp = %d, want 3", merged.CorrectedUp)
	}
	if len(merged.PerSourceFile) != 2 {
		t.Fatalf("PerSourceFile has %d entries, want 2", len(merged.PerSourceFile))
	}
	if merged.PerSourceFile["a.geojson"].Features != 10 {
		t.Errorf("a.geojson Features = %d, want 10", merged.PerSourceFile["a.geojson"].Features)
	}
}

func TestMergeStats_NilPerSourceFile(t *testing.T) {
	var a featurestore.IngestStats
	b := featurestore.IngestStats{
		FeaturesInserted: 3,
		PerSourceFile: map[string]featurestore.SourceStats{
			"only.geojson": {Features: 3},
		},
	}

	merged := mergeStats(a, b)
	if merged.FeaturesInserted != 3 {
		t.Errorf("FeaturesInserted = %d, want 3", merged.FeaturesInserted)
	}
	if _, ok := merged.PerSourceFile["only.geojson"]; !ok {
		t.Error("expected only.geojson to be present after merging into a nil map")
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"broker:9092", []string{"broker:9092"}},
		{"a:9092,b:9092,c:9092", []string{"a:9092", "b:9092", "c:9092"}},
		{"a:9092,,b:9092", []string{"a:9092", "b:9092"}},
		{"a:9092,", []string{"a:9092"}},
	}

	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitCSV(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
