package spatialengine

import (
	"github.com/mohammed-shakir/h3-spatial-cache/internal/predicates"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// DGGS is the fast, cell-based predicate engine: a thin adapter over
// internal/predicates exposed behind the Named identity used by cross-
// validation tests.
type DGGS struct{}

// NewDGGS constructs the DGGS predicate engine.
func NewDGGS() DGGS { return DGGS{} }

func (DGGS) Name() string { return "H3 DGGS Engine" }

func (DGGS) Intersects(a, b cellset.Set) (bool, error) { return predicates.Intersects(a, b) }
func (DGGS) Within(a, b cellset.Set) (bool, error)     { return predicates.Within(a, b) }
func (DGGS) Contains(a, b cellset.Set) (bool, error)   { return predicates.Contains(a, b) }
func (DGGS) Touches(a, b cellset.Set) (bool, error)    { return predicates.Touches(a, b) }

var _ Named = DGGS{}
