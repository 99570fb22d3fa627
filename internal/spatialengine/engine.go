// Package spatialengine defines a narrow spatial-predicate capability
// used only to cross-validate the DGGS query engine in tests: a DGGS
// implementation backed by internal/predicates, and a slower, exact
// geometric oracle backed by github.com/golang/geo/s2 operating on the
// original vector geometry rather than its cell approximation.
//
// Go's static typing splits the single {intersects, within, contains,
// touches, name} capability the two engines share conceptually into two
// interfaces, one per argument shape (cell sets vs. geometries); Named
// is the part both satisfy uniformly.
package spatialengine

// Named identifies an engine implementation for test output/logging.
type Named interface {
	Name() string
}
