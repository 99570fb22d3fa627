// Package crs reprojects feature geometries to WGS84 before H3 indexing
// (spec.md §4.2). Transformers are expensive to construct and cheap to
// reuse, so the registry below builds one per distinct (source, target)
// pair and reuses it across an entire ingest batch, mirroring the
// reproject-once-per-batch discipline the original conversion script
// applies via geopandas' to_crs.
package crs

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/twpayne/go-proj/v10"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
)

// Transformer reprojects points from one CRS to WGS84.
type Transformer struct {
	noop bool
	pj   *proj.PJ
}

// ToWGS84 reprojects pt. Transformers constructed for a WGS84/unknown
// source are a no-op and return pt unchanged.
func (t *Transformer) ToWGS84(pt model.LatLng) (model.LatLng, error) {
	if t.noop {
		return pt, nil
	}
	coord := proj.Coord{0: pt.Lng, 1: pt.Lat}
	out, err := t.pj.Forward(coord)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("crs transform: %w", err)
	}
	return model.LatLng{Lat: out[1], Lng: out[0]}, nil
}

// ToWGS84Ring reprojects every vertex of r into a new ring; r itself is
// not modified.
func (t *Transformer) ToWGS84Ring(r model.Ring) (model.Ring, error) {
	if t.noop {
		return r, nil
	}
	out := make(model.Ring, len(r))
	for i, v := range r {
		w, err := t.ToWGS84(v)
		if err != nil {
			return nil, fmt.Errorf("ring vertex %d: %w", i, err)
		}
		out[i] = w
	}
	return out, nil
}

// Registry caches one Transformer per distinct source CRS seen during a
// single ingest batch, so repeated calls for the same source file don't
// reconstruct a PROJ pipeline per feature.
type Registry struct {
	mu    sync.Mutex
	cache map[string]*Transformer
	ctx   *proj.Context
}

// NewRegistry builds an empty registry. A Registry is not safe to share
// across concurrent ingest batches.
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[string]*Transformer),
		ctx:   proj.NewContext(),
	}
}

// Close releases the underlying PROJ context and any cached transformers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.cache {
		if t.pj != nil {
			t.pj.Destroy()
		}
	}
	r.cache = nil
	if r.ctx != nil {
		r.ctx.Destroy()
	}
}

// noopTransformer is the single shared Transformer returned for every
// WGS84/unknown source.
var noopTransformer = &Transformer{noop: true}

// Transformer returns (constructing and caching if necessary) the
// Transformer for source -> WGS84.
func (r *Registry) Transformer(source model.CRS) (*Transformer, error) {
	if source.IsWGS84NoOp() {
		return noopTransformer, nil
	}

	key := source.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[key]; ok {
		return t, nil
	}

	code, err := ParseEPSG(key)
	if err != nil {
		return nil, err
	}

	pj, err := r.ctx.NewCRSToCRS(fmt.Sprintf("EPSG:%d", code), "EPSG:4326", nil)
	if err != nil {
		return nil, fmt.Errorf("build crs transform EPSG:%d -> EPSG:4326: %w", code, err)
	}
	pj = pj.NormalizeForVisualization()

	t := &Transformer{pj: pj}
	r.cache[key] = t
	return t, nil
}

// ParseEPSG accepts "EPSG:<n>" or a bare unsigned integer and returns n.
func ParseEPSG(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToUpper(s), "EPSG:")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid EPSG identifier %q", raw)
	}
	return n, nil
}
