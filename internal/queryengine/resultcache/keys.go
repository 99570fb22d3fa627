package resultcache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine"
)

// BuildKey hashes an operation name, its selection arguments, and the
// table generation into a cache key. generation changes every time the
// features table is rebuilt, so a stale key simply never recurs rather
// than needing active invalidation.
func BuildKey(generation uint64, op string, selections ...queryengine.Selection) string {
	var b strings.Builder
	b.WriteString(op)
	for _, s := range selections {
		b.WriteByte('|')
		b.WriteString(selectionKey(s))
	}

	sum := xxhash.Sum64String(b.String())
	return fmt.Sprintf("dggs:g=%d:op=%s:h=%016x", generation, op, sum)
}

func selectionKey(s queryengine.Selection) string {
	switch sel := s.(type) {
	case queryengine.Filter:
		return "f:" + sel.Where
	case queryengine.CellRelation:
		return "r:" + strconv.Itoa(sel.Resolution) + ":" + strings.Join(sel.Cells.Strings(), ",")
	default:
		return fmt.Sprintf("u:%v", s)
	}
}
