// Package rebuildfeed notifies a cluster of engine instances that the
// features table has been rebuilt (re-ingested), so each instance can
// bump its query-result cache generation and drop stale L1 entries.
package rebuildfeed

import "time"

// RebuildEvent announces that the features table identified by
// TablePath now reflects Generation. Generation only ever increases for
// a given TablePath; consumers drop events that do not increase it.
type RebuildEvent struct {
	TablePath  string    `json:"table_path"`
	Generation uint64    `json:"generation"`
	TS         time.Time `json:"ts"`
}
