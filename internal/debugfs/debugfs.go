// Package debugfs optionally mounts a two-file read-only FUSE filesystem
// exposing live scheduler state for an engineer to `cat` during a titling
// session.
package debugfs

import (
	"encoding/json"
	"hash/fnv"
	"time"
)

// StateProvider is the subset of *scheduler.Scheduler the debug filesystem
// reads on every file access; each read reflects live state, not a snapshot
// taken at mount time.
type StateProvider interface {
	Status() (loaded bool, segmentCount int, lastShownIndex int)
	CurrentLines() []string
}

// inoFromString derives a stable inode number from a path-like key.
func inoFromString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// stateJSON renders the live scheduler state as the content of state.json.
func stateJSON(loaded bool, segmentCount, lastShownIndex int, now time.Time) []byte {
	body, _ := json.MarshalIndent(map[string]any{
		"sessionLoaded":  loaded,
		"segmentCount":   segmentCount,
		"lastShownIndex": lastShownIndex,
		"generatedAt":    now.Format(time.RFC3339),
	}, "", "  ")
	return append(body, '\n')
}
