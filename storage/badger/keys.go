package badger

import (
	"fmt"
	"time"
)

// Key prefixes for archived data
const (
	runSummaryPrefix = "runsum"
	runIDIndexPrefix = "runid"
)

// makeRunKey generates a time-ordered key for a run summary.
// Format: prefix:timestamp:id, with a zero-padded nanosecond timestamp so
// lexicographic iteration matches chronological order.
func makeRunKey(startedAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s:%020d:%s", runSummaryPrefix, startedAt.UnixNano(), id))
}

// makeRunIDKey generates the index key mapping a run ID to its primary key.
func makeRunIDKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runIDIndexPrefix, id))
}

// runKeyPrefix returns the prefix for iterating all run summaries.
func runKeyPrefix() []byte {
	return []byte(runSummaryPrefix + ":")
}
