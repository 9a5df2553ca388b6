package ingest

import (
	"fmt"
	"strings"
	"time"

	"mistakevault/internal/storage"
)

// idAllocator hands out record ids of the form YYYYMMDD_NN for one day.
type idAllocator struct {
	prefix string
	next   int
	taken  map[string]bool
}

func newIDAllocator(records []storage.Record, now time.Time) *idAllocator {
	prefix := now.Format("20060102")
	taken := make(map[string]bool, len(records))
	count := 0
	for i := range records {
		taken[records[i].ID] = true
		if strings.HasPrefix(records[i].ID, prefix) {
			count++
		}
	}
	return &idAllocator{
		prefix: prefix,
		next:   count + 1,
		taken:  taken,
	}
}

// Next returns the next unused id. Purged records leave gaps in the count, so the
// counter skips ids that are still present.
func (a *idAllocator) Next() string {
	for {
		id := fmt.Sprintf("%s_%02d", a.prefix, a.next)
		a.next++
		if !a.taken[id] {
			a.taken[id] = true
			return id
		}
	}
}
