package ingest

import (
	"sync"
	"time"
)

// dedupMaxEntries caps the seen-set so a retry storm cannot grow it without
// bound.
const dedupMaxEntries = 10000

// Deduper is an in-memory TTL seen-set keyed by event id. Slack redelivers
// events it considers unacknowledged; a second sighting within the window is
// dropped instead of re-ingested.
type Deduper struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []string
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewDeduper constructs a Deduper with the given window.
func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Deduper{
		seen:    make(map[string]time.Time),
		order:   make([]string, 0),
		ttl:     ttl,
		maxSize: dedupMaxEntries,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Seen marks key as observed and reports whether it had already been
// observed inside the TTL window.
func (d *Deduper) Seen(key string) bool {
	if key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.cleanupLocked(now)

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.ttl {
		return true
	}
	if _, ok := d.seen[key]; !ok {
		d.order = append(d.order, key)
	}
	d.seen[key] = now
	d.enforceMaxLocked()
	return false
}

func (d *Deduper) cleanupLocked(now time.Time) {
	kept := d.order[:0]
	for _, key := range d.order {
		at, ok := d.seen[key]
		if !ok {
			continue
		}
		if now.Sub(at) >= d.ttl {
			delete(d.seen, key)
			continue
		}
		kept = append(kept, key)
	}
	d.order = kept
}

func (d *Deduper) enforceMaxLocked() {
	for len(d.order) > d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
}
