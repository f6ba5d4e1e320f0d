// Package sink collects extracted business records, deduplicating as
// they arrive and preserving first-seen order for export.
package sink

import (
	"strings"
	"sync"

	"github.com/Islam-amara1/mapsscraper/pkg/models"
)

// Sink accumulates unique business records. Safe for concurrent use.
type Sink struct {
	mu      sync.Mutex
	seen    map[string]bool
	records []models.Business
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{seen: make(map[string]bool)}
}

// Add stores the record unless an equivalent one was already added. It
// reports whether the record was kept.
func (s *Sink) Add(record models.Business) bool {
	key := dedupKey(&record)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false
	}
	s.seen[key] = true
	s.records = append(s.records, record)
	return true
}

// Len returns the number of unique records collected so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns a copy of the collected records in first-seen order.
func (s *Sink) Snapshot() []models.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Business, len(s.records))
	copy(out, s.records)
	return out
}

// dedupKey identifies a business by normalized name and address. A
// record with no address falls back to its map URL, so two branches of
// a chain at different addresses stay distinct.
func dedupKey(b *models.Business) string {
	name := normalize(b.Name)
	if addr := normalize(b.Address); addr != "" {
		return name + "|" + addr
	}
	return name + "|" + strings.TrimSpace(b.MapURL)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
