package dump

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Inventory collects the reports of one run and rejects a second dump of the same
// system. Safe for concurrent use.
type Inventory struct {
	mu      sync.Mutex
	keys    map[string]string // business key -> first source
	reports []*Report
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{keys: make(map[string]string)}
}

// Add records rep. Reports without a business key are always recorded. A report whose
// key was already seen is not recorded and a *DuplicateKeyError is returned.
func (inv *Inventory) Add(rep *Report) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if rep.Key != nil {
		if first, dup := inv.keys[*rep.Key]; dup {
			log.Warn().Str("key", *rep.Key).Str("source", rep.Source).Str("first", first).Msg("duplicate dump skipped")
			return &DuplicateKeyError{Key: *rep.Key, Source: rep.Source, First: first}
		}
		inv.keys[*rep.Key] = rep.Source
	}
	inv.reports = append(inv.reports, rep)
	return nil
}

// Reports returns the recorded reports ordered by source name.
func (inv *Inventory) Reports() []*Report {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := append([]*Report(nil), inv.reports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Len returns the number of recorded reports.
func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.reports)
}
