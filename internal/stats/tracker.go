// Package stats accumulates aggregate pack-opening counters.
package stats

import "github.com/boosterlab/packsim/internal/catalog"

// Stats is the persisted shape of the aggregate counters.
type Stats struct {
	PacksOpened int            `json:"packsOpened"`
	TotalCards  int            `json:"totalCards"`
	Rarities    map[string]int `json:"rarities"`
}

// Tracker accumulates pack-opening statistics. Pure accumulation; the only
// reads are direct field reads via Snapshot.
type Tracker struct {
	packsOpened int
	totalCards  int
	rarities    map[string]int
}

// NewTracker creates a tracker with zeroed counters.
func NewTracker() *Tracker {
	return &Tracker{rarities: make(map[string]int)}
}

// RecordPackOpened folds one opened pack into the counters: one pack, one
// card per pull, one rarity count per drawn card.
func (t *Tracker) RecordPackOpened(pulls []catalog.Card) {
	t.packsOpened++
	t.totalCards += len(pulls)
	for _, card := range pulls {
		t.rarities[card.Rarity]++
	}
}

// Snapshot returns the tracker's persisted shape. The rarity map is copied.
func (t *Tracker) Snapshot() Stats {
	rarities := make(map[string]int, len(t.rarities))
	for rarity, count := range t.rarities {
		rarities[rarity] = count
	}
	return Stats{
		PacksOpened: t.packsOpened,
		TotalCards:  t.totalCards,
		Rarities:    rarities,
	}
}

// Restore replaces the tracker's counters with a previously persisted
// snapshot.
func (t *Tracker) Restore(s Stats) {
	t.packsOpened = s.PacksOpened
	t.totalCards = s.TotalCards
	t.rarities = make(map[string]int, len(s.Rarities))
	for rarity, count := range s.Rarities {
		t.rarities[rarity] = count
	}
}

// Reset clears all counters to their zero initial shape.
func (t *Tracker) Reset() {
	t.packsOpened = 0
	t.totalCards = 0
	t.rarities = make(map[string]int)
}
