// Package collection accumulates drawn cards into a persistent ledger of
// per-card counts and answers completion queries against a catalog.
package collection

import (
	"sort"

	"github.com/boosterlab/packsim/internal/catalog"
)

// Entry is the mutable collection record for one unique card identity.
// Count is at least 1 once the entry exists and never decreases.
type Entry struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Rarity string `json:"rarity"`
	Image  string `json:"image"`
	Count  int    `json:"count"`
}

// Key returns the entry's identity key, matching catalog.Card.Key.
func (e Entry) Key() string {
	return e.Name + e.Number
}

// Ledger maps identity keys to collection entries. Insertion order is
// irrelevant; key uniqueness is the core invariant.
type Ledger struct {
	entries map[string]*Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// Record folds one drawn card into the ledger: first draw of an identity
// creates its entry, every draw increments the count.
func (l *Ledger) Record(card catalog.Card) {
	key := card.Key()
	entry, ok := l.entries[key]
	if !ok {
		entry = &Entry{
			Name:   card.Name,
			Number: card.Number,
			Rarity: card.Rarity,
			Image:  card.Image,
		}
		l.entries[key] = entry
	}
	entry.Count++
}

// Owned returns the number of unique identities in the ledger.
func (l *Ledger) Owned() int {
	return len(l.entries)
}

// Count returns the recorded count for an identity key, zero if unowned.
func (l *Ledger) Count(key string) int {
	if entry, ok := l.entries[key]; ok {
		return entry.Count
	}
	return 0
}

// Query returns the ledger's entries, optionally filtered to one rarity,
// ordered by the numeric-then-alphabetic sort key of their numbers.
// Entries whose number has no numeric prefix are placed after all
// well-formed entries (stable among themselves by raw number) and reported
// through the returned MalformedCardNumberError; the sort never fails.
func (l *Ledger) Query(rarity string) ([]Entry, *MalformedCardNumberError) {
	entries := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if rarity != "" && entry.Rarity != rarity {
			continue
		}
		entries = append(entries, *entry)
	}

	var malformed []string
	keys := make(map[string]sortKey, len(entries))
	for _, entry := range entries {
		key := parseSortKey(entry.Number)
		keys[entry.Key()] = key
		if !key.ok {
			malformed = append(malformed, entry.Number)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := keys[entries[i].Key()], keys[entries[j].Key()]
		if a.ok && b.ok && a.num == b.num && a.suffix == b.suffix {
			return entries[i].Number < entries[j].Number
		}
		if !a.ok && !b.ok {
			return entries[i].Number < entries[j].Number
		}
		return a.less(b)
	})

	if len(malformed) > 0 {
		sort.Strings(malformed)
		return entries, &MalformedCardNumberError{Numbers: malformed}
	}
	return entries, nil
}

// CompletionRatio reports owned unique identities over total catalog cards,
// both restricted to the given rarities. An empty rarity set matches every
// card. When no catalog card matches, the result is the defined (0, 0)
// "no applicable cards" value, never a division.
func (l *Ledger) CompletionRatio(cards []catalog.Card, rarities map[string]bool) (owned, total int) {
	for _, card := range cards {
		if len(rarities) > 0 && !rarities[card.Rarity] {
			continue
		}
		total++
		if _, ok := l.entries[card.Key()]; ok {
			owned++
		}
	}
	return owned, total
}

// Snapshot returns the ledger's persisted shape: identity key to entry.
// The returned map shares no storage with the ledger.
func (l *Ledger) Snapshot() map[string]Entry {
	snap := make(map[string]Entry, len(l.entries))
	for key, entry := range l.entries {
		snap[key] = *entry
	}
	return snap
}

// Restore replaces the ledger's contents with a previously persisted
// snapshot.
func (l *Ledger) Restore(snap map[string]Entry) {
	l.entries = make(map[string]*Entry, len(snap))
	for key, entry := range snap {
		e := entry
		l.entries[key] = &e
	}
}

// Reset clears the ledger to its empty initial shape.
func (l *Ledger) Reset() {
	l.entries = make(map[string]*Entry)
}
