package pack

import (
	"errors"
	"math/rand"
	"time"

	"github.com/boosterlab/packsim/internal/catalog"
)

// ErrEmptyCatalog is returned when a pack is requested before any catalog
// has been loaded.
var ErrEmptyCatalog = errors.New("pack: no catalog loaded")

// Pull is one drawn card annotated with the template slot it came from.
// Downstream renderers use the slot index to decide hit-slot treatment.
type Pull struct {
	Card catalog.Card
	Slot int
}

// Generator draws packs from a catalog using a single shared random source,
// so that seeding the source makes whole packs reproducible.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator around the given random source.
// A nil source gets a time-seeded one.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Open draws one pack according to the template. It returns one Pull per
// slot, in slot order. Under the uniqueness policy a slot whose candidate
// pool is exhausted by the exclusion set is skipped: the returned pack is
// shorter and the missing slot index simply does not appear. Without
// uniqueness the pack always has exactly len(tmpl.Slots) cards.
func (g *Generator) Open(cat *catalog.Catalog, pools catalog.Pools, tmpl Template) ([]Pull, error) {
	if cat.Size() == 0 {
		return nil, ErrEmptyCatalog
	}

	var drawn map[string]bool
	if tmpl.UniquePulls {
		drawn = make(map[string]bool, len(tmpl.Slots))
	}

	pulls := make([]Pull, 0, len(tmpl.Slots))
	for i, slot := range tmpl.Slots {
		var card catalog.Card
		var ok bool
		if slot.Fixed() {
			card, ok = g.drawFixed(cat, pools, slot.Rarity, drawn)
		} else {
			card, ok = g.drawWeighted(cat, pools, slot.Table, drawn)
		}
		if !ok {
			// Exhausted under the uniqueness policy: skip the slot
			// rather than relax the exclusion set.
			continue
		}
		if drawn != nil {
			drawn[card.Key()] = true
		}
		pulls = append(pulls, Pull{Card: card, Slot: i})
	}

	return pulls, nil
}

// drawFixed draws uniformly from the rarity's pool, falling back to the
// whole catalog when the pool is empty.
func (g *Generator) drawFixed(cat *catalog.Catalog, pools catalog.Pools, rarity string, drawn map[string]bool) (catalog.Card, bool) {
	if card, ok := g.uniform(pools[rarity], drawn); ok {
		return card, true
	}
	return g.uniform(cat.Cards, drawn)
}

// drawWeighted selects a rarity from the pull table, excluding entries whose
// pool is empty under the current exclusion set, then draws uniformly from
// the selected pool. An empty filtered table or a zero total weight falls
// back to a uniform draw over the whole catalog.
func (g *Generator) drawWeighted(cat *catalog.Catalog, pools catalog.Pools, table []TableEntry, drawn map[string]bool) (catalog.Card, bool) {
	eligible := make([]TableEntry, 0, len(table))
	total := 0.0
	for _, entry := range table {
		if !hasEligible(pools[entry.Rarity], drawn) {
			continue
		}
		eligible = append(eligible, entry)
		total += entry.Weight
	}

	if len(eligible) == 0 || total <= 0 {
		return g.uniform(cat.Cards, drawn)
	}

	// Weighted roll: uniform in [0, total), subtract weights in table
	// order, strict less-than decides. Table order is significant only at
	// floating-point boundaries and must stay stable for seeded tests.
	roll := g.rng.Float64() * total
	rarity := eligible[len(eligible)-1].Rarity
	for _, entry := range eligible {
		if roll < entry.Weight {
			rarity = entry.Rarity
			break
		}
		roll -= entry.Weight
	}

	if card, ok := g.uniform(pools[rarity], drawn); ok {
		return card, true
	}
	return g.uniform(cat.Cards, drawn)
}

// uniform draws uniformly from the cards not yet excluded. Reports false
// when the filtered pool is empty.
func (g *Generator) uniform(cards []catalog.Card, drawn map[string]bool) (catalog.Card, bool) {
	if len(drawn) == 0 {
		if len(cards) == 0 {
			return catalog.Card{}, false
		}
		return cards[g.rng.Intn(len(cards))], true
	}

	eligible := make([]catalog.Card, 0, len(cards))
	for _, card := range cards {
		if !drawn[card.Key()] {
			eligible = append(eligible, card)
		}
	}
	if len(eligible) == 0 {
		return catalog.Card{}, false
	}
	return eligible[g.rng.Intn(len(eligible))], true
}

// hasEligible reports whether any card in the pool survives the exclusion
// set.
func hasEligible(cards []catalog.Card, drawn map[string]bool) bool {
	if len(drawn) == 0 {
		return len(cards) > 0
	}
	for _, card := range cards {
		if !drawn[card.Key()] {
			return true
		}
	}
	return false
}
