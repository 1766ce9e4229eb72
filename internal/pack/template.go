// Package pack implements booster pack generation: slot templates and the
// rarity-weighted sampling engine that draws cards from a catalog.
package pack

import "fmt"

// Common rarity labels used by the built-in templates. Catalogs may carry
// any label; these are only referenced by the preset slot tables.
const (
	RarityCommon       = "Common"
	RarityUncommon     = "Uncommon"
	RarityRare         = "Rare"
	RarityDoubleRare   = "Double Rare"
	RarityIllustration = "Illustration Rare"
	RaritySpecialIllus = "Special Illustration Rare"
	RarityHyper        = "Hyper Rare"
)

// TableEntry is one row of a weighted slot's pull table: a rarity and its
// un-normalized relative weight.
type TableEntry struct {
	Rarity string  `toml:"rarity"`
	Weight float64 `toml:"weight"`
}

// Slot describes one position in a pack template. Exactly one of Rarity or
// Table is set: a fixed-rarity slot draws uniformly from a single rarity
// pool, a weighted slot first selects a rarity from its pull table.
type Slot struct {
	Rarity string       `toml:"rarity,omitempty"`
	Table  []TableEntry `toml:"table,omitempty"`
}

// Fixed reports whether the slot is a fixed-rarity slot.
func (s Slot) Fixed() bool {
	return len(s.Table) == 0
}

// Template is a declarative pack configuration: an ordered list of slots
// and the uniqueness policy applied across one pack-opening.
type Template struct {
	Name        string `toml:"name"`
	Slots       []Slot `toml:"slots"`
	UniquePulls bool   `toml:"unique_pulls"`
}

// Size returns the number of slots in the template.
func (t Template) Size() int {
	return len(t.Slots)
}

// hitTable is the weighted table shared by the late "hit" slots of both
// presets. Table order matters for the floating-point boundary case of the
// roll, so keep entries ordered from most to least likely.
func hitTable() []TableEntry {
	return []TableEntry{
		{Rarity: RarityCommon, Weight: 55},
		{Rarity: RarityUncommon, Weight: 32},
		{Rarity: RarityRare, Weight: 11},
		{Rarity: RarityDoubleRare, Weight: 5},
		{Rarity: RarityIllustration, Weight: 1.5},
		{Rarity: RaritySpecialIllus, Weight: 0.4},
		{Rarity: RarityHyper, Weight: 0.1},
	}
}

// Classic returns the original ten-slot template: seven guaranteed commons
// followed by three weighted hit slots.
func Classic() Template {
	slots := make([]Slot, 0, 10)
	for i := 0; i < 7; i++ {
		slots = append(slots, Slot{Rarity: RarityCommon})
	}
	for i := 0; i < 3; i++ {
		slots = append(slots, Slot{Table: hitTable()})
	}
	return Template{Name: "classic", Slots: slots}
}

// Modern returns the 4+3+3 template: four guaranteed commons, three
// guaranteed uncommons, three weighted hit slots, with in-pack uniqueness.
func Modern() Template {
	slots := make([]Slot, 0, 10)
	for i := 0; i < 4; i++ {
		slots = append(slots, Slot{Rarity: RarityCommon})
	}
	for i := 0; i < 3; i++ {
		slots = append(slots, Slot{Rarity: RarityUncommon})
	}
	for i := 0; i < 3; i++ {
		slots = append(slots, Slot{Table: hitTable()})
	}
	return Template{Name: "modern", Slots: slots, UniquePulls: true}
}

// Lookup resolves a built-in template by name.
func Lookup(name string) (Template, error) {
	switch name {
	case "classic":
		return Classic(), nil
	case "modern":
		return Modern(), nil
	default:
		return Template{}, fmt.Errorf("unknown pack template: %q", name)
	}
}

// Validate checks that a template is well-formed: at least one slot, every
// slot either fixed or weighted, and no negative weights.
func (t Template) Validate() error {
	if len(t.Slots) == 0 {
		return fmt.Errorf("template %q has no slots", t.Name)
	}
	for i, slot := range t.Slots {
		if slot.Rarity == "" && len(slot.Table) == 0 {
			return fmt.Errorf("template %q slot %d: neither rarity nor table set", t.Name, i)
		}
		if slot.Rarity != "" && len(slot.Table) > 0 {
			return fmt.Errorf("template %q slot %d: both rarity and table set", t.Name, i)
		}
		for j, entry := range slot.Table {
			if entry.Weight < 0 {
				return fmt.Errorf("template %q slot %d entry %d: negative weight %v", t.Name, i, j, entry.Weight)
			}
			if entry.Rarity == "" {
				return fmt.Errorf("template %q slot %d entry %d: empty rarity", t.Name, i, j)
			}
		}
	}
	return nil
}
