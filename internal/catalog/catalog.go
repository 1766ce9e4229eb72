// Package catalog defines the card catalog for a loaded set and the
// rarity pool index derived from it.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
)

// Card is an immutable catalog entry. Identity is Name+Number; all other
// comparisons (sorting, pool membership) go through Rarity and Number.
type Card struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Rarity string `json:"rarity"`
	Image  string `json:"image"`
}

// Key returns the identity key used for collection accounting and
// in-pack uniqueness checks.
func (c Card) Key() string {
	return c.Name + c.Number
}

// Catalog holds the full card list for one loaded set.
type Catalog struct {
	SetName string
	Cards   []Card
}

// Size returns the number of cards in the catalog.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Cards)
}

// InvalidCatalogShapeError reports a card record that is missing a required
// field. Index is the position of the offending record in the source data.
type InvalidCatalogShapeError struct {
	Index int
	Field string
}

func (e *InvalidCatalogShapeError) Error() string {
	return fmt.Sprintf("catalog card %d: missing required field %q", e.Index, e.Field)
}

// source mirrors the wire format: an object with a "data" array of card
// records and an optional set name.
type source struct {
	Set  string `json:"set"`
	Data []Card `json:"data"`
}

// Parse decodes and validates a catalog from its JSON source format.
// Every card must carry all four fields; the first violation aborts the
// parse with an InvalidCatalogShapeError naming the record and field.
func Parse(r io.Reader) (*Catalog, error) {
	var src source
	if err := json.NewDecoder(r).Decode(&src); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i, card := range src.Data {
		if field := missingField(card); field != "" {
			return nil, &InvalidCatalogShapeError{Index: i, Field: field}
		}
	}

	return &Catalog{SetName: src.Set, Cards: src.Data}, nil
}

func missingField(c Card) string {
	switch {
	case c.Name == "":
		return "name"
	case c.Number == "":
		return "number"
	case c.Rarity == "":
		return "rarity"
	case c.Image == "":
		return "image"
	}
	return ""
}
