package catalog

// Pools maps a rarity label to the ordered list of catalog cards of that
// rarity. It is derived from a catalog and rebuilt wholesale on every load;
// pools from a previously loaded set must never leak into a new one.
type Pools map[string][]Card

// BuildPools partitions the catalog by rarity, preserving encounter order
// within each partition. An empty catalog yields an empty (non-nil) map.
func BuildPools(cards []Card) Pools {
	pools := make(Pools)
	for _, card := range cards {
		pools[card.Rarity] = append(pools[card.Rarity], card)
	}
	return pools
}

// Rarities returns the rarity labels present in the pool index, in no
// particular order.
func (p Pools) Rarities() []string {
	labels := make([]string, 0, len(p))
	for rarity := range p {
		labels = append(labels, rarity)
	}
	return labels
}
