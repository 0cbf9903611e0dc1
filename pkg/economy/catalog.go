package economy

import (
	"math"

	"github.com/sirupsen/logrus"
)

// ItemKind discriminates what a shop item upgrades when purchased.
type ItemKind string

const (
	// KindClickMultiplier raises the per-tap value. Level floor is 1.
	KindClickMultiplier ItemKind = "click_multiplier"
	// KindOfflineMultiplier raises the offline earning rate. Level floor is 1.
	KindOfflineMultiplier ItemKind = "offline_multiplier"
	// KindAutoTapper adds passive taps per second. Count-type, floor 0.
	KindAutoTapper ItemKind = "auto_tapper"
	// KindBoostConsumable adds one charge of a boost type to the
	// player's inventory instead of raising a level.
	KindBoostConsumable ItemKind = "boost_consumable"
)

// Item is one purchasable shop entry. Pricing and effects are data, not
// code: the catalog ships as configuration so tuning changes never need
// a client release.
type Item struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Kind           ItemKind `yaml:"kind" json:"kind"`
	BasePrice      float64  `yaml:"basePrice" json:"basePrice"`
	PriceGrowth    float64  `yaml:"priceGrowth" json:"priceGrowth"`
	MaxLevel       int      `yaml:"maxLevel" json:"maxLevel"`
	EffectPerLevel float64  `yaml:"effectPerLevel" json:"effectPerLevel"`
	// BoostType names the boost variant a consumable pack grants.
	// Only set for KindBoostConsumable.
	BoostType string `yaml:"boostType,omitempty" json:"boostType,omitempty"`
}

// Price returns the cost of moving from currentLevel to currentLevel+1.
// The exponent uses the current level, so the first purchase of a
// level-1 upgrade already carries one growth step; consumable packs use
// PriceGrowth 1 and stay flat.
func (i Item) Price(currentLevel int) float64 {
	if currentLevel < 0 {
		currentLevel = 0
	}
	return i.BasePrice * math.Pow(i.PriceGrowth, float64(currentLevel))
}

// Effect returns the cumulative multiplier the item grants at a level.
func (i Item) Effect(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1.0 + i.EffectPerLevel*float64(level-1)
}

// LevelFloor is the level an upgrade resets to on prestige: 1 for
// multiplier-type upgrades, 0 for count-type ones.
func (i Item) LevelFloor() int {
	if i.Kind == KindAutoTapper || i.Kind == KindBoostConsumable {
		return 0
	}
	return 1
}

// Reference shop item ids.
const (
	ItemClickMultiplier   = "click_multiplier"
	ItemOfflineMultiplier = "offline_multiplier"
	ItemAutoTapper        = "auto_tapper"
	ItemOverclockPack     = "overclock_pack"
)

// Catalog is the full set of purchasable items, keyed by id.
type Catalog struct {
	items map[string]Item
	order []string
}

// NewCatalog builds a catalog, dropping entries whose tuning is
// unusable (non-positive price or growth) so corrupt config cannot
// produce free or negatively-priced purchases.
func NewCatalog(items []Item) *Catalog {
	c := &Catalog{items: make(map[string]Item, len(items))}
	for _, item := range items {
		if item.ID == "" || item.BasePrice <= 0 || item.PriceGrowth <= 0 || item.MaxLevel < 1 {
			logrus.Warnf("dropping malformed shop item %q", item.ID)
			continue
		}
		if _, dup := c.items[item.ID]; dup {
			logrus.Warnf("dropping duplicate shop item %q", item.ID)
			continue
		}
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
	}
	return c
}

// Get looks an item up by id.
func (c *Catalog) Get(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items lists catalog entries in their configured order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// DefaultCatalog mirrors the reference shop tuning.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Item{
		{ID: ItemClickMultiplier, Name: "Click Power", Kind: KindClickMultiplier,
			BasePrice: 50, PriceGrowth: 2.0, MaxLevel: 100, EffectPerLevel: 0.10},
		{ID: ItemOfflineMultiplier, Name: "Offline Earnings", Kind: KindOfflineMultiplier,
			BasePrice: 100, PriceGrowth: 2.2, MaxLevel: 50, EffectPerLevel: 0.20},
		{ID: ItemAutoTapper, Name: "Auto Tapper", Kind: KindAutoTapper,
			BasePrice: 200, PriceGrowth: 1.8, MaxLevel: 50, EffectPerLevel: 1.0},
		{ID: ItemOverclockPack, Name: "Overclock Pack", Kind: KindBoostConsumable,
			BasePrice: 500, PriceGrowth: 1.0, MaxLevel: 99, EffectPerLevel: 5.0, BoostType: "overclock"},
	})
}
