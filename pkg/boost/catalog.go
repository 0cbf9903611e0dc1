package boost

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Type identifies one boost variant, e.g. "ad_rush".
type Type string

// Source discriminates how a boost activation is gated.
type Source string

const (
	// SourceRewardedAd boosts are granted by watching a rewarded ad.
	// The ad collaborator enforces the watch before activation is even
	// attempted; the engine only enforces the cooldown.
	SourceRewardedAd Source = "rewarded_ad"
	// SourceCoins boosts are consumable charges bought in the shop;
	// activation decrements inventory.
	SourceCoins Source = "coins"
	// SourceFree boosts have no gate beyond their cooldown.
	SourceFree Source = "free"
)

// Spec is the per-variant constant set: multiplier, duration, cooldown
// and gating source. Specs live in configuration, not in switch
// statements, so new boost variants are a tuning change.
type Spec struct {
	Type       Type          `yaml:"type" json:"type"`
	Name       string        `yaml:"name" json:"name"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
	Cooldown   time.Duration `yaml:"cooldown" json:"cooldown"`
	Source     Source        `yaml:"source" json:"source"`
	// PersistentCooldown marks variants whose cooldown must survive a
	// process restart; the controller records a last-used timestamp for
	// them.
	PersistentCooldown bool `yaml:"persistentCooldown" json:"persistentCooldown"`
}

// Instant reports whether the boost applies once rather than over a
// duration (e.g. the offline-earnings doubler).
func (s Spec) Instant() bool {
	return s.Duration == 0
}

// Catalog maps boost types to their specs.
type Catalog struct {
	specs map[Type]Spec
	order []Type
}

// NewCatalog builds a catalog, dropping specs whose tuning is unusable.
// A multiplier at or below zero would let a boost erase tap income, so
// such entries are discarded rather than clamped.
func NewCatalog(specs []Spec) *Catalog {
	c := &Catalog{specs: make(map[Type]Spec, len(specs))}
	for _, spec := range specs {
		if spec.Type == "" || spec.Multiplier <= 0 || spec.Duration < 0 || spec.Cooldown < 0 {
			logrus.Warnf("dropping malformed boost spec %q", spec.Type)
			continue
		}
		if _, dup := c.specs[spec.Type]; dup {
			logrus.Warnf("dropping duplicate boost spec %q", spec.Type)
			continue
		}
		c.specs[spec.Type] = spec
		c.order = append(c.order, spec.Type)
	}
	return c
}

// Get looks a spec up by type.
func (c *Catalog) Get(t Type) (Spec, bool) {
	spec, ok := c.specs[t]
	return spec, ok
}

// Specs lists the catalog in configured order.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.specs[t])
	}
	return out
}

// Reference boost types.
const (
	TypeAdRush         Type = "ad_rush"
	TypeOverclock      Type = "overclock"
	TypeOfflineDoubler Type = "offline_doubler"
)

// DefaultCatalog mirrors the reference boost tuning.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Spec{
		{Type: TypeAdRush, Name: "Ad Rush", Multiplier: 2.0,
			Duration: 30 * time.Second, Cooldown: 2 * time.Minute,
			Source: SourceRewardedAd, PersistentCooldown: true},
		{Type: TypeOverclock, Name: "Overclock", Multiplier: 5.0,
			Duration: 15 * time.Second, Cooldown: 5 * time.Minute,
			Source: SourceCoins, PersistentCooldown: true},
		{Type: TypeOfflineDoubler, Name: "Offline Doubler", Multiplier: 2.0,
			Duration: 0, Cooldown: 0, Source: SourceRewardedAd},
	})
}
