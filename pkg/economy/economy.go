package economy

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/pkg/rank"
)

// Default economy tuning. Overridable per season via remote config.
const (
	DefaultBaseTap              = 1.0
	DefaultClickBonusPerLevel   = 0.10
	DefaultOfflineBonusPerLevel = 0.20
	DefaultBaseOfflineRate      = 10.0
	DefaultOfflineCapHours      = 8.0
	DefaultMilestoneCoinsBase   = 10.0
	DefaultRankUpCoinsBase      = 50.0
)

// Config carries the economy constants for one season.
type Config struct {
	BaseTap              float64 `yaml:"baseTap" json:"baseTap"`
	ClickBonusPerLevel   float64 `yaml:"clickBonusPerLevel" json:"clickBonusPerLevel"`
	OfflineBonusPerLevel float64 `yaml:"offlineBonusPerLevel" json:"offlineBonusPerLevel"`
	BaseOfflineRate      float64 `yaml:"baseOfflineRate" json:"baseOfflineRate"`
	OfflineCapHours      float64 `yaml:"offlineCapHours" json:"offlineCapHours"`
	MilestoneCoinsBase   float64 `yaml:"milestoneCoinsBase" json:"milestoneCoinsBase"`
	RankUpCoinsBase      float64 `yaml:"rankUpCoinsBase" json:"rankUpCoinsBase"`
}

// DefaultConfig returns the reference economy tuning.
func DefaultConfig() Config {
	return Config{
		BaseTap:              DefaultBaseTap,
		ClickBonusPerLevel:   DefaultClickBonusPerLevel,
		OfflineBonusPerLevel: DefaultOfflineBonusPerLevel,
		BaseOfflineRate:      DefaultBaseOfflineRate,
		OfflineCapHours:      DefaultOfflineCapHours,
		MilestoneCoinsBase:   DefaultMilestoneCoinsBase,
		RankUpCoinsBase:      DefaultRankUpCoinsBase,
	}
}

// Sanitize replaces non-positive constants with the defaults so a
// corrupt remote config cannot zero out the economy.
func (c Config) Sanitize() Config {
	d := DefaultConfig()
	if c.BaseTap <= 0 {
		logrus.Warnf("invalid baseTap %v, using default %v", c.BaseTap, d.BaseTap)
		c.BaseTap = d.BaseTap
	}
	if c.ClickBonusPerLevel < 0 {
		c.ClickBonusPerLevel = d.ClickBonusPerLevel
	}
	if c.OfflineBonusPerLevel < 0 {
		c.OfflineBonusPerLevel = d.OfflineBonusPerLevel
	}
	if c.BaseOfflineRate <= 0 {
		c.BaseOfflineRate = d.BaseOfflineRate
	}
	if c.OfflineCapHours <= 0 {
		c.OfflineCapHours = d.OfflineCapHours
	}
	if c.MilestoneCoinsBase < 0 {
		c.MilestoneCoinsBase = d.MilestoneCoinsBase
	}
	if c.RankUpCoinsBase < 0 {
		c.RankUpCoinsBase = d.RankUpCoinsBase
	}
	return c
}

// Rules computes every coin- and tap-valued outcome in the game. All
// methods are pure functions of their inputs plus the season config.
type Rules struct {
	cfg     Config
	catalog *Catalog
}

// NewRules builds the rule set for one season.
func NewRules(cfg Config, catalog *Catalog) *Rules {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Rules{cfg: cfg.Sanitize(), catalog: catalog}
}

// Config returns the sanitized economy constants.
func (r *Rules) Config() Config {
	return r.cfg
}

// Catalog returns the shop catalog in effect.
func (r *Rules) Catalog() *Catalog {
	return r.catalog
}

// TapValue is the taps credited for one physical tap:
// base x click-upgrade x season multiplier x active-boost multiplier.
func (r *Rules) TapValue(clickLevel int, seasonMultiplier, boostMultiplier float64) float64 {
	if clickLevel < 1 {
		clickLevel = 1
	}
	clickBonus := 1.0 + r.cfg.ClickBonusPerLevel*float64(clickLevel-1)
	return r.cfg.BaseTap * clickBonus * seasonMultiplier * boostMultiplier
}

// OfflineResult is the outcome of an offline-earnings accrual.
type OfflineResult struct {
	// Coins is the base award. Doubling via a rewarded ad is applied by
	// the caller at claim time, never here.
	Coins         float64       `json:"coins"`
	CappedElapsed time.Duration `json:"cappedElapsedSeconds"`
	WasAtCap      bool          `json:"wasAtCap"`
}

// Doubled returns the award after a rewarded-ad doubling.
func (o OfflineResult) Doubled() float64 {
	return o.Coins * 2
}

// OfflineEarnings accrues coins for the time between lastActiveAt and
// now, capped at OfflineCapHours.
func (r *Rules) OfflineEarnings(lastActiveAt, now time.Time, offlineLevel int, seasonMultiplier float64) OfflineResult {
	elapsed := now.Sub(lastActiveAt)
	if elapsed < 0 {
		elapsed = 0
	}
	capDur := time.Duration(r.cfg.OfflineCapHours * float64(time.Hour))
	capped := elapsed
	if capped > capDur {
		capped = capDur
	}

	if offlineLevel < 1 {
		offlineLevel = 1
	}
	offlineBonus := 1.0 + r.cfg.OfflineBonusPerLevel*float64(offlineLevel-1)
	rate := r.cfg.BaseOfflineRate * offlineBonus * seasonMultiplier

	return OfflineResult{
		Coins:         rate * capped.Hours(),
		CappedElapsed: capped,
		WasAtCap:      elapsed >= capDur,
	}
}

// PurchaseResult reports a successful upgrade purchase.
type PurchaseResult struct {
	Item           Item    `json:"item"`
	NewLevel       int     `json:"newLevel"`
	PricePaid      float64 `json:"pricePaid"`
	RemainingCoins float64 `json:"remainingCoins"`
}

// Price returns the cost of the next level of an item.
func (r *Rules) Price(itemID string, currentLevel int) (float64, error) {
	item, ok := r.catalog.Get(itemID)
	if !ok {
		return 0, ErrUnknownItem
	}
	return item.Price(currentLevel), nil
}

// CanAfford reports whether a balance covers the next level of an item.
func (r *Rules) CanAfford(itemID string, currentLevel int, coins float64) bool {
	price, err := r.Price(itemID, currentLevel)
	return err == nil && coins >= price
}

// Purchase validates and prices an upgrade purchase. The price check
// and balance deduction happen in one step against the same snapshot;
// the caller commits the returned level and balance together or not at
// all.
func (r *Rules) Purchase(itemID string, currentLevel int, coins float64) (PurchaseResult, error) {
	item, ok := r.catalog.Get(itemID)
	if !ok {
		return PurchaseResult{}, ErrUnknownItem
	}
	if currentLevel >= item.MaxLevel {
		return PurchaseResult{}, ErrMaxLevelReached
	}
	price := item.Price(currentLevel)
	if coins < price {
		return PurchaseResult{}, ErrInsufficientFunds
	}
	return PurchaseResult{
		Item:           item,
		NewLevel:       currentLevel + 1,
		PricePaid:      price,
		RemainingCoins: coins - price,
	}, nil
}

// CoinsForRankUp is the coin award for reaching a new rank index.
func (r *Rules) CoinsForRankUp(newRankIndex int) float64 {
	return r.cfg.RankUpCoinsBase * float64(newRankIndex)
}

// Milestone marks a fractional checkpoint inside the span to the next
// rank, awarded once when taps first cross its threshold.
type Milestone struct {
	Fraction  float64 `json:"fraction"`
	Threshold float64 `json:"threshold"`
	Coins     float64 `json:"coins"`
}

var milestoneFractions = []float64{0.25, 0.50, 0.75}

// Milestones lists the checkpoints between the current rank's threshold
// and the next one.
func (r *Rules) Milestones(curve *rank.Curve, currentIndex, prestigeCount int) []Milestone {
	if currentIndex >= rank.MaxIndex {
		return nil
	}
	var lower float64
	if currentIndex > 1 {
		lower = curve.Threshold(currentIndex, prestigeCount)
	}
	upper := curve.Threshold(currentIndex+1, prestigeCount)
	span := upper - lower
	if span <= 0 {
		return nil
	}

	out := make([]Milestone, 0, len(milestoneFractions))
	for _, f := range milestoneFractions {
		out = append(out, Milestone{
			Fraction:  f,
			Threshold: lower + span*f,
			Coins:     r.cfg.MilestoneCoinsBase * f * 2, // 5/10/15 at the default base of 10
		})
	}
	return out
}

// MilestonesCrossed returns the checkpoints whose thresholds lie in
// (tapsBefore, tapsAfter]. Crossing is detected by comparing before and
// after, never by equality, so a large tap value may cross several at
// once.
func (r *Rules) MilestonesCrossed(curve *rank.Curve, tapsBefore, tapsAfter float64, currentIndex, prestigeCount int) []Milestone {
	var crossed []Milestone
	for _, m := range r.Milestones(curve, currentIndex, prestigeCount) {
		if tapsBefore < m.Threshold && tapsAfter >= m.Threshold {
			crossed = append(crossed, m)
		}
	}
	return crossed
}
