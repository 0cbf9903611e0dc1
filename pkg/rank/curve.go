package rank

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Default curve coefficients. These are the reference tuning values;
// live deployments override them per season via remote configuration.
const (
	DefaultBaseThreshold    = 500.0
	DefaultGrowthBase       = 1.22
	DefaultPrestigeEase     = 0.92
	DefaultRankBonusPerRank = 0.02
	DefaultPrestigeGrowth   = 1.35
)

// Coefficients tune the rank threshold curve and the season multiplier
// for one season. Immutable within a season.
type Coefficients struct {
	// BaseThreshold is the taps needed to reach rank 2.
	BaseThreshold float64 `yaml:"baseThreshold" json:"baseThreshold"`
	// GrowthBase is the per-rank exponential growth factor. Must be > 1.
	GrowthBase float64 `yaml:"growthBase" json:"growthBase"`
	// PrestigeEase lowers every threshold by this factor per prestige,
	// making each re-climb faster. Must be in (0, 1].
	PrestigeEase float64 `yaml:"prestigeEase" json:"prestigeEase"`
	// RankBonusPerRank is the additive season-multiplier bonus per rank
	// above 1.
	RankBonusPerRank float64 `yaml:"rankBonusPerRank" json:"rankBonusPerRank"`
	// PrestigeGrowth is the multiplicative season-multiplier growth per
	// prestige. Must be >= 1 for prestige to ever be worth taking.
	PrestigeGrowth float64 `yaml:"prestigeGrowth" json:"prestigeGrowth"`
}

// DefaultCoefficients returns the reference curve tuning.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		BaseThreshold:    DefaultBaseThreshold,
		GrowthBase:       DefaultGrowthBase,
		PrestigeEase:     DefaultPrestigeEase,
		RankBonusPerRank: DefaultRankBonusPerRank,
		PrestigeGrowth:   DefaultPrestigeGrowth,
	}
}

// Sanitize replaces out-of-range coefficients with the defaults. A bad
// remote config must never brick the game loop, so malformed values are
// clamped here rather than rejected upstream.
func (c Coefficients) Sanitize() Coefficients {
	if c.BaseThreshold <= 0 {
		logrus.Warnf("invalid baseThreshold %v, using default %v", c.BaseThreshold, DefaultBaseThreshold)
		c.BaseThreshold = DefaultBaseThreshold
	}
	if c.GrowthBase <= 1 {
		logrus.Warnf("invalid growthBase %v, using default %v", c.GrowthBase, DefaultGrowthBase)
		c.GrowthBase = DefaultGrowthBase
	}
	if c.PrestigeEase <= 0 || c.PrestigeEase > 1 {
		logrus.Warnf("invalid prestigeEase %v, using default %v", c.PrestigeEase, DefaultPrestigeEase)
		c.PrestigeEase = DefaultPrestigeEase
	}
	if c.RankBonusPerRank < 0 {
		logrus.Warnf("invalid rankBonusPerRank %v, using default %v", c.RankBonusPerRank, DefaultRankBonusPerRank)
		c.RankBonusPerRank = DefaultRankBonusPerRank
	}
	if c.PrestigeGrowth < 1 {
		logrus.Warnf("invalid prestigeGrowth %v, using default %v", c.PrestigeGrowth, DefaultPrestigeGrowth)
		c.PrestigeGrowth = DefaultPrestigeGrowth
	}
	return c
}

// Curve maps rank indexes to tap thresholds for a fixed coefficient set.
// All methods are pure; a Curve is safe for concurrent use.
type Curve struct {
	coeffs Coefficients
}

// NewCurve builds a curve for the given coefficients, sanitizing them
// first.
func NewCurve(coeffs Coefficients) *Curve {
	return &Curve{coeffs: coeffs.Sanitize()}
}

// Coefficients returns the sanitized coefficient set the curve was
// built with.
func (c *Curve) Coefficients() Coefficients {
	return c.coeffs
}

// Threshold returns the taps needed to hold the given rank index at the
// given prestige count. The index is clamped to [1, MaxIndex].
func (c *Curve) Threshold(index, prestigeCount int) float64 {
	index = clampIndex(index)
	base := c.coeffs.BaseThreshold * math.Pow(c.coeffs.GrowthBase, float64(index-1))
	if prestigeCount > 0 {
		base *= math.Pow(c.coeffs.PrestigeEase, float64(prestigeCount))
	}
	return base
}

// At returns the full Rank view for an index.
func (c *Curve) At(index, prestigeCount int) Rank {
	index = clampIndex(index)
	tier, level := TierLevel(index)
	return Rank{
		Index:     index,
		Tier:      tier,
		Level:     level,
		Threshold: c.Threshold(index, prestigeCount),
	}
}

// CurrentRank returns the highest rank whose threshold the given tap
// total has reached. Rank 1 is the floor regardless of taps.
func (c *Curve) CurrentRank(taps float64, prestigeCount int) Rank {
	for index := MaxIndex; index > 1; index-- {
		if taps >= c.Threshold(index, prestigeCount) {
			return c.At(index, prestigeCount)
		}
	}
	return c.At(1, prestigeCount)
}

// Progress returns the fraction, in [0,1], of the way from the current
// rank's threshold to the next one. At the rank cap, or whenever the
// span is not positive, it returns 1.
func (c *Curve) Progress(taps float64, currentIndex, prestigeCount int) float64 {
	currentIndex = clampIndex(currentIndex)

	var lower float64
	if currentIndex > 1 {
		lower = c.Threshold(currentIndex, prestigeCount)
	}
	upper := c.Threshold(MaxIndex, prestigeCount)
	if currentIndex < MaxIndex {
		upper = c.Threshold(currentIndex+1, prestigeCount)
	}

	span := upper - lower
	if span <= 0 {
		return 1.0
	}
	p := (taps - lower) / span
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1.0
	}
	return p
}

// SeasonBaseMultiplier is the persistent tap multiplier earned from rank
// progression and prestige count. Recomputed on every rank-up and
// prestige, then stored on the player state.
func (c *Curve) SeasonBaseMultiplier(rankIndex, prestigeCount int) float64 {
	rankBonus := 1.0 + float64(clampIndex(rankIndex)-1)*c.coeffs.RankBonusPerRank
	prestigeBonus := 1.0
	if prestigeCount > 0 {
		prestigeBonus = math.Pow(c.coeffs.PrestigeGrowth, float64(prestigeCount))
	}
	return rankBonus * prestigeBonus
}

// ProjectedMultiplier is the season multiplier a player would hold
// immediately after taking one more prestige.
func (c *Curve) ProjectedMultiplier(currentPrestigeCount int) float64 {
	return c.SeasonBaseMultiplier(1, currentPrestigeCount+1)
}

// AllRanks lists every rank for display purposes.
func (c *Curve) AllRanks(prestigeCount int) []Rank {
	ranks := make([]Rank, 0, MaxIndex)
	for i := 1; i <= MaxIndex; i++ {
		ranks = append(ranks, c.At(i, prestigeCount))
	}
	return ranks
}
