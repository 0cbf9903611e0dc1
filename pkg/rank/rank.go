package rank

import "fmt"

// MaxIndex is the highest reachable rank index within a season.
const MaxIndex = 50

// ranksPerTier groups five consecutive rank indexes into one display tier.
const ranksPerTier = 5

var levelNumerals = [ranksPerTier]string{"V", "IV", "III", "II", "I"}

// Rank is a derived view of a rank index: the index itself plus its
// display tier/level grouping and the tap threshold that unlocks it.
// It is never stored independently; it is recomputed from taps and
// prestige count via Curve.
type Rank struct {
	Index     int     `json:"index"`
	Tier      int     `json:"tier"`
	Level     int     `json:"level"`
	Threshold float64 `json:"threshold"`
}

// TierLevel maps a rank index to its display tier and level within the tier.
func TierLevel(index int) (tier, level int) {
	index = clampIndex(index)
	tier = ((index - 1) / ranksPerTier) + 1
	level = ((index - 1) % ranksPerTier) + 1
	return tier, level
}

// Index reconstructs a rank index from a tier/level pair.
func Index(tier, level int) int {
	return ((tier - 1) * ranksPerTier) + level
}

// DisplayName returns the human-readable rank name, e.g. "Tier 3 IV".
func (r Rank) DisplayName() string {
	return fmt.Sprintf("Tier %d %s", r.Tier, r.LevelNumeral())
}

// ShortName returns the compact rank name, e.g. "T3-IV".
func (r Rank) ShortName() string {
	return fmt.Sprintf("T%d-%s", r.Tier, r.LevelNumeral())
}

// LevelNumeral returns the roman numeral for the level within a tier
// (level 1 is "V", level 5 is "I").
func (r Rank) LevelNumeral() string {
	if r.Level < 1 || r.Level > ranksPerTier {
		return ""
	}
	return levelNumerals[r.Level-1]
}

func clampIndex(index int) int {
	if index < 1 {
		return 1
	}
	if index > MaxIndex {
		return MaxIndex
	}
	return index
}
