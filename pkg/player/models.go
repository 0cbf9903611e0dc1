package player

import (
	"time"

	"github.com/playforge/idle-season-service/pkg/boost"
)

// SeasonState is the mutable per-user, per-season progression record.
// It is owned by exactly one progression controller at a time and
// mutated by every player action. Taps, coins and rank index only ever
// decrease through prestige; prestige count never decreases at all.
type SeasonState struct {
	CurrentSeasonTaps    float64        `json:"currentSeasonTaps"`
	Coins                float64        `json:"coins"`
	UpgradeLevels        map[string]int `json:"upgradeLevels"`
	RankIndex            int            `json:"rankIndex"`
	PrestigeCount        int            `json:"prestigeCount"`
	SeasonBaseMultiplier float64        `json:"seasonBaseMultiplier"`
	LastActiveAt         time.Time      `json:"lastActiveAt"`

	// BoostInventory and BoostLastUsed survive restarts; live cooldown
	// expiries do not, so cooldowns are reconstructed from the last-used
	// timestamps at session start.
	BoostInventory map[boost.Type]int       `json:"boostInventory"`
	BoostLastUsed  map[boost.Type]time.Time `json:"boostLastUsed,omitempty"`

	// AdRewardLastUsed gates flat ad-reward claims per reward id.
	AdRewardLastUsed map[string]time.Time `json:"adRewardLastUsed,omitempty"`
}

// NewSeasonState is the state a player starts a season with.
func NewSeasonState(now time.Time) *SeasonState {
	return &SeasonState{
		RankIndex:            1,
		SeasonBaseMultiplier: 1.0,
		LastActiveAt:         now,
		UpgradeLevels:        make(map[string]int),
		BoostInventory:       make(map[boost.Type]int),
		BoostLastUsed:        make(map[boost.Type]time.Time),
		AdRewardLastUsed:     make(map[string]time.Time),
	}
}

// EnsureMaps re-initializes nil maps. JSON decoding drops omitempty
// fields that were empty at save time, so a reloaded state would
// otherwise panic on the first write into them.
func (s *SeasonState) EnsureMaps() {
	if s.UpgradeLevels == nil {
		s.UpgradeLevels = make(map[string]int)
	}
	if s.BoostInventory == nil {
		s.BoostInventory = make(map[boost.Type]int)
	}
	if s.BoostLastUsed == nil {
		s.BoostLastUsed = make(map[boost.Type]time.Time)
	}
	if s.AdRewardLastUsed == nil {
		s.AdRewardLastUsed = make(map[string]time.Time)
	}
}

// Level returns the player's level for an upgrade id, applying the
// given floor for upgrades never purchased.
func (s *SeasonState) Level(itemID string, floor int) int {
	if lvl, ok := s.UpgradeLevels[itemID]; ok && lvl >= floor {
		return lvl
	}
	return floor
}

// Clone deep-copies the state so a persistence snapshot cannot race
// with later mutations.
func (s *SeasonState) Clone() *SeasonState {
	out := *s
	out.UpgradeLevels = make(map[string]int, len(s.UpgradeLevels))
	for k, v := range s.UpgradeLevels {
		out.UpgradeLevels[k] = v
	}
	out.BoostInventory = make(map[boost.Type]int, len(s.BoostInventory))
	for k, v := range s.BoostInventory {
		out.BoostInventory[k] = v
	}
	out.BoostLastUsed = make(map[boost.Type]time.Time, len(s.BoostLastUsed))
	for k, v := range s.BoostLastUsed {
		out.BoostLastUsed[k] = v
	}
	out.AdRewardLastUsed = make(map[string]time.Time, len(s.AdRewardLastUsed))
	for k, v := range s.AdRewardLastUsed {
		out.AdRewardLastUsed[k] = v
	}
	return &out
}

// UserRecord is the cross-season record for one user. Season terminal
// values fold into it at rollover.
type UserRecord struct {
	DisplayName          string    `json:"displayName"`
	CreatedAt            time.Time `json:"createdAt"`
	LifetimeTaps         float64   `json:"lifetimeTaps"`
	LifetimeBestRank     int       `json:"lifetimeBestRankIndex"`
	LeaderboardOptIn     bool      `json:"leaderboardOptIn"`
	DailyRewardStreak    int       `json:"dailyRewardStreak"`
	DailyRewardClaimedAt time.Time `json:"dailyRewardClaimedAt,omitempty"`
	DailyRewardTotalDays int       `json:"dailyRewardTotalDays"`
}

// NewUserRecord is the record a user starts with.
func NewUserRecord(now time.Time) *UserRecord {
	return &UserRecord{
		CreatedAt:        now,
		LifetimeBestRank: 1,
	}
}

// SeasonHistory archives the terminal values of one finished season.
type SeasonHistory struct {
	SeasonID           string    `json:"seasonId"`
	SeasonName         string    `json:"seasonName"`
	FinalTaps          float64   `json:"finalTaps"`
	FinalRankIndex     int       `json:"finalRankIndex"`
	FinalPrestigeCount int       `json:"finalPrestigeCount"`
	EndedAt            time.Time `json:"endedAt"`
}
