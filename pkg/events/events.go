// Package events defines the signals the progression controller emits
// for UI, haptics, analytics and sync collaborators to consume. The
// controller never talks to those collaborators directly; it hands each
// event to a Sink and moves on.
package events

import (
	"time"

	"github.com/playforge/idle-season-service/pkg/boost"
	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/rank"
)

// Kind discriminates event payloads.
type Kind string

const (
	KindTap          Kind = "tap"
	KindRankUp       Kind = "rank_up"
	KindMilestone    Kind = "milestone"
	KindPrestige     Kind = "prestige"
	KindBoost        Kind = "boost_activated"
	KindPurchase     Kind = "purchase"
	KindOfflineClaim Kind = "offline_claim"
	KindSeasonEnd    Kind = "season_end"
	KindDailyReward  Kind = "daily_reward"
)

// Event is one state-change signal. Exactly one payload field matching
// the Kind is set.
type Event struct {
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"userId"`
	SeasonID  string    `json:"seasonId"`
	Timestamp time.Time `json:"timestamp"`

	Tap          *TapPayload          `json:"tap,omitempty"`
	RankUp       *RankUpPayload       `json:"rankUp,omitempty"`
	Milestone    *MilestonePayload    `json:"milestone,omitempty"`
	Prestige     *PrestigePayload     `json:"prestige,omitempty"`
	Boost        *BoostPayload        `json:"boost,omitempty"`
	Purchase     *PurchasePayload     `json:"purchase,omitempty"`
	OfflineClaim *OfflineClaimPayload `json:"offlineClaim,omitempty"`
	SeasonEnd    *SeasonEndPayload    `json:"seasonEnd,omitempty"`
	DailyReward  *DailyRewardPayload  `json:"dailyReward,omitempty"`
}

// TapPayload reports a tap that did not change rank.
type TapPayload struct {
	Value     float64 `json:"value"`
	TotalTaps float64 `json:"totalTaps"`
}

// RankUpPayload reports a rank change, carrying the full new rank so
// consumers need no further lookup.
type RankUpPayload struct {
	NewRank       rank.Rank `json:"newRank"`
	PreviousIndex int       `json:"previousIndex"`
	CoinsAwarded  float64   `json:"coinsAwarded"`
	NewMultiplier float64   `json:"newMultiplier"`
}

// MilestonePayload reports a crossed progress checkpoint.
type MilestonePayload struct {
	Milestone    economy.Milestone `json:"milestone"`
	CoinsAwarded float64           `json:"coinsAwarded"`
}

// PrestigePayload reports a voluntary season reset.
type PrestigePayload struct {
	NewPrestigeCount int     `json:"newPrestigeCount"`
	NewMultiplier    float64 `json:"newMultiplier"`
}

// BoostPayload reports a boost activation.
type BoostPayload struct {
	Boost boost.ActiveBoost `json:"boost"`
}

// PurchasePayload reports a successful shop purchase.
type PurchasePayload struct {
	ItemID         string  `json:"itemId"`
	NewLevel       int     `json:"newLevel"`
	PricePaid      float64 `json:"pricePaid"`
	RemainingCoins float64 `json:"remainingCoins"`
}

// OfflineClaimPayload reports a claimed offline-earnings award.
type OfflineClaimPayload struct {
	Coins   float64 `json:"coins"`
	Doubled bool    `json:"doubled"`
}

// SeasonEndPayload reports a season rollover.
type SeasonEndPayload struct {
	SeasonID       string  `json:"seasonId"`
	FinalTaps      float64 `json:"finalTaps"`
	FinalRankIndex int     `json:"finalRankIndex"`
}

// DailyRewardPayload reports a claimed daily streak reward.
type DailyRewardPayload struct {
	Day    int     `json:"day"`
	Streak int     `json:"streak"`
	Coins  float64 `json:"coins,omitempty"`
	Boost  string  `json:"boost,omitempty"`
}

// Sink receives controller events. Implementations must not block; the
// controller emits synchronously inside its critical section.
type Sink interface {
	Emit(ev Event)
}
