// Package dailyreward implements the login streak table. One claim per
// UTC calendar day; claiming on consecutive days advances the streak,
// a missed day resets it to one. The table cycles past day seven.
package dailyreward

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/pkg/boost"
)

// ErrAlreadyClaimed is returned for a second claim on the same day.
var ErrAlreadyClaimed = errors.New("daily reward already claimed today")

// Reward is one day's grant: coins, boost charges, or both.
type Reward struct {
	Day          int        `yaml:"day" json:"day"`
	Coins        float64    `yaml:"coins" json:"coins"`
	BoostType    boost.Type `yaml:"boostType,omitempty" json:"boostType,omitempty"`
	BoostCharges int        `yaml:"boostCharges,omitempty" json:"boostCharges,omitempty"`
}

// Table is the streak reward schedule, indexed by day 1..len.
type Table struct {
	rewards []Reward
}

// NewTable builds a table from per-day rewards, ordered by their Day
// field. Days must be contiguous from 1; a malformed schedule falls
// back to the default so a corrupt config cannot silence the reward
// loop.
func NewTable(rewards []Reward) *Table {
	byDay := make(map[int]Reward, len(rewards))
	for _, r := range rewards {
		byDay[r.Day] = r
	}
	ordered := make([]Reward, 0, len(byDay))
	for day := 1; day <= len(byDay); day++ {
		r, ok := byDay[day]
		if !ok {
			logrus.Warnf("daily reward schedule missing day %d, using default table", day)
			return DefaultTable()
		}
		ordered = append(ordered, r)
	}
	if len(ordered) == 0 {
		return DefaultTable()
	}
	return &Table{rewards: ordered}
}

// Days is the cycle length.
func (t *Table) Days() int {
	return len(t.rewards)
}

// Reward returns the grant for a streak value, cycling past the table
// length so long streaks keep paying day-7-grade rewards weekly.
func (t *Table) Reward(streak int) Reward {
	if streak < 1 {
		streak = 1
	}
	return t.rewards[(streak-1)%len(t.rewards)]
}

// Rewards lists the schedule in day order.
func (t *Table) Rewards() []Reward {
	return append([]Reward(nil), t.rewards...)
}

// NextStreak computes the streak a claim at now would reach, given the
// previous claim time and streak. It returns ErrAlreadyClaimed when
// the previous claim falls on the same UTC day.
func NextStreak(lastClaimedAt time.Time, streak int, now time.Time) (int, error) {
	if lastClaimedAt.IsZero() {
		return 1, nil
	}
	last := lastClaimedAt.UTC()
	day := now.UTC()
	if sameDay(last, day) {
		return streak, ErrAlreadyClaimed
	}
	if sameDay(last.AddDate(0, 0, 1), day) {
		return streak + 1, nil
	}
	return 1, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DefaultTable mirrors the reference seven-day schedule. Days three
// and six grant overclock charges instead of coins; day seven pays the
// weekly jackpot.
func DefaultTable() *Table {
	return &Table{rewards: []Reward{
		{Day: 1, Coins: 50},
		{Day: 2, Coins: 100},
		{Day: 3, BoostType: boost.TypeOverclock, BoostCharges: 1},
		{Day: 4, Coins: 200},
		{Day: 5, Coins: 300},
		{Day: 6, BoostType: boost.TypeOverclock, BoostCharges: 2},
		{Day: 7, Coins: 1000},
	}}
}
