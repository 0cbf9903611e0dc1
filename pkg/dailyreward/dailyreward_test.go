package dailyreward

import (
	"errors"
	"testing"
	"time"

	"github.com/playforge/idle-season-service/pkg/boost"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, time.September, d, hour, 0, 0, 0, time.UTC)
}

func TestNextStreak(t *testing.T) {
	cases := []struct {
		name    string
		last    time.Time
		streak  int
		now     time.Time
		want    int
		wantErr error
	}{
		{"first ever claim", time.Time{}, 0, day(10, 9), 1, nil},
		{"consecutive day advances", day(10, 22), 3, day(11, 7), 4, nil},
		{"same day rejected", day(10, 8), 3, day(10, 23), 3, ErrAlreadyClaimed},
		{"missed day resets", day(10, 9), 6, day(12, 9), 1, nil},
		{"long gap resets", day(1, 9), 6, day(20, 9), 1, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextStreak(tc.last, tc.streak, tc.now)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("streak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTableCycles(t *testing.T) {
	table := DefaultTable()
	if table.Days() != 7 {
		t.Fatalf("Days = %d, want 7", table.Days())
	}

	r3 := table.Reward(3)
	if r3.BoostType != boost.TypeOverclock || r3.BoostCharges != 1 {
		t.Errorf("day 3 = %+v, want one overclock charge", r3)
	}
	if got := table.Reward(7).Coins; got != 1000 {
		t.Errorf("day 7 coins = %v, want 1000", got)
	}

	// Streak 8 wraps back to day 1, streak 14 to day 7.
	if got := table.Reward(8); got.Day != 1 {
		t.Errorf("streak 8 maps to day %d, want 1", got.Day)
	}
	if got := table.Reward(14); got.Day != 7 {
		t.Errorf("streak 14 maps to day %d, want 7", got.Day)
	}
}

func TestNewTableFallsBackOnGaps(t *testing.T) {
	table := NewTable([]Reward{
		{Day: 1, Coins: 10},
		{Day: 3, Coins: 30},
	})
	if table.Days() != 7 {
		t.Errorf("gapped schedule should fall back to the default table, got %d days", table.Days())
	}
	if NewTable(nil).Days() != 7 {
		t.Error("empty schedule should fall back to the default table")
	}
}
