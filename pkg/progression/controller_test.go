package progression

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/playforge/idle-season-service/pkg/ads"
	"github.com/playforge/idle-season-service/pkg/boost"
	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/events"
	"github.com/playforge/idle-season-service/pkg/player"
	"github.com/playforge/idle-season-service/pkg/season"
)

var testBase = time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, state *player.SeasonState) (*Controller, *events.CollectSink) {
	t.Helper()
	sink := &events.CollectSink{}
	c := NewController(Params{
		UserID: "user-1",
		Sink:   sink,
		State:  state,
	}, testBase)
	return c, sink
}

func TestApplyTapAccumulates(t *testing.T) {
	c, sink := newTestController(t, nil)

	res := c.ApplyTap(testBase)
	if res.Value != 1.0 {
		t.Errorf("tap value = %v, want 1.0 at level 1 with no boosts", res.Value)
	}
	if res.TotalTaps != 1.0 {
		t.Errorf("total taps = %v, want 1.0", res.TotalTaps)
	}
	if res.RankChanged {
		t.Error("one tap must not rank up")
	}
	if got := len(sink.ByKind(events.KindTap)); got != 1 {
		t.Errorf("tap events = %d, want 1", got)
	}
}

func TestRankUpAtExactThreshold(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.CurrentSeasonTaps = 609
	c, sink := newTestController(t, state)

	// Rank 2 opens at 500 x 1.22 = 610 taps.
	res := c.ApplyTap(testBase)
	if !res.RankChanged {
		t.Fatal("reaching the threshold exactly must rank up")
	}
	if res.Rank.Index != 2 {
		t.Errorf("rank index = %d, want 2", res.Rank.Index)
	}

	snap := c.Snapshot()
	if snap.RankIndex != 2 {
		t.Errorf("stored rank = %d, want 2", snap.RankIndex)
	}
	if snap.Coins != 100 {
		t.Errorf("coins = %v, want the 100 rank-up award", snap.Coins)
	}
	if snap.SeasonBaseMultiplier != 1.02 {
		t.Errorf("multiplier = %v, want 1.02", snap.SeasonBaseMultiplier)
	}

	ups := sink.ByKind(events.KindRankUp)
	if len(ups) != 1 {
		t.Fatalf("rank-up events = %d, want 1", len(ups))
	}
	if ups[0].RankUp.PreviousIndex != 1 {
		t.Errorf("previous index = %d, want 1", ups[0].RankUp.PreviousIndex)
	}
}

func TestMilestoneCrossing(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.CurrentSeasonTaps = 152
	c, sink := newTestController(t, state)

	// Rank 1 spans 0..610, so the first milestone sits at 152.5.
	res := c.ApplyTap(testBase)
	if len(res.Milestones) != 1 {
		t.Fatalf("milestones crossed = %d, want 1", len(res.Milestones))
	}
	if res.CoinsAwarded != 5 {
		t.Errorf("milestone coins = %v, want 5", res.CoinsAwarded)
	}
	if got := len(sink.ByKind(events.KindMilestone)); got != 1 {
		t.Errorf("milestone events = %d, want 1", got)
	}

	// Tapping again past the checkpoint must not re-award it.
	res = c.ApplyTap(testBase)
	if len(res.Milestones) != 0 {
		t.Errorf("milestone re-awarded: %+v", res.Milestones)
	}
}

func TestAutoTapsCrossSeveralMilestones(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.UpgradeLevels[economy.ItemAutoTapper] = 10
	c, sink := newTestController(t, state)

	// 10 levels x 1 tap/s x 40s = 400 taps, crossing 152.5 and 305.
	res := c.ApplyAutoTaps(40*time.Second, testBase)
	if res.TotalTaps != 400 {
		t.Fatalf("total taps = %v, want 400", res.TotalTaps)
	}
	if len(res.Milestones) != 2 {
		t.Fatalf("milestones crossed = %d, want 2", len(res.Milestones))
	}
	if res.CoinsAwarded != 15 {
		t.Errorf("milestone coins = %v, want 5+10", res.CoinsAwarded)
	}
	if got := len(sink.ByKind(events.KindMilestone)); got != 2 {
		t.Errorf("milestone events = %d, want 2", got)
	}
}

func TestAutoTapsWithoutLevels(t *testing.T) {
	c, _ := newTestController(t, nil)
	res := c.ApplyAutoTaps(time.Minute, testBase)
	if res.Value != 0 || res.TotalTaps != 0 {
		t.Errorf("auto taps without levels credited %v", res.Value)
	}
}

func TestPurchaseUpgrade(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.Coins = 100
	c, sink := newTestController(t, state)

	// Level 1 click upgrade costs 50 x 2^1 = 100, exactly affordable.
	res, err := c.PurchaseUpgrade(economy.ItemClickMultiplier, testBase)
	if err != nil {
		t.Fatalf("PurchaseUpgrade: %v", err)
	}
	if res.NewLevel != 2 || res.RemainingCoins != 0 {
		t.Errorf("got level %d, remaining %v; want 2 and 0", res.NewLevel, res.RemainingCoins)
	}
	if got := len(sink.ByKind(events.KindPurchase)); got != 1 {
		t.Errorf("purchase events = %d, want 1", got)
	}

	// Broke now; the next level must be rejected with nothing changed.
	if _, err := c.PurchaseUpgrade(economy.ItemClickMultiplier, testBase); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	snap := c.Snapshot()
	if snap.UpgradeLevels[economy.ItemClickMultiplier] != 2 {
		t.Errorf("level = %d, want 2 after rejected purchase", snap.UpgradeLevels[economy.ItemClickMultiplier])
	}

	// A higher click level raises the tap value.
	if got := c.ApplyTap(testBase).Value; got != 1.1 {
		t.Errorf("tap value at level 2 = %v, want 1.1", got)
	}
}

func TestPurchaseConsumablePack(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.Coins = 500
	c, _ := newTestController(t, state)

	if _, err := c.PurchaseUpgrade(economy.ItemOverclockPack, testBase); err != nil {
		t.Fatalf("PurchaseUpgrade: %v", err)
	}
	if got := c.BoostInventory(boost.TypeOverclock); got != 1 {
		t.Errorf("inventory = %d, want 1 charge", got)
	}
	snap := c.Snapshot()
	if snap.BoostInventory[boost.TypeOverclock] != 1 {
		t.Errorf("persisted inventory = %d, want 1", snap.BoostInventory[boost.TypeOverclock])
	}
	if _, ok := snap.UpgradeLevels[economy.ItemOverclockPack]; ok {
		t.Error("consumable packs must not record an upgrade level")
	}
}

func TestActivateBoostAffectsTapsAndPersistsCooldown(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.Coins = 500
	c, sink := newTestController(t, state)

	if _, err := c.PurchaseUpgrade(economy.ItemOverclockPack, testBase); err != nil {
		t.Fatalf("PurchaseUpgrade: %v", err)
	}
	if _, err := c.ActivateBoost(boost.TypeOverclock, testBase); err != nil {
		t.Fatalf("ActivateBoost: %v", err)
	}
	if got := len(sink.ByKind(events.KindBoost)); got != 1 {
		t.Errorf("boost events = %d, want 1", got)
	}

	if got := c.ApplyTap(testBase.Add(5 * time.Second)).Value; got != 5.0 {
		t.Errorf("boosted tap value = %v, want 5.0", got)
	}
	if got := c.ApplyTap(testBase.Add(20 * time.Second)).Value; got != 1.0 {
		t.Errorf("tap value after expiry = %v, want 1.0", got)
	}

	snap := c.Snapshot()
	if !snap.BoostLastUsed[boost.TypeOverclock].Equal(testBase) {
		t.Error("persistent-cooldown type must record its last-used timestamp")
	}
	if snap.BoostInventory[boost.TypeOverclock] != 0 {
		t.Errorf("inventory = %d, want 0 after consuming the charge", snap.BoostInventory[boost.TypeOverclock])
	}
}

func TestCooldownSurvivesRestart(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.BoostLastUsed[boost.TypeAdRush] = testBase.Add(-time.Minute)

	// One minute into ad rush's two-minute cooldown.
	c, _ := newTestController(t, state)
	if _, err := c.ActivateBoost(boost.TypeAdRush, testBase); !errors.Is(err, boost.ErrOnCooldown) {
		t.Fatalf("err = %v, want ErrOnCooldown after restart", err)
	}
	if got := c.BoostCooldownRemaining(boost.TypeAdRush, testBase); got != time.Minute {
		t.Errorf("cooldown remaining = %v, want 1m", got)
	}
	if _, err := c.ActivateBoost(boost.TypeAdRush, testBase.Add(61*time.Second)); err != nil {
		t.Errorf("activation after cooldown: %v", err)
	}
}

func TestOfflineEarningsClaim(t *testing.T) {
	state := player.NewSeasonState(testBase.Add(-2 * time.Hour))
	c, sink := newTestController(t, state)

	res := c.ComputeOfflineEarnings(testBase)
	if res.Coins != 20 {
		t.Fatalf("offline coins = %v, want 20 for 2h at 10/h", res.Coins)
	}

	coins, err := c.ClaimOfflineEarnings(true, testBase)
	if err != nil {
		t.Fatalf("ClaimOfflineEarnings: %v", err)
	}
	if coins != 40 {
		t.Errorf("doubled claim = %v, want 40", coins)
	}
	claims := sink.ByKind(events.KindOfflineClaim)
	if len(claims) != 1 || !claims[0].OfflineClaim.Doubled {
		t.Errorf("offline-claim events = %+v, want one doubled claim", claims)
	}

	if _, err := c.ClaimOfflineEarnings(false, testBase); !errors.Is(err, ErrNoPendingClaim) {
		t.Errorf("second claim err = %v, want ErrNoPendingClaim", err)
	}
}

func TestOfflineEarningsZeroElapsedStagesNothing(t *testing.T) {
	c, _ := newTestController(t, nil)

	res := c.ComputeOfflineEarnings(testBase)
	if res.Coins != 0 {
		t.Fatalf("offline coins = %v, want 0 at zero elapsed", res.Coins)
	}
	if _, ok := c.PendingOfflineEarnings(); ok {
		t.Error("zero award must not stage a claim")
	}
	if _, err := c.ClaimOfflineEarnings(false, testBase); !errors.Is(err, ErrNoPendingClaim) {
		t.Errorf("claim err = %v, want ErrNoPendingClaim", err)
	}
}

func TestPrestigeBelowMinimum(t *testing.T) {
	c, _ := newTestController(t, nil)
	if c.CanPrestige() {
		t.Error("rank 1 must not be eligible")
	}
	if _, err := c.Prestige(testBase); !errors.Is(err, ErrNotEligible) {
		t.Errorf("err = %v, want ErrNotEligible", err)
	}
}

func TestPrestigeResets(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.CurrentSeasonTaps = 5000
	state.Coins = 900
	state.RankIndex = 6
	state.SeasonBaseMultiplier = 1.10
	state.UpgradeLevels[economy.ItemClickMultiplier] = 4
	state.BoostInventory[boost.TypeOverclock] = 3
	c, sink := newTestController(t, state)

	res, err := c.Prestige(testBase)
	if err != nil {
		t.Fatalf("Prestige: %v", err)
	}
	if res.NewPrestigeCount != 1 {
		t.Errorf("prestige count = %d, want 1", res.NewPrestigeCount)
	}
	if res.NewMultiplier != 1.35 {
		t.Errorf("multiplier = %v, want 1.35", res.NewMultiplier)
	}

	snap := c.Snapshot()
	if snap.CurrentSeasonTaps != 0 || snap.Coins != 0 || snap.RankIndex != 1 {
		t.Errorf("state not reset: %+v", snap)
	}
	if got := snap.UpgradeLevels[economy.ItemClickMultiplier]; got != 0 {
		t.Errorf("upgrade level survived prestige: %d", got)
	}
	if got := c.BoostInventory(boost.TypeOverclock); got != 0 {
		t.Errorf("boost inventory survived prestige: %d", got)
	}
	if got := len(sink.ByKind(events.KindPrestige)); got != 1 {
		t.Errorf("prestige events = %d, want 1", got)
	}

	// Thresholds ease after prestige: rank 2 now needs 610 x 0.92 = 561.2.
	state2 := player.NewSeasonState(testBase)
	state2.CurrentSeasonTaps = 561
	state2.PrestigeCount = 1
	state2.SeasonBaseMultiplier = 1.35
	c2, _ := newTestController(t, state2)
	if got := c2.ApplyTap(testBase); !got.RankChanged {
		t.Error("eased threshold should rank up just past 561.2 taps")
	}
}

func TestRolloverSeason(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.CurrentSeasonTaps = 1234
	state.RankIndex = 7
	state.PrestigeCount = 2
	c, sink := newTestController(t, state)

	current := c.Season()
	hist := c.RolloverSeason(current.Next(), current.End)

	if hist.SeasonID != current.ID || hist.FinalTaps != 1234 || hist.FinalRankIndex != 7 {
		t.Errorf("history = %+v, want terminal values of %s", hist, current.ID)
	}
	rec := c.Record()
	if rec.LifetimeTaps != 1234 {
		t.Errorf("lifetime taps = %v, want 1234", rec.LifetimeTaps)
	}
	if rec.LifetimeBestRank != 7 {
		t.Errorf("lifetime best rank = %d, want 7", rec.LifetimeBestRank)
	}

	snap := c.Snapshot()
	if snap.CurrentSeasonTaps != 0 || snap.RankIndex != 1 || snap.PrestigeCount != 0 {
		t.Errorf("fresh state = %+v", snap)
	}
	if got := len(sink.ByKind(events.KindSeasonEnd)); got != 1 {
		t.Errorf("season-end events = %d, want 1", got)
	}
	if got := c.Season().ID; got != current.Next().ID {
		t.Errorf("season = %s, want %s", got, current.Next().ID)
	}
}

func TestClaimDailyReward(t *testing.T) {
	c, sink := newTestController(t, nil)

	res, err := c.ClaimDailyReward(testBase)
	if err != nil {
		t.Fatalf("ClaimDailyReward: %v", err)
	}
	if res.Streak != 1 || res.Reward.Coins != 50 {
		t.Errorf("day 1 = %+v, want streak 1 and 50 coins", res)
	}

	if _, err := c.ClaimDailyReward(testBase.Add(2 * time.Hour)); err == nil {
		t.Fatal("same-day claim must be rejected")
	}

	res, err = c.ClaimDailyReward(testBase.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("next-day claim: %v", err)
	}
	if res.Streak != 2 || res.Reward.Coins != 100 {
		t.Errorf("day 2 = %+v, want streak 2 and 100 coins", res)
	}

	// Day 3 grants an overclock charge instead of coins.
	res, err = c.ClaimDailyReward(testBase.Add(48 * time.Hour))
	if err != nil {
		t.Fatalf("day 3 claim: %v", err)
	}
	if res.Reward.BoostType != boost.TypeOverclock || res.Reward.BoostCharges != 1 {
		t.Errorf("day 3 = %+v, want one overclock charge", res)
	}
	if got := c.BoostInventory(boost.TypeOverclock); got != 1 {
		t.Errorf("inventory = %d, want the granted charge", got)
	}

	snap := c.Snapshot()
	if snap.Coins != 150 {
		t.Errorf("coins = %v, want 50+100", snap.Coins)
	}
	if got := len(sink.ByKind(events.KindDailyReward)); got != 3 {
		t.Errorf("daily-reward events = %d, want 3", got)
	}
}

func TestClaimAdReward(t *testing.T) {
	c, _ := newTestController(t, nil)

	coins, err := c.ClaimAdReward("coin_pouch", testBase)
	if err != nil {
		t.Fatalf("ClaimAdReward: %v", err)
	}
	if coins != 250 {
		t.Errorf("coins = %v, want 250", coins)
	}

	if _, err := c.ClaimAdReward("coin_pouch", testBase.Add(10*time.Minute)); !errors.Is(err, ads.ErrRewardOnCooldown) {
		t.Errorf("err = %v, want ErrRewardOnCooldown", err)
	}
	if _, err := c.ClaimAdReward("coin_pouch", testBase.Add(31*time.Minute)); err != nil {
		t.Errorf("claim after cooldown: %v", err)
	}
	if _, err := c.ClaimAdReward("no_such_reward", testBase); !errors.Is(err, ads.ErrUnknownReward) {
		t.Errorf("err = %v, want ErrUnknownReward", err)
	}
}

func TestReloadedStateSurvivesTimestampWrites(t *testing.T) {
	// A fresh state serializes without its omitempty timestamp maps.
	// A controller over the reloaded form must still record ad-reward
	// and persistent-cooldown usage instead of panicking.
	data, err := json.Marshal(player.NewSeasonState(testBase))
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var reloaded player.SeasonState
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}

	c, _ := newTestController(t, &reloaded)

	if _, err := c.ClaimAdReward("coin_pouch", testBase); err != nil {
		t.Fatalf("ClaimAdReward on reloaded state: %v", err)
	}
	if _, err := c.ActivateBoost(boost.TypeAdRush, testBase); err != nil {
		t.Fatalf("ActivateBoost on reloaded state: %v", err)
	}

	snap := c.Snapshot()
	if snap.AdRewardLastUsed["coin_pouch"].IsZero() {
		t.Error("ad reward usage was not recorded")
	}
	if snap.BoostLastUsed[boost.TypeAdRush].IsZero() {
		t.Error("persistent cooldown usage was not recorded")
	}
}

func TestMonotonicityAcrossActions(t *testing.T) {
	state := player.NewSeasonState(testBase)
	state.Coins = 500
	c, _ := newTestController(t, state)

	prevTaps, prevRank := 0.0, 1
	now := testBase
	for i := 0; i < 200; i++ {
		now = now.Add(time.Second)
		res := c.ApplyTap(now)
		if res.TotalTaps < prevTaps {
			t.Fatalf("taps decreased: %v -> %v", prevTaps, res.TotalTaps)
		}
		if res.Rank.Index < prevRank {
			t.Fatalf("rank decreased: %d -> %d", prevRank, res.Rank.Index)
		}
		prevTaps, prevRank = res.TotalTaps, res.Rank.Index
		if i == 50 {
			// Spending coins must never touch taps or rank.
			if _, err := c.PurchaseUpgrade(economy.ItemOverclockPack, now); err != nil {
				t.Fatalf("purchase: %v", err)
			}
		}
	}
}

func TestEndToEndClimb(t *testing.T) {
	s := season.ForMonth(testBase)
	s.Economy.BaseTap = 50

	sink := &events.CollectSink{}
	c := NewController(Params{UserID: "user-e2e", Season: s, Sink: sink}, testBase)

	now := testBase
	rankUps := 0
	for i := 1; i <= 15; i++ {
		now = now.Add(time.Second)
		res := c.ApplyTap(now)
		if res.RankChanged {
			rankUps++
		}
		switch i {
		case 12:
			if res.Rank.Index != 1 {
				t.Fatalf("tap %d: rank = %d, want still 1 at 600 taps", i, res.Rank.Index)
			}
		case 13:
			// 650 taps crosses the rank 2 threshold at 610.
			if res.Rank.Index != 2 || !res.RankChanged {
				t.Fatalf("tap %d: rank = %d (changed=%v), want 2", i, res.Rank.Index, res.RankChanged)
			}
		case 15:
			// 750 taps crosses the rank 3 threshold at 744.2.
			if res.Rank.Index != 3 {
				t.Fatalf("tap %d: rank = %d, want 3 at 750 taps", i, res.Rank.Index)
			}
		}
	}
	if rankUps != 2 {
		t.Errorf("rank-ups = %d, want 2", rankUps)
	}
	if got := len(sink.ByKind(events.KindRankUp)); got != 2 {
		t.Errorf("rank-up events = %d, want 2", got)
	}
}
