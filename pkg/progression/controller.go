// Package progression hosts the orchestrator that owns one player's
// mutable season state and applies the economy rules to every action.
package progression

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/pkg/ads"
	"github.com/playforge/idle-season-service/pkg/boost"
	"github.com/playforge/idle-season-service/pkg/dailyreward"
	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/events"
	"github.com/playforge/idle-season-service/pkg/player"
	"github.com/playforge/idle-season-service/pkg/rank"
	"github.com/playforge/idle-season-service/pkg/season"
)

// DefaultMinPrestigeRank is the rank index required before prestige
// unlocks.
const DefaultMinPrestigeRank = 5

// Params configures a Controller. Zero-value collaborators fall back
// to the reference tuning; State and Record fall back to fresh ones.
type Params struct {
	UserID string
	Season season.Season

	ShopCatalog  *economy.Catalog
	BoostCatalog *boost.Catalog
	DailyRewards *dailyreward.Table
	AdRewards    *ads.RewardCatalog
	Sink         events.Sink

	State  *player.SeasonState
	Record *player.UserRecord

	MinPrestigeRank int
}

// Controller is the single logical writer for one player's progression.
// Every method takes the lock, so action handlers and background
// sweepers may call in from any goroutine; within one call the full
// state transition commits together or not at all.
type Controller struct {
	mu sync.Mutex

	userID string
	season season.Season

	curve        *rank.Curve
	rules        *economy.Rules
	boosts       *boost.Engine
	dailyRewards *dailyreward.Table
	adRewards    *ads.RewardCatalog
	sink         events.Sink

	state  *player.SeasonState
	record *player.UserRecord

	minPrestigeRank int
	pendingOffline  *economy.OfflineResult
}

// NewController builds a controller for one user session.
func NewController(p Params, now time.Time) *Controller {
	if p.Season.ID == "" {
		p.Season = season.ForMonth(now)
	}
	if p.DailyRewards == nil {
		p.DailyRewards = dailyreward.DefaultTable()
	}
	if p.AdRewards == nil {
		p.AdRewards = ads.DefaultRewardCatalog()
	}
	if p.Sink == nil {
		p.Sink = events.LogSink{}
	}
	if p.State == nil {
		p.State = player.NewSeasonState(now)
	}
	p.State.EnsureMaps()
	if p.Record == nil {
		p.Record = player.NewUserRecord(now)
	}
	if p.MinPrestigeRank <= 0 {
		p.MinPrestigeRank = DefaultMinPrestigeRank
	}

	c := &Controller{
		userID:          p.UserID,
		season:          p.Season,
		curve:           rank.NewCurve(p.Season.Curve),
		rules:           economy.NewRules(p.Season.Economy, p.ShopCatalog),
		dailyRewards:    p.DailyRewards,
		adRewards:       p.AdRewards,
		sink:            p.Sink,
		state:           p.State,
		record:          p.Record,
		minPrestigeRank: p.MinPrestigeRank,
	}
	c.boosts = boost.NewEngine(p.BoostCatalog, boost.State{
		Inventory: copyInventory(p.State.BoostInventory),
	})
	c.boosts.RestoreCooldowns(p.State.BoostLastUsed, now)
	return c
}

// TapResult reports the outcome of crediting taps.
type TapResult struct {
	Value        float64             `json:"value"`
	TotalTaps    float64             `json:"totalTaps"`
	RankChanged  bool                `json:"rankChanged"`
	Rank         rank.Rank           `json:"rank"`
	CoinsAwarded float64             `json:"coinsAwarded"`
	Milestones   []economy.Milestone `json:"milestones,omitempty"`
}

// ApplyTap credits one physical tap at its full current value.
func (c *Controller) ApplyTap(now time.Time) TapResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	clickLevel := c.clickLevel()
	value := c.rules.TapValue(clickLevel, c.state.SeasonBaseMultiplier, c.boosts.TotalMultiplier(now))
	return c.creditTaps(value, now)
}

// ApplyAutoTaps credits the auto-tapper's passive output for an
// elapsed interval. A player without auto-tapper levels earns nothing.
func (c *Controller) ApplyAutoTaps(elapsed time.Duration, now time.Time) TapResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.rules.Catalog().Get(economy.ItemAutoTapper)
	if !ok || elapsed <= 0 {
		return TapResult{TotalTaps: c.state.CurrentSeasonTaps, Rank: c.curve.At(c.state.RankIndex, c.state.PrestigeCount)}
	}
	level := c.state.Level(economy.ItemAutoTapper, item.LevelFloor())
	if level <= 0 {
		return TapResult{TotalTaps: c.state.CurrentSeasonTaps, Rank: c.curve.At(c.state.RankIndex, c.state.PrestigeCount)}
	}

	perTap := c.rules.TapValue(c.clickLevel(), c.state.SeasonBaseMultiplier, c.boosts.TotalMultiplier(now))
	value := perTap * float64(level) * item.EffectPerLevel * elapsed.Seconds()
	return c.creditTaps(value, now)
}

// creditTaps commits a tap credit: taps, milestone coins, rank-up
// coins and multiplier together. Caller holds the lock.
func (c *Controller) creditTaps(value float64, now time.Time) TapResult {
	before := c.state.CurrentSeasonTaps
	after := before + value
	prevIndex := c.state.RankIndex

	crossed := c.rules.MilestonesCrossed(c.curve, before, after, prevIndex, c.state.PrestigeCount)

	c.state.CurrentSeasonTaps = after
	c.state.LastActiveAt = now

	res := TapResult{Value: value, TotalTaps: after, Milestones: crossed}
	for _, m := range crossed {
		c.state.Coins += m.Coins
		res.CoinsAwarded += m.Coins
		c.emit(now, events.Event{Kind: events.KindMilestone, Milestone: &events.MilestonePayload{
			Milestone:    m,
			CoinsAwarded: m.Coins,
		}})
	}

	newRank := c.curve.CurrentRank(after, c.state.PrestigeCount)
	res.Rank = newRank
	if newRank.Index > prevIndex {
		award := c.rules.CoinsForRankUp(newRank.Index)
		c.state.RankIndex = newRank.Index
		c.state.Coins += award
		c.state.SeasonBaseMultiplier = c.curve.SeasonBaseMultiplier(newRank.Index, c.state.PrestigeCount)
		res.RankChanged = true
		res.CoinsAwarded += award
		c.emit(now, events.Event{Kind: events.KindRankUp, RankUp: &events.RankUpPayload{
			NewRank:       newRank,
			PreviousIndex: prevIndex,
			CoinsAwarded:  award,
			NewMultiplier: c.state.SeasonBaseMultiplier,
		}})
	} else {
		c.emit(now, events.Event{Kind: events.KindTap, Tap: &events.TapPayload{
			Value:     value,
			TotalTaps: after,
		}})
	}
	return res
}

// PurchaseUpgrade buys the next level of a shop item, or one charge
// for consumable packs. The price check and the commit run against the
// same snapshot under the lock.
func (c *Controller) PurchaseUpgrade(itemID string, now time.Time) (economy.PurchaseResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.rules.Catalog().Get(itemID)
	if !ok {
		return economy.PurchaseResult{}, economy.ErrUnknownItem
	}

	var level int
	if item.Kind == economy.KindBoostConsumable {
		// Consumable packs are capped by charges held, not by a level.
		level = c.boosts.Inventory(boost.Type(item.BoostType))
	} else {
		level = c.state.Level(itemID, item.LevelFloor())
	}

	res, err := c.rules.Purchase(itemID, level, c.state.Coins)
	if err != nil {
		return economy.PurchaseResult{}, err
	}

	c.state.Coins = res.RemainingCoins
	if item.Kind == economy.KindBoostConsumable {
		t := boost.Type(item.BoostType)
		c.boosts.AddInventory(t, 1)
		c.state.BoostInventory[t] = c.boosts.Inventory(t)
	} else {
		c.state.UpgradeLevels[itemID] = res.NewLevel
	}
	c.state.LastActiveAt = now

	c.emit(now, events.Event{Kind: events.KindPurchase, Purchase: &events.PurchasePayload{
		ItemID:         itemID,
		NewLevel:       res.NewLevel,
		PricePaid:      res.PricePaid,
		RemainingCoins: res.RemainingCoins,
	}})
	return res, nil
}

// ActivateBoost starts a boost and records its last-used timestamp for
// variants whose cooldown must survive a restart.
func (c *Controller) ActivateBoost(t boost.Type, now time.Time) (boost.ActiveBoost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.boosts.Activate(t, now)
	if err != nil {
		return boost.ActiveBoost{}, err
	}
	if spec, ok := c.boosts.Catalog().Get(t); ok && spec.PersistentCooldown {
		c.state.BoostLastUsed[t] = now
	}
	c.state.BoostInventory[t] = c.boosts.Inventory(t)
	c.state.LastActiveAt = now

	c.emit(now, events.Event{Kind: events.KindBoost, Boost: &events.BoostPayload{Boost: b}})
	return b, nil
}

// ComputeOfflineEarnings accrues the away-time award at session start
// and stages it for a claim. Nothing is credited until the player
// claims; a zero award stages nothing.
func (c *Controller) ComputeOfflineEarnings(now time.Time) economy.OfflineResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	level := c.state.Level(economy.ItemOfflineMultiplier, 1)
	res := c.rules.OfflineEarnings(c.state.LastActiveAt, now, level, c.state.SeasonBaseMultiplier)
	if res.Coins > 0 {
		c.pendingOffline = &res
	} else {
		c.pendingOffline = nil
	}
	return res
}

// PendingOfflineEarnings returns the staged award, if any.
func (c *Controller) PendingOfflineEarnings() (economy.OfflineResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingOffline == nil {
		return economy.OfflineResult{}, false
	}
	return *c.pendingOffline, true
}

// ClaimOfflineEarnings credits the staged award, doubled when the
// rewarded ad was granted, and clears it.
func (c *Controller) ClaimOfflineEarnings(doubled bool, now time.Time) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingOffline == nil {
		return 0, ErrNoPendingClaim
	}
	coins := c.pendingOffline.Coins
	if doubled {
		coins = c.pendingOffline.Doubled()
	}
	c.state.Coins += coins
	c.state.LastActiveAt = now
	c.pendingOffline = nil

	c.emit(now, events.Event{Kind: events.KindOfflineClaim, OfflineClaim: &events.OfflineClaimPayload{
		Coins:   coins,
		Doubled: doubled,
	}})
	return coins, nil
}

// PrestigeResult reports a completed prestige.
type PrestigeResult struct {
	NewPrestigeCount int     `json:"newPrestigeCount"`
	NewMultiplier    float64 `json:"newMultiplier"`
}

// CanPrestige reports whether the player has reached the prestige
// minimum.
func (c *Controller) CanPrestige() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.RankIndex >= c.minPrestigeRank
}

// Prestige resets the season climb in exchange for a permanent
// multiplier increase. The only operation that decreases taps, coins
// or rank.
func (c *Controller) Prestige(now time.Time) (PrestigeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.RankIndex < c.minPrestigeRank {
		return PrestigeResult{}, ErrNotEligible
	}

	c.state.PrestigeCount++
	c.state.CurrentSeasonTaps = 0
	c.state.Coins = 0
	c.state.RankIndex = 1
	c.state.UpgradeLevels = make(map[string]int)
	c.state.BoostInventory = make(map[boost.Type]int)
	c.state.BoostLastUsed = make(map[boost.Type]time.Time)
	c.state.SeasonBaseMultiplier = c.curve.SeasonBaseMultiplier(1, c.state.PrestigeCount)
	c.state.LastActiveAt = now
	c.boosts.Reset()
	c.pendingOffline = nil

	res := PrestigeResult{
		NewPrestigeCount: c.state.PrestigeCount,
		NewMultiplier:    c.state.SeasonBaseMultiplier,
	}
	c.emit(now, events.Event{Kind: events.KindPrestige, Prestige: &events.PrestigePayload{
		NewPrestigeCount: res.NewPrestigeCount,
		NewMultiplier:    res.NewMultiplier,
	}})
	logrus.Infof("user %s prestiged to count %d", c.userID, res.NewPrestigeCount)
	return res, nil
}

// ProjectedPrestigeMultiplier is the rank-1 multiplier a prestige
// taken now would yield.
func (c *Controller) ProjectedPrestigeMultiplier() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curve.ProjectedMultiplier(c.state.PrestigeCount)
}

// RolloverSeason archives the finished season, folds its terminal
// values into the lifetime record and starts the next season fresh.
// Invoked by the session layer when the season window closes, never
// spontaneously.
func (c *Controller) RolloverSeason(next season.Season, now time.Time) *player.SeasonHistory {
	c.mu.Lock()
	defer c.mu.Unlock()

	hist := &player.SeasonHistory{
		SeasonID:           c.season.ID,
		SeasonName:         c.season.Name,
		FinalTaps:          c.state.CurrentSeasonTaps,
		FinalRankIndex:     c.state.RankIndex,
		FinalPrestigeCount: c.state.PrestigeCount,
		EndedAt:            now,
	}
	c.record.LifetimeTaps += c.state.CurrentSeasonTaps
	if c.state.RankIndex > c.record.LifetimeBestRank {
		c.record.LifetimeBestRank = c.state.RankIndex
	}

	c.emit(now, events.Event{Kind: events.KindSeasonEnd, SeasonEnd: &events.SeasonEndPayload{
		SeasonID:       c.season.ID,
		FinalTaps:      c.state.CurrentSeasonTaps,
		FinalRankIndex: c.state.RankIndex,
	}})

	c.season = next
	c.curve = rank.NewCurve(next.Curve)
	c.rules = economy.NewRules(next.Economy, c.rules.Catalog())
	c.state = player.NewSeasonState(now)
	c.boosts.Reset()
	c.pendingOffline = nil

	logrus.Infof("user %s rolled over to season %s", c.userID, next.ID)
	return hist
}

// DailyRewardResult reports a claimed streak reward.
type DailyRewardResult struct {
	Streak int                `json:"streak"`
	Reward dailyreward.Reward `json:"reward"`
}

// ClaimDailyReward claims today's streak reward, crediting coins to
// the season balance or charges to the boost inventory.
func (c *Controller) ClaimDailyReward(now time.Time) (DailyRewardResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	streak, err := dailyreward.NextStreak(c.record.DailyRewardClaimedAt, c.record.DailyRewardStreak, now)
	if err != nil {
		return DailyRewardResult{}, err
	}
	reward := c.dailyRewards.Reward(streak)

	c.record.DailyRewardStreak = streak
	c.record.DailyRewardClaimedAt = now
	c.record.DailyRewardTotalDays++

	if reward.Coins > 0 {
		c.state.Coins += reward.Coins
	}
	if reward.BoostCharges > 0 && reward.BoostType != "" {
		c.boosts.AddInventory(reward.BoostType, reward.BoostCharges)
		c.state.BoostInventory[reward.BoostType] = c.boosts.Inventory(reward.BoostType)
	}
	c.state.LastActiveAt = now

	c.emit(now, events.Event{Kind: events.KindDailyReward, DailyReward: &events.DailyRewardPayload{
		Day:    reward.Day,
		Streak: streak,
		Coins:  reward.Coins,
		Boost:  string(reward.BoostType),
	}})
	return DailyRewardResult{Streak: streak, Reward: reward}, nil
}

// ClaimAdReward credits a flat-coin ad reward, enforcing its per-item
// cooldown. The caller has already verified the ad grant.
func (c *Controller) ClaimAdReward(rewardID string, now time.Time) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reward, ok := c.adRewards.Get(rewardID)
	if !ok {
		return 0, ads.ErrUnknownReward
	}
	if usedAt, ok := c.state.AdRewardLastUsed[rewardID]; ok && now.Before(usedAt.Add(reward.Cooldown)) {
		return 0, ads.ErrRewardOnCooldown
	}

	c.state.Coins += reward.Coins
	c.state.AdRewardLastUsed[rewardID] = now
	c.state.LastActiveAt = now
	logrus.Debugf("user %s claimed ad reward %s for %.0f coins", c.userID, rewardID, reward.Coins)
	return reward.Coins, nil
}

// SweepBoosts drops expired boosts from the active list. Called by the
// session layer on its sweep ticker.
func (c *Controller) SweepBoosts(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boosts.SweepExpired(now)
}

// Touch stamps player activity with no other effect. The session layer
// calls it at save time so offline earnings never cover time the
// session was live.
func (c *Controller) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastActiveAt = now
}

// Snapshot returns a deep copy of the season state with the boost
// inventory synced, safe to persist from another goroutine.
func (c *Controller) Snapshot() *player.SeasonState {
	c.mu.Lock()
	defer c.mu.Unlock()

	for t, n := range c.boosts.State().Inventory {
		c.state.BoostInventory[t] = n
	}
	return c.state.Clone()
}

// Record returns a copy of the lifetime user record.
func (c *Controller) Record() player.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.record
}

// Season returns the season currently in play.
func (c *Controller) Season() season.Season {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.season
}

// CurrentRank is the full rank view for the player's index.
func (c *Controller) CurrentRank() rank.Rank {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curve.At(c.state.RankIndex, c.state.PrestigeCount)
}

// Progress is the [0,1] fraction toward the next rank.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curve.Progress(c.state.CurrentSeasonTaps, c.state.RankIndex, c.state.PrestigeCount)
}

// ActiveBoosts lists the boosts live at the given instant.
func (c *Controller) ActiveBoosts(now time.Time) []boost.ActiveBoost {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boosts.ActiveBoosts(now)
}

// BoostMultiplier is the product of live boost multipliers.
func (c *Controller) BoostMultiplier(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boosts.TotalMultiplier(now)
}

// BoostCooldownRemaining is the wait before a type can next activate.
func (c *Controller) BoostCooldownRemaining(t boost.Type, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boosts.CooldownRemaining(t, now)
}

// BoostInventory is the charge count held for a type.
func (c *Controller) BoostInventory(t boost.Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boosts.Inventory(t)
}

func (c *Controller) clickLevel() int {
	item, ok := c.rules.Catalog().Get(economy.ItemClickMultiplier)
	floor := 1
	if ok {
		floor = item.LevelFloor()
	}
	return c.state.Level(economy.ItemClickMultiplier, floor)
}

func (c *Controller) emit(now time.Time, ev events.Event) {
	ev.UserID = c.userID
	ev.SeasonID = c.season.ID
	ev.Timestamp = now
	c.sink.Emit(ev)
}

func copyInventory(src map[boost.Type]int) map[boost.Type]int {
	out := make(map[boost.Type]int, len(src))
	for t, n := range src {
		out[t] = n
	}
	return out
}
