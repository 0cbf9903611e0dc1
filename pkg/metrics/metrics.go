// Package metrics defines the Prometheus instruments for the economy
// core. The Sink adapter feeds them from controller events, so game
// code never touches a counter directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/playforge/idle-season-service/pkg/events"
)

var (
	TapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_taps_total",
		Help: "Total tap actions credited, including auto taps",
	})
	TapValueTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_tap_value_total",
		Help: "Total tap value credited across all players",
	})
	RankUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_rank_ups_total",
		Help: "Total rank-up transitions",
	})
	MilestonesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_milestones_total",
		Help: "Total milestone checkpoints crossed",
	})
	PrestigesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_prestiges_total",
		Help: "Total prestige resets taken",
	})
	PurchasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idle_season_purchases_total",
		Help: "Total shop purchases by item",
	}, []string{"item"})
	BoostActivationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idle_season_boost_activations_total",
		Help: "Total boost activations by type",
	}, []string{"type"})
	OfflineClaimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idle_season_offline_claims_total",
		Help: "Total offline-earnings claims, split by ad doubling",
	}, []string{"doubled"})
	DailyRewardsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_daily_rewards_total",
		Help: "Total daily streak rewards claimed",
	})
	SeasonRolloversTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idle_season_rollovers_total",
		Help: "Total season rollovers applied",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "idle_season_active_sessions",
		Help: "Player sessions currently held in memory",
	})
)

// Register adds every instrument to the given registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		TapsTotal,
		TapValueTotal,
		RankUpsTotal,
		MilestonesTotal,
		PrestigesTotal,
		PurchasesTotal,
		BoostActivationsTotal,
		OfflineClaimsTotal,
		DailyRewardsTotal,
		SeasonRolloversTotal,
		ActiveSessions,
	)
}

// Sink increments instruments from progression events. Emit never
// blocks, so it is safe inside the controller's critical section.
type Sink struct{}

// Emit implements events.Sink.
func (Sink) Emit(ev events.Event) {
	switch ev.Kind {
	case events.KindTap:
		TapsTotal.Inc()
		if ev.Tap != nil {
			TapValueTotal.Add(ev.Tap.Value)
		}
	case events.KindRankUp:
		RankUpsTotal.Inc()
	case events.KindMilestone:
		MilestonesTotal.Inc()
	case events.KindPrestige:
		PrestigesTotal.Inc()
	case events.KindPurchase:
		if ev.Purchase != nil {
			PurchasesTotal.WithLabelValues(ev.Purchase.ItemID).Inc()
		}
	case events.KindBoost:
		if ev.Boost != nil {
			BoostActivationsTotal.WithLabelValues(string(ev.Boost.Boost.Type)).Inc()
		}
	case events.KindOfflineClaim:
		doubled := "false"
		if ev.OfflineClaim != nil && ev.OfflineClaim.Doubled {
			doubled = "true"
		}
		OfflineClaimsTotal.WithLabelValues(doubled).Inc()
	case events.KindDailyReward:
		DailyRewardsTotal.Inc()
	case events.KindSeasonEnd:
		SeasonRolloversTotal.Inc()
	}
}
