package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/playforge/idle-season-service/pkg/events"
)

func TestRegisterIsComplete(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	// Registering twice must panic on duplicates, proving everything
	// went into the registry the first time.
	defer func() {
		if recover() == nil {
			t.Error("second Register should panic on duplicate collectors")
		}
	}()
	Register(reg)
}

func TestSinkCountsEvents(t *testing.T) {
	before := testutil.ToFloat64(RankUpsTotal)

	var s Sink
	s.Emit(events.Event{Kind: events.KindRankUp})
	s.Emit(events.Event{Kind: events.KindTap, Tap: &events.TapPayload{Value: 2.5}})
	s.Emit(events.Event{Kind: events.KindPurchase, Purchase: &events.PurchasePayload{ItemID: "click_multiplier"}})
	s.Emit(events.Event{Kind: events.KindOfflineClaim, OfflineClaim: &events.OfflineClaimPayload{Doubled: true}})

	if got := testutil.ToFloat64(RankUpsTotal) - before; got != 1 {
		t.Errorf("rank-up counter moved by %v, want 1", got)
	}
	if got := testutil.ToFloat64(PurchasesTotal.WithLabelValues("click_multiplier")); got < 1 {
		t.Errorf("purchase counter = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(OfflineClaimsTotal.WithLabelValues("true")); got < 1 {
		t.Errorf("doubled offline-claim counter = %v, want >= 1", got)
	}
}
