package boost

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestActivateAndStacking(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())
	e.AddInventory(TypeOverclock, 1)

	if _, err := e.Activate(TypeAdRush, t0); err != nil {
		t.Fatalf("activate ad_rush: %v", err)
	}
	if _, err := e.Activate(TypeOverclock, t0); err != nil {
		t.Fatalf("activate overclock: %v", err)
	}

	// x2 and x5 stack multiplicatively.
	if got := e.TotalMultiplier(t0.Add(1 * time.Second)); got != 10.0 {
		t.Errorf("TotalMultiplier = %v, want 10", got)
	}

	// After overclock's 15s duration only ad_rush (x2) remains.
	if got := e.TotalMultiplier(t0.Add(16 * time.Second)); got != 2.0 {
		t.Errorf("TotalMultiplier after overclock expiry = %v, want 2", got)
	}

	// After both expire the multiplier returns to 1 without any sweep.
	if got := e.TotalMultiplier(t0.Add(31 * time.Second)); got != 1.0 {
		t.Errorf("TotalMultiplier after both expire = %v, want 1", got)
	}
}

func TestCooldownGating(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())

	if !e.CanActivate(TypeAdRush, t0) {
		t.Fatal("CanActivate = false before first activation")
	}
	if _, err := e.Activate(TypeAdRush, t0); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// Immediately after activation the type is gated.
	if e.CanActivate(TypeAdRush, t0.Add(time.Second)) {
		t.Error("CanActivate = true immediately after activation")
	}

	// The cooldown gate is checked before the live-instance gate.
	if _, err := e.Activate(TypeAdRush, t0.Add(time.Second)); err != ErrOnCooldown {
		t.Errorf("err during cooldown = %v, want ErrOnCooldown", err)
	}

	remaining := e.CooldownRemaining(TypeAdRush, t0.Add(30*time.Second))
	if remaining != 90*time.Second {
		t.Errorf("CooldownRemaining = %v, want 90s", remaining)
	}

	// Past the 2 minute cooldown activation is allowed again.
	after := t0.Add(121 * time.Second)
	if !e.CanActivate(TypeAdRush, after) {
		t.Error("CanActivate = false after cooldown elapsed")
	}
	if _, err := e.Activate(TypeAdRush, after); err != nil {
		t.Errorf("reactivation after cooldown: %v", err)
	}
}

func TestDuplicateTypeRejected(t *testing.T) {
	// A catalog entry with no cooldown but a long duration: reactivation
	// must still be rejected while an instance is live.
	catalog := NewCatalog([]Spec{
		{Type: "marathon", Multiplier: 2, Duration: time.Hour, Cooldown: 0, Source: SourceFree},
	})
	e := NewEngine(catalog, NewState())

	if _, err := e.Activate("marathon", t0); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := e.Activate("marathon", t0.Add(time.Minute)); err != ErrAlreadyActive {
		t.Errorf("err = %v, want ErrAlreadyActive", err)
	}
	if _, err := e.Activate("marathon", t0.Add(61*time.Minute)); err != nil {
		t.Errorf("reactivation after expiry: %v", err)
	}
}

func TestCoinGatedInventory(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())

	if e.CanActivate(TypeOverclock, t0) {
		t.Error("CanActivate = true with empty inventory")
	}
	if _, err := e.Activate(TypeOverclock, t0); err != ErrNoInventory {
		t.Errorf("err = %v, want ErrNoInventory", err)
	}

	e.AddInventory(TypeOverclock, 2)
	if _, err := e.Activate(TypeOverclock, t0); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := e.Inventory(TypeOverclock); got != 1 {
		t.Errorf("inventory after activation = %d, want 1", got)
	}

	// Negative additions are ignored; inventory never goes below zero.
	e.AddInventory(TypeOverclock, -5)
	if got := e.Inventory(TypeOverclock); got != 1 {
		t.Errorf("inventory after negative add = %d, want 1", got)
	}
}

func TestUnknownType(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())

	if e.CanActivate("nope", t0) {
		t.Error("CanActivate(unknown) = true")
	}
	if _, err := e.Activate("nope", t0); err != ErrUnknownType {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestSweepExpired(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())
	e.AddInventory(TypeOverclock, 1)

	e.Activate(TypeAdRush, t0)    // 30s duration
	e.Activate(TypeOverclock, t0) // 15s duration

	// Sweeping before expiry removes nothing and changes nothing.
	if removed := e.SweepExpired(t0.Add(10 * time.Second)); removed != 0 {
		t.Errorf("removed %d live boosts", removed)
	}
	if got := e.TotalMultiplier(t0.Add(10 * time.Second)); got != 10.0 {
		t.Errorf("TotalMultiplier after no-op sweep = %v, want 10", got)
	}

	if removed := e.SweepExpired(t0.Add(20 * time.Second)); removed != 1 {
		t.Errorf("removed %d boosts, want 1", removed)
	}
	if removed := e.SweepExpired(t0.Add(time.Minute)); removed != 1 {
		t.Errorf("removed %d boosts, want 1", removed)
	}
	if got := len(e.ActiveBoosts(t0.Add(time.Minute))); got != 0 {
		t.Errorf("%d boosts listed after full sweep, want 0", got)
	}
}

func TestRestoreCooldowns(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())

	lastUsed := map[Type]time.Time{
		TypeAdRush:    t0.Add(-30 * time.Second), // 2m cooldown, 90s left
		TypeOverclock: t0.Add(-10 * time.Minute), // 5m cooldown, expired
	}
	e.RestoreCooldowns(lastUsed, t0)

	if got := e.CooldownRemaining(TypeAdRush, t0); got != 90*time.Second {
		t.Errorf("ad_rush cooldown = %v, want 90s", got)
	}
	if got := e.CooldownRemaining(TypeOverclock, t0); got != 0 {
		t.Errorf("overclock cooldown = %v, want 0", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())
	e.AddInventory(TypeOverclock, 3)
	e.Activate(TypeAdRush, t0)

	snapshot := e.State()

	// Mutating the engine after the snapshot must not leak into it.
	e.AddInventory(TypeOverclock, 10)
	if snapshot.Inventory[TypeOverclock] != 3 {
		t.Errorf("snapshot inventory mutated: %d", snapshot.Inventory[TypeOverclock])
	}

	restored := NewEngine(DefaultCatalog(), snapshot)
	if got := restored.TotalMultiplier(t0.Add(time.Second)); got != 2.0 {
		t.Errorf("restored TotalMultiplier = %v, want 2", got)
	}
	if got := restored.CooldownRemaining(TypeAdRush, t0.Add(time.Second)); got != 119*time.Second {
		t.Errorf("restored cooldown = %v, want 119s", got)
	}
}

func TestReset(t *testing.T) {
	e := NewEngine(DefaultCatalog(), NewState())
	e.AddInventory(TypeOverclock, 5)
	e.Activate(TypeAdRush, t0)

	e.Reset()

	if got := e.TotalMultiplier(t0.Add(time.Second)); got != 1.0 {
		t.Errorf("TotalMultiplier after reset = %v, want 1", got)
	}
	if got := e.Inventory(TypeOverclock); got != 0 {
		t.Errorf("inventory after reset = %d, want 0", got)
	}
	if got := e.CooldownRemaining(TypeAdRush, t0.Add(time.Second)); got != 0 {
		t.Errorf("cooldown after reset = %v, want 0", got)
	}
}
