package boost

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ActiveBoost is one running instance of a boost type.
type ActiveBoost struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Multiplier float64   `json:"multiplier"`
}

// Live reports whether the boost still counts at the given instant.
// Expiry is a pure time comparison; sweeping is never required for
// correctness.
func (b ActiveBoost) Live(now time.Time) bool {
	return now.Before(b.EndTime)
}

// Remaining is the time until expiry, floored at zero.
func (b ActiveBoost) Remaining(now time.Time) time.Duration {
	d := b.EndTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// State is the serializable boost bookkeeping for one player: running
// boosts, per-type cooldown expiries and consumable inventory.
type State struct {
	Active    []ActiveBoost      `json:"active"`
	Cooldowns map[Type]time.Time `json:"cooldowns"`
	Inventory map[Type]int       `json:"inventory"`
}

// NewState returns empty boost bookkeeping.
func NewState() State {
	return State{
		Cooldowns: make(map[Type]time.Time),
		Inventory: make(map[Type]int),
	}
}

// Engine applies the boost activation rules over a State. It holds no
// clock of its own; every method takes the current instant so tests can
// simulate time.
type Engine struct {
	catalog *Catalog
	state   State
}

// NewEngine builds an engine over the given catalog and initial state.
func NewEngine(catalog *Catalog, state State) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if state.Cooldowns == nil {
		state.Cooldowns = make(map[Type]time.Time)
	}
	if state.Inventory == nil {
		state.Inventory = make(map[Type]int)
	}
	return &Engine{catalog: catalog, state: state}
}

// Catalog returns the boost catalog in effect.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// State returns a copy of the current bookkeeping for persistence.
func (e *Engine) State() State {
	out := State{
		Active:    append([]ActiveBoost(nil), e.state.Active...),
		Cooldowns: make(map[Type]time.Time, len(e.state.Cooldowns)),
		Inventory: make(map[Type]int, len(e.state.Inventory)),
	}
	for t, at := range e.state.Cooldowns {
		out.Cooldowns[t] = at
	}
	for t, n := range e.state.Inventory {
		out.Inventory[t] = n
	}
	return out
}

// CanActivate reports whether Activate would succeed for the type right
// now: not on cooldown, not already running, and, for coin-gated types,
// at least one charge in inventory.
func (e *Engine) CanActivate(t Type, now time.Time) bool {
	spec, ok := e.catalog.Get(t)
	if !ok {
		return false
	}
	if e.onCooldown(t, now) || e.hasLive(t, now) {
		return false
	}
	if spec.Source == SourceCoins && e.state.Inventory[t] <= 0 {
		return false
	}
	return true
}

// Activate starts a boost of the given type. Coin-gated types consume
// one inventory charge atomically with the activation; types with a
// cooldown enter cooldown immediately.
func (e *Engine) Activate(t Type, now time.Time) (ActiveBoost, error) {
	spec, ok := e.catalog.Get(t)
	if !ok {
		return ActiveBoost{}, ErrUnknownType
	}
	if e.onCooldown(t, now) {
		return ActiveBoost{}, ErrOnCooldown
	}
	if e.hasLive(t, now) {
		return ActiveBoost{}, ErrAlreadyActive
	}
	if spec.Source == SourceCoins {
		if e.state.Inventory[t] <= 0 {
			return ActiveBoost{}, ErrNoInventory
		}
		e.state.Inventory[t]--
	}

	b := ActiveBoost{
		ID:         uuid.New(),
		Type:       t,
		StartTime:  now,
		EndTime:    now.Add(spec.Duration),
		Multiplier: spec.Multiplier,
	}
	e.state.Active = append(e.state.Active, b)
	if spec.Cooldown > 0 {
		e.state.Cooldowns[t] = now.Add(spec.Cooldown)
	}

	logrus.Debugf("activated boost %s x%.1f for %v", t, spec.Multiplier, spec.Duration)
	return b, nil
}

// TotalMultiplier is the product of all live boost multipliers, 1.0
// when none are running. Different types stack multiplicatively.
func (e *Engine) TotalMultiplier(now time.Time) float64 {
	total := 1.0
	for _, b := range e.state.Active {
		if b.Live(now) {
			total *= b.Multiplier
		}
	}
	return total
}

// ActiveBoosts lists the boosts still live at the given instant.
func (e *Engine) ActiveBoosts(now time.Time) []ActiveBoost {
	var out []ActiveBoost
	for _, b := range e.state.Active {
		if b.Live(now) {
			out = append(out, b)
		}
	}
	return out
}

// SweepExpired drops expired boosts from the active list. Memory and
// UI-listing hygiene only; TotalMultiplier already ignores them.
func (e *Engine) SweepExpired(now time.Time) int {
	kept := e.state.Active[:0]
	removed := 0
	for _, b := range e.state.Active {
		if b.Live(now) {
			kept = append(kept, b)
		} else {
			removed++
		}
	}
	e.state.Active = kept
	return removed
}

// CooldownRemaining is the time until the type can next be activated,
// zero when no cooldown applies.
func (e *Engine) CooldownRemaining(t Type, now time.Time) time.Duration {
	until, ok := e.state.Cooldowns[t]
	if !ok || !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

// Inventory returns the charge count for a type.
func (e *Engine) Inventory(t Type) int {
	return e.state.Inventory[t]
}

// AddInventory adds purchased or rewarded charges for a type.
func (e *Engine) AddInventory(t Type, n int) {
	if n <= 0 {
		return
	}
	e.state.Inventory[t] += n
}

// RestoreCooldowns rebuilds cooldown expiries from persisted last-used
// timestamps after a cold start. Expiries already in the past are not
// restored.
func (e *Engine) RestoreCooldowns(lastUsed map[Type]time.Time, now time.Time) {
	for t, usedAt := range lastUsed {
		spec, ok := e.catalog.Get(t)
		if !ok || spec.Cooldown == 0 {
			continue
		}
		until := usedAt.Add(spec.Cooldown)
		if now.Before(until) {
			e.state.Cooldowns[t] = until
		}
	}
}

// Reset clears all boosts, cooldowns and inventory. Used by prestige.
func (e *Engine) Reset() {
	e.state = NewState()
}

func (e *Engine) onCooldown(t Type, now time.Time) bool {
	until, ok := e.state.Cooldowns[t]
	return ok && now.Before(until)
}

func (e *Engine) hasLive(t Type, now time.Time) bool {
	for _, b := range e.state.Active {
		if b.Type == t && b.Live(now) {
			return true
		}
	}
	return false
}
