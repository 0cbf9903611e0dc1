// Package session holds the live player sessions: one progression
// controller per connected player, plus the background timers that
// autosave, sweep boosts and roll seasons over.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/pkg/events"
	"github.com/playforge/idle-season-service/pkg/gameconfig"
	"github.com/playforge/idle-season-service/pkg/metrics"
	"github.com/playforge/idle-season-service/pkg/player"
	"github.com/playforge/idle-season-service/pkg/progression"
)

// Default timer tuning. Overridable through Options.
const (
	DefaultAutosaveInterval    = 30 * time.Second
	DefaultSeasonCheckInterval = 10 * time.Second
	DefaultBoostSweepInterval  = time.Second
	DefaultIdleTimeout         = 15 * time.Minute

	saveTimeout = 5 * time.Second
)

// Options tunes the session timers.
type Options struct {
	AutosaveInterval    time.Duration
	SeasonCheckInterval time.Duration
	BoostSweepInterval  time.Duration
	IdleTimeout         time.Duration
}

func (o Options) withDefaults() Options {
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = DefaultAutosaveInterval
	}
	if o.SeasonCheckInterval <= 0 {
		o.SeasonCheckInterval = DefaultSeasonCheckInterval
	}
	if o.BoostSweepInterval <= 0 {
		o.BoostSweepInterval = DefaultBoostSweepInterval
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	return o
}

// Session is one player's live progression plus its lifecycle state.
type Session struct {
	UserID     string
	Controller *progression.Controller

	lastActive time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// Manager owns the session table. Sessions are created on first use,
// persisted on a timer and on eviction, and evicted after the idle
// timeout.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store player.Store
	game  *gameconfig.GameConfig
	sink  events.Sink
	opts  Options
}

// NewManager builds a session manager over a player store and tuning
// snapshot.
func NewManager(store player.Store, game *gameconfig.GameConfig, sink events.Sink, opts Options) *Manager {
	if game == nil {
		game = gameconfig.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		game:     game,
		sink:     sink,
		opts:     opts.withDefaults(),
	}
}

// Get returns the player's session, creating and hydrating it from the
// store on first use. Offline earnings are computed once here, at
// session start.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	now := time.Now()

	m.mu.Lock()
	if sess, ok := m.sessions[userID]; ok {
		sess.lastActive = now
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	// Hydrate outside the table lock; a concurrent Get for the same
	// user is resolved below by keeping the first session inserted.
	current := m.game.SeasonFor(now)
	state, err := m.store.GetSeasonState(ctx, userID, current.ID)
	if err != nil {
		return nil, err
	}
	record, err := m.store.GetUserRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctrl := progression.NewController(progression.Params{
		UserID:          userID,
		Season:          current,
		ShopCatalog:     m.game.ShopCatalog(),
		BoostCatalog:    m.game.BoostCatalog(),
		DailyRewards:    m.game.DailyRewardTable(),
		AdRewards:       m.game.AdRewardCatalog(),
		Sink:            m.sink,
		State:           state,
		Record:          record,
		MinPrestigeRank: m.game.MinPrestigeRank,
	}, now)
	ctrl.ComputeOfflineEarnings(now)

	runCtx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		UserID:     userID,
		Controller: ctrl,
		lastActive: now,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		cancel()
		close(sess.done)
		return existing, nil
	}
	m.sessions[userID] = sess
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logrus.Infof("session started for user %s in season %s", userID, current.ID)
	go m.run(runCtx, sess)
	return sess, nil
}

// History returns the archived seasons for a user. It reads straight from
// the store and does not require a live session.
func (m *Manager) History(ctx context.Context, userID string) ([]*player.SeasonHistory, error) {
	return m.store.ListSeasonHistory(ctx, userID)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown persists and stops every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		<-s.done
		m.save(ctx, s)
		metrics.ActiveSessions.Dec()
	}
	logrus.Infof("session manager stopped, %d sessions persisted", len(sessions))
}

// run drives one session's timers until eviction or shutdown.
func (m *Manager) run(ctx context.Context, sess *Session) {
	defer close(sess.done)

	autosave := time.NewTicker(m.opts.AutosaveInterval)
	defer autosave.Stop()
	seasonCheck := time.NewTicker(m.opts.SeasonCheckInterval)
	defer seasonCheck.Stop()
	sweep := time.NewTicker(m.opts.BoostSweepInterval)
	defer sweep.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			return

		// The sweep tick also drives auto-tapper accrual: passive taps
		// earn only while the session is live, offline earnings cover
		// the rest.
		case now := <-sweep.C:
			sess.Controller.SweepBoosts(now)
			sess.Controller.ApplyAutoTaps(now.Sub(lastTick), now)
			lastTick = now

		case <-autosave.C:
			saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			m.save(saveCtx, sess)
			cancel()
			if m.evictIfIdle(sess) {
				return
			}

		case <-seasonCheck.C:
			m.rolloverIfEnded(sess)
		}
	}
}

// save persists the session's state and record. The activity stamp is
// refreshed first: the player was online up to this save, so offline
// earnings must not cover that span. Persistence failures are logged,
// never surfaced to the game loop.
func (m *Manager) save(ctx context.Context, sess *Session) {
	sess.Controller.Touch(time.Now())
	seasonID := sess.Controller.Season().ID
	if err := m.store.SaveSeasonState(ctx, sess.UserID, seasonID, sess.Controller.Snapshot()); err != nil {
		logrus.Errorf("failed to save season state for user %s: %v", sess.UserID, err)
	}
	record := sess.Controller.Record()
	if err := m.store.SaveUserRecord(ctx, sess.UserID, &record); err != nil {
		logrus.Errorf("failed to save user record for user %s: %v", sess.UserID, err)
	}
}

// evictIfIdle removes a session past the idle timeout. The state was
// just autosaved, so eviction loses nothing.
func (m *Manager) evictIfIdle(sess *Session) bool {
	m.mu.Lock()
	idle := time.Since(sess.lastActive) >= m.opts.IdleTimeout
	if idle {
		delete(m.sessions, sess.UserID)
	}
	m.mu.Unlock()

	if idle {
		sess.cancel()
		metrics.ActiveSessions.Dec()
		logrus.Infof("session for user %s evicted after idle timeout", sess.UserID)
	}
	return idle
}

// rolloverIfEnded archives a finished season and starts the next one.
func (m *Manager) rolloverIfEnded(sess *Session) {
	now := time.Now()
	current := sess.Controller.Season()
	if !current.HasEnded(now) {
		return
	}

	hist := sess.Controller.RolloverSeason(current.Next(), now)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.store.ArchiveSeasonHistory(ctx, sess.UserID, hist); err != nil {
		logrus.Errorf("failed to archive season %s for user %s: %v", hist.SeasonID, sess.UserID, err)
	}
	m.save(ctx, sess)
}
