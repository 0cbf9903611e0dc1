package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/playforge/idle-season-service/internal/session"
	"github.com/playforge/idle-season-service/pkg/ads"
	"github.com/playforge/idle-season-service/pkg/boost"
	"github.com/playforge/idle-season-service/pkg/common"
	"github.com/playforge/idle-season-service/pkg/dailyreward"
	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/format"
	"github.com/playforge/idle-season-service/pkg/gameconfig"
	"github.com/playforge/idle-season-service/pkg/player"
	"github.com/playforge/idle-season-service/pkg/progression"
	"github.com/playforge/idle-season-service/pkg/rank"
)

// maxTapsPerRequest bounds tap batching so one request cannot replay
// an unbounded burst.
const maxTapsPerRequest = 100

// HTTPServer serves the player-facing game API.
type HTTPServer struct {
	server   *http.Server
	port     int
	sessions *session.Manager
	game     *gameconfig.GameConfig
	ads      ads.Presenter
	health   *player.HealthChecker

	rateLimit rate.Limit
	rateBurst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPServer creates the API server.
func NewHTTPServer(port int, sessions *session.Manager, game *gameconfig.GameConfig, presenter ads.Presenter, health *player.HealthChecker, perSecond float64, burst int) *HTTPServer {
	return &HTTPServer{
		port:      port,
		sessions:  sessions,
		game:      game,
		ads:       presenter,
		health:    health,
		rateLimit: rate.Limit(perSecond),
		rateBurst: burst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Setup builds the router.
func (s *HTTPServer) Setup() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1/players/{userID}", func(r chi.Router) {
		r.Use(s.rateLimiter)
		r.Get("/profile", s.handleProfile)
		r.Get("/shop", s.handleShop)
		r.Get("/history", s.handleHistory)
		r.Post("/taps", s.handleTaps)
		r.Post("/purchases", s.handlePurchase)
		r.Post("/boosts/{type}/activate", s.handleActivateBoost)
		r.Post("/offline/claim", s.handleOfflineClaim)
		r.Post("/prestige", s.handlePrestige)
		r.Post("/daily-reward/claim", s.handleDailyReward)
		r.Post("/ad-rewards/{rewardID}/claim", s.handleAdReward)
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Start begins serving in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("http server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("http server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down http server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("http server stopped")
	return nil
}

// rateLimiter throttles per player id so one hot client cannot starve
// the rest.
func (s *HTTPServer) rateLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		s.mu.Lock()
		limiter, ok := s.limiters[userID]
		if !ok {
			limiter = rate.NewLimiter(s.rateLimit, s.rateBurst)
			s.limiters[userID] = limiter
		}
		s.mu.Unlock()

		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.IsHealthy(r.Context()) {
		writeError(w, http.StatusServiceUnavailable, errors.New("redis unreachable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request) (*session.Session, *common.Scope, bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing user id"))
		return nil, nil, false
	}

	scope := common.NewScope(r.Context(), r.Method+" "+r.URL.Path)
	scope.SetAttribute("user.id", userID)

	sess, err := s.sessions.Get(scope.Ctx, userID)
	if err != nil {
		scope.TraceError(err)
		scope.Finish()
		scope.Log.Errorf("failed to load session for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to load player session"))
		return nil, nil, false
	}
	return sess, scope, true
}

type tapRequest struct {
	Count int `json:"count"`
}

type tapResponse struct {
	Taps          int      `json:"taps"`
	ValueCredited float64  `json:"valueCredited"`
	TotalTaps     float64  `json:"totalTaps"`
	TotalDisplay  string   `json:"totalDisplay"`
	CoinsAwarded  float64  `json:"coinsAwarded"`
	RankChanged   bool     `json:"rankChanged"`
	Rank          rankView `json:"rank"`
}

func (s *HTTPServer) handleTaps(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	req := tapRequest{Count: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("malformed body"))
			return
		}
	}
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Count > maxTapsPerRequest {
		req.Count = maxTapsPerRequest
	}

	now := time.Now()
	resp := tapResponse{Taps: req.Count}
	var last progression.TapResult
	for i := 0; i < req.Count; i++ {
		last = sess.Controller.ApplyTap(now)
		resp.ValueCredited += last.Value
		resp.CoinsAwarded += last.CoinsAwarded
		resp.RankChanged = resp.RankChanged || last.RankChanged
	}
	resp.TotalTaps = last.TotalTaps
	resp.TotalDisplay = format.Number(last.TotalTaps)
	resp.Rank = newRankView(last.Rank)

	writeJSON(w, http.StatusOK, resp)
}

type purchaseRequest struct {
	ItemID string `json:"itemId"`
}

func (s *HTTPServer) handlePurchase(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing itemId"))
		return
	}

	res, err := sess.Controller.PurchaseUpgrade(req.ItemID, time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleActivateBoost(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	boostType := boost.Type(chi.URLParam(r, "type"))
	spec, found := s.game.BoostCatalog().Get(boostType)
	if !found {
		writeError(w, http.StatusNotFound, boost.ErrUnknownType)
		return
	}

	// Ad-gated boosts require a completed rewarded ad before the
	// engine is even consulted.
	if spec.Source == boost.SourceRewardedAd {
		if !s.presentAd(w, scope, string(boostType)) {
			return
		}
	}

	b, err := sess.Controller.ActivateBoost(boostType, time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type offlineClaimRequest struct {
	Doubled bool `json:"doubled"`
}

func (s *HTTPServer) handleOfflineClaim(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	var req offlineClaimRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("malformed body"))
			return
		}
	}

	if req.Doubled {
		if !s.presentAd(w, scope, string(boost.TypeOfflineDoubler)) {
			return
		}
	}

	coins, err := sess.Controller.ClaimOfflineEarnings(req.Doubled, time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coins":        coins,
		"coinsDisplay": format.Number(coins),
		"doubled":      req.Doubled,
	})
}

func (s *HTTPServer) handlePrestige(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	res, err := sess.Controller.Prestige(time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleDailyReward(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	res, err := sess.Controller.ClaimDailyReward(time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleAdReward(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	rewardID := chi.URLParam(r, "rewardID")
	if !s.presentAd(w, scope, rewardID) {
		return
	}

	coins, err := sess.Controller.ClaimAdReward(rewardID, time.Now())
	if err != nil {
		scope.TraceError(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coins":        coins,
		"coinsDisplay": format.Number(coins),
	})
}

func (s *HTTPServer) handleShop(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	snap := sess.Controller.Snapshot()
	catalog := s.game.ShopCatalog()

	type shopEntry struct {
		economy.Item
		Level        int     `json:"level"`
		NextPrice    float64 `json:"nextPrice"`
		PriceDisplay string  `json:"priceDisplay"`
		Affordable   bool    `json:"affordable"`
	}
	entries := make([]shopEntry, 0)
	for _, item := range catalog.Items() {
		var level int
		if item.Kind == economy.KindBoostConsumable {
			level = sess.Controller.BoostInventory(boost.Type(item.BoostType))
		} else {
			level = snap.Level(item.ID, item.LevelFloor())
		}
		price := item.Price(level)
		entries = append(entries, shopEntry{
			Item:         item,
			Level:        level,
			NextPrice:    price,
			PriceDisplay: format.Number(price),
			Affordable:   snap.Coins >= price && level < item.MaxLevel,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	scope := common.NewScope(r.Context(), "GET /v1/players/history")
	defer scope.Finish()

	histories, err := s.sessions.History(scope.Ctx, userID)
	if err != nil {
		scope.TraceError(err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to load history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"seasons": histories})
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, scope, ok := s.session(w, r)
	if !ok {
		return
	}
	defer scope.Finish()

	now := time.Now()
	snap := sess.Controller.Snapshot()
	record := sess.Controller.Record()
	current := sess.Controller.Season()

	pendingOffline, hasPending := sess.Controller.PendingOfflineEarnings()

	resp := map[string]interface{}{
		"userId": sess.UserID,
		"season": map[string]interface{}{
			"id":        current.ID,
			"name":      current.Name,
			"remaining": current.RemainingLabel(now),
		},
		"taps":                        snap.CurrentSeasonTaps,
		"tapsDisplay":                 format.Number(snap.CurrentSeasonTaps),
		"coins":                       snap.Coins,
		"coinsDisplay":                format.Number(snap.Coins),
		"rank":                        newRankView(sess.Controller.CurrentRank()),
		"progress":                    sess.Controller.Progress(),
		"progressDisplay":             format.Percent(sess.Controller.Progress()),
		"multiplier":                  snap.SeasonBaseMultiplier,
		"multiplierDisplay":           format.Multiplier(snap.SeasonBaseMultiplier),
		"prestigeCount":               snap.PrestigeCount,
		"canPrestige":                 sess.Controller.CanPrestige(),
		"projectedPrestigeMultiplier": sess.Controller.ProjectedPrestigeMultiplier(),
		"upgradeLevels":               snap.UpgradeLevels,
		"activeBoosts":                sess.Controller.ActiveBoosts(now),
		"boostMultiplier":             sess.Controller.BoostMultiplier(now),
		"lifetime": map[string]interface{}{
			"taps":        record.LifetimeTaps,
			"bestRank":    record.LifetimeBestRank,
			"dailyStreak": record.DailyRewardStreak,
		},
	}
	if hasPending {
		resp["pendingOfflineEarnings"] = pendingOffline
	}
	writeJSON(w, http.StatusOK, resp)
}

// presentAd runs the rewarded-ad flow and reports whether the reward
// was granted, writing the refusal response itself otherwise.
func (s *HTTPServer) presentAd(w http.ResponseWriter, scope *common.Scope, placement string) bool {
	if s.ads == nil || !s.ads.CanShowRewardedAd() {
		writeError(w, http.StatusConflict, ads.ErrNotGranted)
		return false
	}
	outcome, err := s.ads.ShowRewardedAd(scope.Ctx, placement)
	if err != nil {
		scope.TraceError(err)
		writeError(w, http.StatusBadGateway, ads.ErrNotGranted)
		return false
	}
	if !outcome.Granted() {
		writeError(w, http.StatusForbidden, ads.ErrNotGranted)
		return false
	}
	scope.TraceEvent("rewarded ad granted: " + placement)
	return true
}

type rankView struct {
	Index        int     `json:"index"`
	Tier         int     `json:"tier"`
	Level        int     `json:"level"`
	Threshold    float64 `json:"threshold"`
	DisplayName  string  `json:"displayName"`
	ShortName    string  `json:"shortName"`
	LevelNumeral string  `json:"levelNumeral"`
}

func newRankView(r rank.Rank) rankView {
	return rankView{
		Index:        r.Index,
		Tier:         r.Tier,
		Level:        r.Level,
		Threshold:    r.Threshold,
		DisplayName:  r.DisplayName(),
		ShortName:    r.ShortName(),
		LevelNumeral: r.LevelNumeral(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps core failure reasons onto HTTP statuses. All
// of them are expected, recoverable outcomes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, economy.ErrUnknownItem),
		errors.Is(err, boost.ErrUnknownType),
		errors.Is(err, ads.ErrUnknownReward):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, boost.ErrOnCooldown),
		errors.Is(err, ads.ErrRewardOnCooldown):
		writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, economy.ErrInsufficientFunds),
		errors.Is(err, economy.ErrMaxLevelReached),
		errors.Is(err, boost.ErrNoInventory),
		errors.Is(err, boost.ErrAlreadyActive),
		errors.Is(err, progression.ErrNotEligible),
		errors.Is(err, progression.ErrNoPendingClaim),
		errors.Is(err, dailyreward.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
