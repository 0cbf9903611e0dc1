package player

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// seasonStateTTL bounds how long an abandoned season document is
	// kept. Seasons run for weeks; half a year of retention comfortably
	// covers rollover and support lookups.
	seasonStateTTL = 180 * 24 * time.Hour

	seasonStateKeyPrefix = "idle_season:season_state:"
	userRecordKeyPrefix  = "idle_season:user_record:"
	historyKeyPrefix     = "idle_season:season_history:"
)

// RedisStore implements Store on Redis. Documents are JSON; time.Time
// fields round-trip through RFC 3339 with nanoseconds, which preserves
// the sub-second precision that boost cooldown reconstruction needs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed player store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func seasonStateKey(userID, seasonID string) string {
	return fmt.Sprintf("%s%s:%s", seasonStateKeyPrefix, userID, seasonID)
}

func userRecordKey(userID string) string {
	return userRecordKeyPrefix + userID
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}

// GetSeasonState retrieves the season state for a player, returning a
// fresh state when the player has not played this season yet.
func (r *RedisStore) GetSeasonState(ctx context.Context, userID, seasonID string) (*SeasonState, error) {
	data, err := r.client.Get(ctx, seasonStateKey(userID, seasonID)).Result()
	if err == redis.Nil {
		logrus.Infof("no season state for user %s in season %s, returning new state", userID, seasonID)
		return NewSeasonState(time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season state: %w", err)
	}

	var state SeasonState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal season state: %w", err)
	}
	state.EnsureMaps()
	return &state, nil
}

// SaveSeasonState persists the season state for a player.
func (r *RedisStore) SaveSeasonState(ctx context.Context, userID, seasonID string, state *SeasonState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal season state: %w", err)
	}
	if err := r.client.Set(ctx, seasonStateKey(userID, seasonID), data, seasonStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save season state: %w", err)
	}
	return nil
}

// GetUserRecord retrieves the cross-season record for a user, creating
// a fresh one when none exists.
func (r *RedisStore) GetUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	data, err := r.client.Get(ctx, userRecordKey(userID)).Result()
	if err == redis.Nil {
		logrus.Infof("no user record for %s, returning new record", userID)
		return NewUserRecord(time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user record: %w", err)
	}

	var record UserRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user record: %w", err)
	}
	return &record, nil
}

// SaveUserRecord persists the cross-season record. Lifetime totals have
// no expiry.
func (r *RedisStore) SaveUserRecord(ctx context.Context, userID string, record *UserRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}
	if err := r.client.Set(ctx, userRecordKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user record: %w", err)
	}
	return nil
}

// ArchiveSeasonHistory appends a finished season's terminal values to
// the user's history hash, keyed by season id so a retried rollover
// overwrites rather than duplicates.
func (r *RedisStore) ArchiveSeasonHistory(ctx context.Context, userID string, history *SeasonHistory) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal season history: %w", err)
	}
	if err := r.client.HSet(ctx, historyKey(userID), history.SeasonID, data).Err(); err != nil {
		return fmt.Errorf("failed to archive season history: %w", err)
	}
	return nil
}

// ListSeasonHistory returns every archived season for a user.
func (r *RedisStore) ListSeasonHistory(ctx context.Context, userID string) ([]*SeasonHistory, error) {
	entries, err := r.client.HGetAll(ctx, historyKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list season history: %w", err)
	}

	out := make([]*SeasonHistory, 0, len(entries))
	for seasonID, data := range entries {
		var h SeasonHistory
		if err := json.Unmarshal([]byte(data), &h); err != nil {
			logrus.Errorf("skipping corrupt season history %s for user %s: %v", seasonID, userID, err)
			continue
		}
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeasonID < out[j].SeasonID })
	return out, nil
}
