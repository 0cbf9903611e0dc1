package player

import "context"

// Store is the persistence collaborator for player progression. The
// progression core never performs I/O itself; the session layer loads
// through a Store at session start and writes back on a timer. Having
// an interface here keeps the core testable without Redis.
type Store interface {
	// GetSeasonState loads the state for (userID, seasonID), returning a
	// fresh state when none exists.
	GetSeasonState(ctx context.Context, userID, seasonID string) (*SeasonState, error)
	// SaveSeasonState persists the state for (userID, seasonID).
	SaveSeasonState(ctx context.Context, userID, seasonID string, state *SeasonState) error

	// GetUserRecord loads the cross-season record for a user, returning
	// a fresh record when none exists.
	GetUserRecord(ctx context.Context, userID string) (*UserRecord, error)
	// SaveUserRecord persists the cross-season record.
	SaveUserRecord(ctx context.Context, userID string, record *UserRecord) error

	// ArchiveSeasonHistory stores the terminal values of a finished
	// season.
	ArchiveSeasonHistory(ctx context.Context, userID string, history *SeasonHistory) error
	// ListSeasonHistory returns the archived seasons for a user.
	ListSeasonHistory(ctx context.Context, userID string) ([]*SeasonHistory, error)
}
