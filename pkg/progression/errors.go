package progression

import "errors"

// Progression-specific failure reasons. Economy and boost failures
// pass through from their own packages.
var (
	// ErrNotEligible rejects a prestige below the minimum rank.
	ErrNotEligible = errors.New("rank below prestige minimum")
	// ErrNoPendingClaim rejects an offline-earnings claim with nothing
	// computed or already claimed.
	ErrNoPendingClaim = errors.New("no pending offline earnings claim")
)
