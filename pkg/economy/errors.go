package economy

import "errors"

var (
	// ErrInsufficientFunds indicates the player cannot afford a purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMaxLevelReached indicates an upgrade is already at its level cap.
	ErrMaxLevelReached = errors.New("max level reached")

	// ErrUnknownItem indicates a purchase referenced an item id that is
	// not in the catalog.
	ErrUnknownItem = errors.New("unknown shop item")
)
