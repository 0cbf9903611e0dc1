package boost

import "errors"

var (
	// ErrOnCooldown indicates the boost type cannot be activated until
	// its cooldown expires.
	ErrOnCooldown = errors.New("boost on cooldown")

	// ErrNoInventory indicates a coin-gated boost has no charges left.
	ErrNoInventory = errors.New("no boost inventory")

	// ErrAlreadyActive indicates an instance of the boost type is still
	// running.
	ErrAlreadyActive = errors.New("boost already active")

	// ErrUnknownType indicates the boost type is not in the catalog.
	ErrUnknownType = errors.New("unknown boost type")
)
