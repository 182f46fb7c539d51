package interfaces

import "errors"

var (
	// ErrNotFound is returned when a queried document does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrNoInventory is returned by DealRepository.RedeemOne when the
	// conditional increment matched no row: the deal is missing, not active,
	// or its inventory is exhausted.
	ErrNoInventory = errors.New("repository: no redeemable inventory")

	// ErrDuplicate is returned on unique-index violations.
	ErrDuplicate = errors.New("repository: duplicate key")
)
