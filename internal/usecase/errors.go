package usecase

import "errors"

// Error taxonomy. Every one of these is recovered at the command-router
// boundary and turned into a fixed user-facing reply; none may escape a
// message handler.
var (
	// ErrUnavailable: the store is unreachable after one reconnect+retry.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound: catalog or ledger lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSession: a checkout already exists for this session id
	// (or is currently in flight for this buyer and title).
	ErrDuplicateSession = errors.New("duplicate checkout session")

	// ErrUnknownOrder: the ledger has no order for this session id.
	// Kept separate from ErrNotFound so the router can distinguish a
	// missing local order from an invalid external session.
	ErrUnknownOrder = errors.New("no order for session")

	// ErrTransient: the payment gateway call failed; retryable.
	ErrTransient = errors.New("payment gateway unavailable")

	// ErrInvalidInput: a required command argument is missing.
	ErrInvalidInput = errors.New("invalid input")
)
