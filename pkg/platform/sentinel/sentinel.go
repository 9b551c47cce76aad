package sentinel

import "errors"

// Infrastructure facts returned by stores, optionally wrapped. Services translate
// them into domain errors at their boundary:
//   - ErrNotFound: no record for the key
//   - ErrAlreadyUsed: a unique key (username, participant identifier) is taken
//   - ErrUnavailable: backing system unreachable
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
