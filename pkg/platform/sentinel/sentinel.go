package sentinel

import "errors"

// Store-level facts. Stores return these (optionally wrapped with %w) and services
// translate them into coded domain errors:
//   - ErrNotFound: no row for the lookup key
//   - ErrAlreadyUsed: a unique key is taken (invite code, membership pair, token hash)
//     or a single-use transition already happened (invitation accepted)
//   - ErrConflict: optimistic write lost to a concurrent writer
//   - ErrUnavailable: backend temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
