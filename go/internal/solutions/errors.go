package solutions

import "errors"

var (
	// ErrSolutionNotFound is returned when no ledger row matches.
	ErrSolutionNotFound = errors.New("solution not found")
	// ErrConflict is returned when the pair already has a submission in
	// verification; a second submission must not overwrite it.
	ErrConflict = errors.New("solution already submitted")
	// ErrBadVerdict is returned for a resolve verdict outside approve/reject.
	ErrBadVerdict = errors.New("verdict must be approve or reject")
)
