package teams

import "errors"

// ErrTeamNotFound is returned when a team id or login has no row.
var ErrTeamNotFound = errors.New("team not found")
