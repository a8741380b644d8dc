package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for a bad login/password pair.
	// It is deliberately the same for unknown logins and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid login or password")
	// ErrTokenExpired is returned for a structurally valid but stale token.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken covers malformed tokens, bad signatures and tokens
	// whose team no longer exists.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongRole is returned when a validated identity lacks the role an
	// operation requires.
	ErrWrongRole = errors.New("wrong role for this operation")
	// ErrLoginTaken is returned when registering a duplicate login.
	ErrLoginTaken = errors.New("login already exists")
	// ErrAdminReserved is returned when registering the reserved login.
	ErrAdminReserved = errors.New("login 'admin' is reserved")
	// ErrAdminEndpoint is returned when the admin tries the team login.
	ErrAdminEndpoint = errors.New("admin must use the admin login endpoint")
)
