package model

import "errors"

var (
	// Security errors. All three map to one uniform "authentication failed"
	// response at the HTTP boundary so callers get no oracle about which
	// check rejected them.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidAccessToken  = errors.New("invalid access token")

	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Session related errors
	ErrSessionNotFound = errors.New("session not found")

	// Infrastructure errors. ErrStoreUnavailable is the only kind callers
	// should retry; it carries no security meaning.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
