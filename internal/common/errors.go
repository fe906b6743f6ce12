// Package common defines shared constants and sentinel errors used across
// the bot and the mini-app backend. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrStorage    = errors.New("storage error")

	// Service-level errors.
	ErrorForbidden = errors.New("forbidden")

	// Reputation errors.
	ErrSelfGrant = errors.New("cannot grant a star to yourself")

	// Edit token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
