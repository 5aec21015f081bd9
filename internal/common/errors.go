package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Page errors
	ErrPageNotFound  = errors.New("page not found")
	ErrEmptyPageName = errors.New("page name is empty")

	// Storage errors
	ErrStaleNode = errors.New("stale node: update by id matched no row")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)
