package repository

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrProfileNotFound = errors.New("profile not found")
)
