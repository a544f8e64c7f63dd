package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrDuplicateName     = errors.New("name is already taken")
	ErrInvalidName       = errors.New("invalid player name")
	ErrAlreadyRegistered = errors.New("connection is already registered")
	ErrServerFull        = errors.New("server is full")
	ErrPlayerNotFound    = errors.New("player not found")

	// Guess errors
	ErrInvalidGuess       = errors.New("invalid guess")
	ErrRoundTransitioning = errors.New("round is over, waiting for the next one")

	// Round errors
	ErrInvalidRange = errors.New("invalid guess range")
)
