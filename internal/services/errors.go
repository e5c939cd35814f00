package services

import "errors"

// ECL service errors
var (
	// Input errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrTooManyLoans    = errors.New("portfolio exceeds the configured loan limit")
	ErrEmptyPortfolio  = errors.New("portfolio has no loans")

	// File errors
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFileType = errors.New("invalid file type")

	// General errors
	ErrOperationTimeout = errors.New("operation timed out")
)
