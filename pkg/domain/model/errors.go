package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared by all layers. Wrap with goerr.Wrap and test with errors.Is.
var (
	// ErrNotFound: the referenced plant does not exist. No side effects occurred.
	ErrNotFound = goerr.New("not found")

	// ErrEngine: the reasoning engine was unreachable, timed out or refused. Safe to retry.
	ErrEngine = goerr.New("reasoning engine error")

	// ErrMalformedResponse: the engine replied but the payload failed validation. No side effects occurred.
	ErrMalformedResponse = goerr.New("malformed engine response")

	// ErrStore: the persistence medium failed
	ErrStore = goerr.New("store error")

	// ErrInvalidInput: caller supplied an invalid argument
	ErrInvalidInput = goerr.New("invalid input")
)

// Keys for goerr values
const (
	PlantIDKey = "plant_id"
	EntryIDKey = "entry_id"
	KeyKey     = "key"
)
