package types

import "errors"

var (
	// ErrNoMatchingRelease is returned when no stable release title matches the title pattern
	ErrNoMatchingRelease = errors.New("no matching release")

	// ErrNoMatchingAsset is returned when no asset of the selected release matches the asset pattern
	ErrNoMatchingAsset = errors.New("no matching asset")

	// ErrInvalidArgument is returned when a required input is missing or malformed.
	// It indicates a caller bug and is never recovered silently.
	ErrInvalidArgument = errors.New("invalid argument")
)
