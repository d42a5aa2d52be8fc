package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAspectRatio is returned when an aspect ratio is not one of
	// the values the generation provider accepts.
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")

	// ErrVideoNotFound is returned when an approval operation references a
	// video URL that is not recorded on the card.
	ErrVideoNotFound = errors.New("video not found on card")
)

// ValidAspectRatios lists the aspect ratio values accepted for decks.
var ValidAspectRatios = []string{"16:9", "9:16", "1:1", "Auto"}

// IsValidAspectRatio reports whether the given value is an accepted aspect ratio.
func IsValidAspectRatio(ratio string) bool {
	for _, r := range ValidAspectRatios {
		if ratio == r {
			return true
		}
	}
	return false
}
