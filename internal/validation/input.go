package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

// MaxEventsPerGame bounds the event list of a create request
const MaxEventsPerGame = 100

var playerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateGameID validates game ID format
func ValidateGameID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.Validation("validate", "game ID must be a UUID")
	}
	return nil
}

// ValidatePlayerID validates a caller-supplied player ID
func ValidatePlayerID(id string) error {
	if len(id) == 0 || len(id) > 64 {
		return errs.Validation("validate", "player ID must be 1-64 characters")
	}
	if !playerIDPattern.MatchString(id) {
		return errs.Validation("validate", "player ID can only contain alphanumeric characters, hyphens, and underscores")
	}
	return nil
}

// ValidateName validates a display name of a player or group
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 80 {
		return errs.Validation("validate", "%s must be 1-80 characters", field)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errs.Validation("validate", "%s contains control characters", field)
		}
	}
	return nil
}

// ValidateEventIDs checks the size of an event list. Unknown ids are
// rejected later by the catalog.
func ValidateEventIDs(ids []int) error {
	if len(ids) == 0 {
		return errs.Validation("validate", "at least one event is required")
	}
	if len(ids) > MaxEventsPerGame {
		return errs.Validation("validate", "at most %d events are allowed", MaxEventsPerGame)
	}
	return nil
}
