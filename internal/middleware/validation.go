package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) > 200000 { // ~200KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateParticipantName validates a participant display name.
func ValidateParticipantName(name string) error {
	if len(name) == 0 {
		return errors.New("participant name cannot be empty")
	}
	if len(name) > 64 {
		return errors.New("participant name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("participant name must be valid UTF-8")
	}
	return nil
}
