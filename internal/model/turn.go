package model

import "strings"

// Role is the author role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is allowed in inbound transcripts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Attachment is a file attached to a user turn. Data is base64 for binary
// media and raw text for text media.
type Attachment struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Data      string `json:"data"`
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MediaType, "image/")
}

// IsText reports whether the attachment carries inline text.
func (a Attachment) IsText() bool {
	return strings.HasPrefix(a.MediaType, "text/") || a.MediaType == "application/json"
}

// Turn is one message in the shared conversation transcript. Assistant
// turns produced by this system carry the participant name as attribution
// so later participants can reference who said what.
type Turn struct {
	Role            Role         `json:"role"`
	Content         string       `json:"content"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	ParticipantName string       `json:"participantName,omitempty"`
}
