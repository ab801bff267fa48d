package domain

import "time"

// Role is the author of a conversation message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is a single entry of the onboarding transcript.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	Step      Step       `json:"step,omitempty"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// Snapshot is the serialisable form of an onboarding session.
type Snapshot struct {
	WebsiteID      string        `json:"websiteId"`
	Version        int           `json:"version"`
	Cursor         Step          `json:"cursor"`
	State          State         `json:"state"`
	Messages       []Message     `json:"messages"`
	Hidden         []SectionType `json:"hidden,omitempty"`
	Base           *Document     `json:"base,omitempty"`
	InputBuffer    string        `json:"inputBuffer,omitempty"`
	PendingSkip    bool          `json:"pendingSkip,omitempty"`
	PrefilledBase  bool          `json:"prefilledBase,omitempty"`
	PrefilledFacts bool          `json:"prefilledFacts,omitempty"`
	Completed      bool          `json:"completed,omitempty"`
}
