package domain

import "time"

type ViolationType int

const (
	VIOLATION_LEFT_APP ViolationType = iota
	VIOLATION_FORBIDDEN_APP
	VIOLATION_IDLE_TOO_LONG
	VIOLATION_APP_CLOSED
)

func (t ViolationType) String() string {
	switch t {
	case VIOLATION_LEFT_APP:
		return "LEFT_APP"
	case VIOLATION_FORBIDDEN_APP:
		return "FORBIDDEN_APP"
	case VIOLATION_IDLE_TOO_LONG:
		return "IDLE_TOO_LONG"
	case VIOLATION_APP_CLOSED:
		return "APP_CLOSED"
	}
	return "UNKNOWN"
}

// Violation is one focus-loss event. Append-only, never mutated.
type Violation struct {
	ParticipantId string        `json:"participantId"`
	Type          ViolationType `json:"type"`
	Description   string        `json:"description"`
	Timestamp     time.Time     `json:"timestamp"`
}

type MessageKind int

const (
	MESSAGE_CHAT MessageKind = iota
	MESSAGE_SYSTEM
	MESSAGE_ACHIEVEMENT
	MESSAGE_VIOLATION
)

// Message is the room event-log envelope. Exactly one payload pointer is
// non-nil, matching Kind.
type Message struct {
	Kind        MessageKind         `json:"kind"`
	Timestamp   time.Time           `json:"timestamp"`
	Chat        *ChatPayload        `json:"chat,omitempty"`
	System      *SystemPayload      `json:"system,omitempty"`
	Achievement *AchievementPayload `json:"achievement,omitempty"`
	Violation   *Violation          `json:"violation,omitempty"`
}

type ChatPayload struct {
	From string `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type SystemPayload struct {
	Text string `json:"text"`
}

type AchievementPayload struct {
	ParticipantId string `json:"participantId"`
	Title         string `json:"title"`
}

func NewChatMessage(from, name, text string, at time.Time) Message {
	return Message{Kind: MESSAGE_CHAT, Timestamp: at, Chat: &ChatPayload{From: from, Name: name, Text: text}}
}

func NewSystemMessage(text string, at time.Time) Message {
	return Message{Kind: MESSAGE_SYSTEM, Timestamp: at, System: &SystemPayload{Text: text}}
}

func NewViolationMessage(v Violation) Message {
	return Message{Kind: MESSAGE_VIOLATION, Timestamp: v.Timestamp, Violation: &v}
}
