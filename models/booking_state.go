package models

import (
	"errors"
	"time"
)

// Slot is a concrete start/end window offered to or chosen by the user.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ChatMessage is one entry of the conversational context passed to the agent.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// UserProfile caches user details used to enrich calendar event descriptions.
type UserProfile struct {
	TelegramID string `json:"telegramId"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// DisplayName returns the best human label we have for the user, falling
// back to an id-based label when no profile name is known.
func (p *UserProfile) DisplayName(telegramID string) string {
	if p != nil && p.FirstName != "" {
		if p.LastName != "" {
			return p.FirstName + " " + p.LastName
		}
		return p.FirstName
	}
	return "Telegram user " + telegramID
}

// BookingState threads through the booking graph for one conversation turn.
// Nodes return partial updates; the engine merges them into this record.
type BookingState struct {
	UserInput        string        `json:"userInput,omitempty"`
	TelegramID       string        `json:"telegramId"`
	SessionID        string        `json:"sessionId"`
	SessionType      string        `json:"sessionType,omitempty"`
	AvailableSlots   []Slot        `json:"availableSlots,omitempty"`
	ConfirmedSlot    *Slot         `json:"confirmedSlot,omitempty"`
	GoogleEventID    string        `json:"googleEventId,omitempty"`
	AgentOutcome     *AgentOutcome `json:"agentOutcome,omitempty"`
	Err              string        `json:"error,omitempty"`
	ChatHistory      []ChatMessage `json:"chatHistory,omitempty"`
	LastToolResponse string        `json:"lastToolResponse,omitempty"`
	UserProfile      *UserProfile  `json:"userProfile,omitempty"`
	PastSessionDates []time.Time   `json:"pastSessionDates,omitempty"`
}

// NewBookingState builds a fresh turn state. Both identifiers are required;
// everything else starts unset.
func NewBookingState(telegramID, sessionID string) (*BookingState, error) {
	if telegramID == "" {
		return nil, errors.New("booking state requires a telegramId")
	}
	if sessionID == "" {
		return nil, errors.New("booking state requires a sessionId")
	}
	return &BookingState{
		TelegramID: telegramID,
		SessionID:  sessionID,
	}, nil
}

// HasConfirmedSlot reports whether a complete confirmed slot is present.
func (s *BookingState) HasConfirmedSlot() bool {
	return s.ConfirmedSlot != nil && !s.ConfirmedSlot.Start.IsZero() && !s.ConfirmedSlot.End.IsZero()
}
