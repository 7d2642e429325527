package models

// Intent is the agent's classification of what the user wants this turn.
type Intent string

const (
	IntentSearch  Intent = "search"
	IntentConfirm Intent = "confirm"
	IntentCancel  Intent = "cancel"
	IntentChat    Intent = "chat"
)

// AgentRequest is the input contract for the booking agent.
type AgentRequest struct {
	UserInput      string        `json:"userInput"`
	TelegramID     string        `json:"telegramId"`
	ChatHistory    []ChatMessage `json:"chatHistory,omitempty"`
	SessionType    string        `json:"sessionType,omitempty"`
	AvailableSlots []Slot        `json:"availableSlots,omitempty"`
}

// AgentOutcome is the structured decision returned by the booking agent.
type AgentOutcome struct {
	Intent        Intent `json:"intent"`
	SessionType   string `json:"sessionType,omitempty"`
	ConfirmedSlot *Slot  `json:"confirmedSlot,omitempty"`
	Reply         string `json:"reply,omitempty"`
}
