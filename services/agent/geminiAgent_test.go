package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabedeluna/kambo-klarity/models"
)

func offeredSlots() []models.Slot {
	start := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	return []models.Slot{
		{Start: start, End: start.Add(time.Hour)},
		{Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
	}
}

func TestParseDecision_SearchIntent(t *testing.T) {
	raw := `{"intent": "search", "sessionType": "private", "reply": "Looking for times."}`

	outcome, err := parseDecision(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentSearch, outcome.Intent)
	assert.Equal(t, "private", outcome.SessionType)
	assert.Equal(t, "Looking for times.", outcome.Reply)
	assert.Nil(t, outcome.ConfirmedSlot)
}

func TestParseDecision_ConfirmResolvesOfferedSlot(t *testing.T) {
	offered := offeredSlots()
	raw := `{"intent": "confirm", "slotIndex": 1, "reply": "Booking it."}`

	outcome, err := parseDecision(raw, offered)
	require.NoError(t, err)
	assert.Equal(t, models.IntentConfirm, outcome.Intent)
	require.NotNil(t, outcome.ConfirmedSlot)
	assert.Equal(t, offered[1], *outcome.ConfirmedSlot)
}

func TestParseDecision_ConfirmSlotIndexValidation(t *testing.T) {
	offered := offeredSlots()

	_, err := parseDecision(`{"intent": "confirm", "reply": "ok"}`, offered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a slot index")

	_, err = parseDecision(`{"intent": "confirm", "slotIndex": 5, "reply": "ok"}`, offered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = parseDecision(`{"intent": "confirm", "slotIndex": -1, "reply": "ok"}`, offered)
	assert.Error(t, err)
}

func TestParseDecision_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"intent\": \"chat\", \"reply\": \"Hello!\"}\n```"

	outcome, err := parseDecision(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentChat, outcome.Intent)
	assert.Equal(t, "Hello!", outcome.Reply)
}

func TestParseDecision_RejectsGarbage(t *testing.T) {
	_, err := parseDecision("I think you want Tuesday", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid decision payload")

	_, err = parseDecision(`{"intent": "reschedule", "reply": "ok"}`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown intent")
}

func TestBuildPrompt_IncludesContext(t *testing.T) {
	offered := offeredSlots()
	prompt := buildPrompt(models.AgentRequest{
		UserInput:   "the second one please",
		TelegramID:  "42",
		SessionType: "private",
		ChatHistory: []models.ChatMessage{
			{Role: "user", Content: "any slots tomorrow?"},
			{Role: "assistant", Content: "Found available slots."},
		},
		AvailableSlots: offered,
	})

	assert.Contains(t, prompt, "Current session type: private")
	assert.Contains(t, prompt, "0. "+offered[0].Start.Format(time.RFC3339))
	assert.Contains(t, prompt, "1. "+offered[1].Start.Format(time.RFC3339))
	assert.Contains(t, prompt, "user: any slots tomorrow?")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "User message: the second one please"))
}
