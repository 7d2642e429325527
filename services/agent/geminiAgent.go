package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/models"
)

// GeminiBookingAgent drives intent interpretation through a Gemini model.
type GeminiBookingAgent struct {
	model  *genai.GenerativeModel
	logger *zap.Logger
}

func NewGeminiBookingAgent(apiKey, modelName string, logger *zap.Logger) (*GeminiBookingAgent, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &GeminiBookingAgent{model: model, logger: logger}, nil
}

// decision is the JSON shape the model is instructed to emit.
type decision struct {
	Intent      string `json:"intent"`
	SessionType string `json:"sessionType,omitempty"`
	SlotIndex   *int   `json:"slotIndex,omitempty"`
	Reply       string `json:"reply"`
}

// RunBookingAgent asks the model for a decision and maps it onto the booking
// outcome contract. Model output that cannot be parsed into a decision is a
// domain-level failure and surfaces as a graph.ToolError.
func (a *GeminiBookingAgent) RunBookingAgent(ctx context.Context, req models.AgentRequest) (*models.AgentOutcome, error) {
	prompt := buildPrompt(req)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}

	raw := collectText(resp)
	outcome, err := parseDecision(raw, req.AvailableSlots)
	if err != nil {
		a.logger.Warn("agent returned unparseable decision",
			zap.String("telegramId", req.TelegramID),
			zap.String("raw", raw))
		return nil, graph.NewToolError("agent could not interpret the request: %v", err)
	}
	return outcome, nil
}

func buildPrompt(req models.AgentRequest) string {
	var sb strings.Builder
	sb.WriteString(`You are the booking assistant for a kambo practitioner.
Classify the user's message into one of the intents "search", "confirm",
"cancel" or "chat" and answer with a single JSON object:
{"intent": "...", "sessionType": "...", "slotIndex": N, "reply": "..."}
Set "slotIndex" only for intent "confirm", as the zero-based index into the
offered slots below. Set "sessionType" when the user names one.
`)

	if req.SessionType != "" {
		fmt.Fprintf(&sb, "\nCurrent session type: %s\n", req.SessionType)
	}
	if len(req.AvailableSlots) > 0 {
		sb.WriteString("\nOffered slots:\n")
		for i, slot := range req.AvailableSlots {
			fmt.Fprintf(&sb, "%d. %s to %s\n", i,
				slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339))
		}
	}
	if len(req.ChatHistory) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, msg := range req.ChatHistory {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
		}
	}
	fmt.Fprintf(&sb, "\nUser message: %s\n", req.UserInput)
	return sb.String()
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String()
}

// parseDecision maps the model's JSON decision onto an AgentOutcome,
// resolving a slot index against the slots that were actually offered.
func parseDecision(raw string, offered []models.Slot) (*models.AgentOutcome, error) {
	raw = strings.TrimSpace(raw)
	// Models occasionally wrap JSON in a code fence despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var d decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("invalid decision payload: %w", err)
	}

	intent := models.Intent(d.Intent)
	switch intent {
	case models.IntentSearch, models.IntentConfirm, models.IntentCancel, models.IntentChat:
	default:
		return nil, fmt.Errorf("unknown intent %q", d.Intent)
	}

	outcome := &models.AgentOutcome{
		Intent:      intent,
		SessionType: d.SessionType,
		Reply:       d.Reply,
	}
	if intent == models.IntentConfirm {
		if d.SlotIndex == nil {
			return nil, fmt.Errorf("confirm decision without a slot index")
		}
		idx := *d.SlotIndex
		if idx < 0 || idx >= len(offered) {
			return nil, fmt.Errorf("slot index %d out of range (%d offered)", idx, len(offered))
		}
		slot := offered[idx]
		outcome.ConfirmedSlot = &slot
	}
	return outcome, nil
}
