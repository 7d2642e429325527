package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/models"
	"github.com/gabedeluna/kambo-klarity/services/notification"
	"github.com/gabedeluna/kambo-klarity/utils"
)

// maxChatHistory bounds the conversational context carried between turns.
const maxChatHistory = 20

// SessionRepository hydrates and persists per-user conversation state.
type SessionRepository interface {
	Load(ctx context.Context, telegramID string) (*models.BookingState, error)
	Save(ctx context.Context, st *models.BookingState) error
}

// TelegramHandler feeds webhook deliveries into the booking graph, one turn
// per inbound message.
type TelegramHandler struct {
	Engine   *graph.Engine
	Sessions SessionRepository
	Notifier notification.NotificationService
	Logger   *zap.Logger

	// turnLocks serializes the whole load, turn, save envelope per user. The
	// engine's own lock only covers the graph run; without this one, two
	// rapid deliveries for the same user could both hydrate the same session
	// blob and the later save would erase the earlier turn's state.
	turnLocks *graph.KeyedMutex
}

func NewTelegramHandler(engine *graph.Engine, sessions SessionRepository, notifier notification.NotificationService, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{
		Engine:    engine,
		Sessions:  sessions,
		Notifier:  notifier,
		Logger:    logger,
		turnLocks: graph.NewKeyedMutex(),
	}
}

// Webhook handles one Telegram update. Always answers 200 for updates we
// simply don't handle; Telegram redelivers anything else.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	var update tele.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid update", err.Error())
		return
	}
	msg := update.Message
	if msg == nil || msg.Sender == nil || msg.Text == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx := c.Request.Context()
	telegramID := strconv.FormatInt(msg.Sender.ID, 10)

	unlock := h.turnLocks.Lock(telegramID)
	defer unlock()

	st, err := h.Sessions.Load(ctx, telegramID)
	if err != nil {
		h.Logger.Error("failed to load session state",
			zap.String("telegramId", telegramID),
			zap.Error(err))
	}
	if st == nil {
		st, err = models.NewBookingState(telegramID, uuid.New().String())
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to start session", err.Error())
			return
		}
	}
	if st.UserProfile == nil && msg.Sender.FirstName != "" {
		st.UserProfile = &models.UserProfile{
			TelegramID: telegramID,
			FirstName:  msg.Sender.FirstName,
			LastName:   msg.Sender.LastName,
		}
	}
	st.UserInput = msg.Text
	st.Err = ""
	st.ChatHistory = appendHistory(st.ChatHistory, models.ChatMessage{Role: "user", Content: msg.Text})

	st, err = h.Engine.RunTurn(ctx, st)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "booking turn failed", err.Error())
		return
	}

	if st.Err == "" {
		h.reply(c, st)
	}
	h.persist(c, st)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// reply sends the happy-path response for the turn. Error turns were already
// answered by the graph's error sink.
func (h *TelegramHandler) reply(c *gin.Context, st *models.BookingState) {
	out := st.AgentOutcome
	if out == nil {
		return
	}

	var text string
	switch out.Intent {
	case models.IntentSearch:
		text = formatSlotReply(st.AvailableSlots, out.Reply)
	case models.IntentConfirm:
		slot := st.ConfirmedSlot
		text = fmt.Sprintf("You're confirmed for %s. A waiver link is on its way.",
			slot.Start.Format("Monday, Jan 2 at 3:04 PM"))
	case models.IntentCancel:
		text = "Your booking conversation has been reset. Message me whenever you'd like to start again."
	default:
		text = out.Reply
	}
	if text == "" {
		return
	}

	if err := h.Notifier.SendTextMessage(c.Request.Context(), st.TelegramID, text); err != nil {
		h.Logger.Error("failed to send reply",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return
	}
	st.ChatHistory = appendHistory(st.ChatHistory, models.ChatMessage{Role: "assistant", Content: text})
}

// persist writes the turn's end state back to the session store. A completed
// cancel leaves nothing behind: resetStateNode already cleared the session
// and saving again would resurrect it.
func (h *TelegramHandler) persist(c *gin.Context, st *models.BookingState) {
	if st.Err == "" && st.AgentOutcome != nil && st.AgentOutcome.Intent == models.IntentCancel {
		return
	}
	// Turn-scoped fields never survive into the next hydration.
	st.Err = ""
	st.AgentOutcome = nil

	if err := h.Sessions.Save(c.Request.Context(), st); err != nil {
		h.Logger.Error("failed to save session state",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
	}
}

func formatSlotReply(slots []models.Slot, agentReply string) string {
	if len(slots) == 0 {
		return "I couldn't find any open slots in the next two weeks. Try asking again later, or reach out directly."
	}
	var sb strings.Builder
	if agentReply != "" {
		sb.WriteString(agentReply)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("Here are the next available slots:\n\n")
	}
	limit := len(slots)
	if limit > 8 {
		limit = 8
	}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, slots[i].Start.Format("Mon Jan 2, 3:04 PM"))
	}
	sb.WriteString("\nReply with the number that works for you.")
	return sb.String()
}

func appendHistory(history []models.ChatMessage, msg models.ChatMessage) []models.ChatMessage {
	history = append(history, msg)
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	return history
}
