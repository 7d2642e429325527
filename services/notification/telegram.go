package notification

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/utils"
)

// waiverLinkTTL bounds how long a sent waiver link stays valid.
const waiverLinkTTL = 72 * time.Hour

// TelegramNotifier delivers messages through the Telegram Bot API. Sends are
// rate limited per chat; Telegram rejects bursts to a single chat well below
// its global bot limit.
type TelegramNotifier struct {
	bot           *tele.Bot
	waiverBaseURL string
	logger        *zap.Logger

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewTelegramNotifier(token, waiverBaseURL string, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:           bot,
		waiverBaseURL: waiverBaseURL,
		logger:        logger,
		limiters:      make(map[int64]*rate.Limiter),
	}, nil
}

// SendTextMessage delivers a plain text message to the user.
func (n *TelegramNotifier) SendTextMessage(ctx context.Context, telegramID, text string) error {
	user, err := n.recipient(telegramID)
	if err != nil {
		return err
	}
	if err := n.waitTurn(ctx, user.ID); err != nil {
		return err
	}
	if _, err := n.bot.Send(user, text); err != nil {
		return graph.NewToolError("telegram send failed: %v", err)
	}
	return nil
}

// SendWaiverLink delivers the liability waiver as a signed link the user
// opens inside Telegram's browser. The token carries who the waiver is for
// and the booked session type.
func (n *TelegramNotifier) SendWaiverLink(ctx context.Context, telegramID, sessionType string) error {
	user, err := n.recipient(telegramID)
	if err != nil {
		return err
	}

	token, err := utils.GenerateWaiverToken(telegramID, sessionType, waiverLinkTTL)
	if err != nil {
		return graph.NewToolError("failed to sign waiver link: %v", err)
	}
	link := fmt.Sprintf("%s?token=%s", n.waiverBaseURL, url.QueryEscape(token))

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "Complete your waiver", URL: link},
		}},
	}

	if err := n.waitTurn(ctx, user.ID); err != nil {
		return err
	}
	text := "You're booked! Before your session, please complete the liability waiver below."
	if _, err := n.bot.Send(user, text, markup); err != nil {
		return graph.NewToolError("telegram send failed: %v", err)
	}
	n.logger.Info("waiver link sent",
		zap.String("telegramId", telegramID),
		zap.String("sessionType", sessionType))
	return nil
}

func (n *TelegramNotifier) recipient(telegramID string) (*tele.User, error) {
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		return nil, graph.NewToolError("invalid telegram id %q", telegramID)
	}
	return &tele.User{ID: id}, nil
}

// waitTurn blocks until the per-chat limiter admits another send.
func (n *TelegramNotifier) waitTurn(ctx context.Context, chatID int64) error {
	n.mu.Lock()
	limiter, ok := n.limiters[chatID]
	if !ok {
		// Telegram allows roughly one message per second per chat.
		limiter = rate.NewLimiter(rate.Every(time.Second), 3)
		n.limiters[chatID] = limiter
	}
	n.mu.Unlock()
	return limiter.Wait(ctx)
}
