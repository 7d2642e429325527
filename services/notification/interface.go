package notification

import "context"

// NotificationService defines outbound messaging to the booking user.
type NotificationService interface {
	SendTextMessage(ctx context.Context, telegramID, text string) error
	SendWaiverLink(ctx context.Context, telegramID, sessionType string) error
}
