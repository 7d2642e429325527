package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gabedeluna/kambo-klarity/config"
	"github.com/gabedeluna/kambo-klarity/models"
)

const TypeSendSessionReminder = "reminder:session"

// NewSessionReminderTask builds the asynq task that fires ahead of a booked
// session.
func NewSessionReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendSessionReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// ReminderScheduler enqueues session reminders onto the asynq queue.
type ReminderScheduler struct {
	client *asynq.Client
	lead   time.Duration
}

func NewReminderScheduler(lead time.Duration) *ReminderScheduler {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})
	return &ReminderScheduler{client: client, lead: lead}
}

// ScheduleSessionReminder enqueues a reminder at the configured lead time
// before the session starts. Sessions closer than the lead time get no
// reminder; the booking confirmation just happened anyway.
func (s *ReminderScheduler) ScheduleSessionReminder(ctx context.Context, payload models.ReminderPayload) error {
	fireAt := payload.Start.Add(-s.lead)
	if !fireAt.After(time.Now()) {
		return nil
	}
	task, opts, err := NewSessionReminderTask(payload, fireAt)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task, opts...)
	return err
}

// Close releases the underlying queue connection.
func (s *ReminderScheduler) Close() error {
	return s.client.Close()
}
