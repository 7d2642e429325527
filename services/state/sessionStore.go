package state

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/gabedeluna/kambo-klarity/models"
)

const sessionKeyPrefix = "kambo:session:"

// SessionStore keeps the conversational booking state between turns. Entries
// expire on their own; an idle conversation simply starts fresh.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Load returns the persisted state for a user, or nil when none exists.
func (s *SessionStore) Load(ctx context.Context, telegramID string) (*models.BookingState, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+telegramID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st models.BookingState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save persists the state blob with the configured TTL.
func (s *SessionStore) Save(ctx context.Context, st *models.BookingState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+st.TelegramID, b, s.ttl).Err()
}

// Clear removes the persisted state for a user.
func (s *SessionStore) Clear(ctx context.Context, telegramID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+telegramID).Err()
}
