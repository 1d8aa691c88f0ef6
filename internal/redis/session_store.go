package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
)

// SessionStore keeps conversation sessions as JSON strings.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration // 0 means no expiry
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

func (s *SessionStore) Get(ctx context.Context, id string) (conversation.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.Session{}, conversation.ErrConversationNotFound
	}
	if err != nil {
		return conversation.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return conversation.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess conversation.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Ping is used by the readiness check.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
