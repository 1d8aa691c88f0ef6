package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
)

// ErrLockNotAcquired matches conversation.ErrConversationBusy with errors.Is.
var ErrLockNotAcquired = fmt.Errorf("conversation lock not acquired: %w", conversation.ErrConversationBusy)

type conversationLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConversationLocker returns a Locker backed by one Redis key per
// conversation. A second turn on the same conversation fails fast. The key
// is renewed every ttl/3 while the turn runs, so ttl bounds how long a
// crashed holder blocks the conversation, not how long a turn may take.
func NewConversationLocker(client *redis.Client, ttl time.Duration) conversation.Locker {
	return &conversationLocker{
		client: client,
		ttl:    ttl,
	}
}

func lockKey(conversationID string) string {
	return fmt.Sprintf("lock:conversation:%s", conversationID)
}

func (l *conversationLocker) WithLock(ctx context.Context, conversationID string, fn func(ctx context.Context) error) error {
	key := lockKey(conversationID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire conversation lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	keepCtx, stopKeep := context.WithCancel(context.WithoutCancel(ctx))
	kept := make(chan struct{})
	go func() {
		defer close(kept)
		l.keepAlive(keepCtx, key, token)
	}()

	defer func() {
		stopKeep()
		<-kept
		// release on a fresh context so a cancelled turn still frees the key
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	return fn(ctx)
}

const minRenewInterval = 10 * time.Millisecond

func (l *conversationLocker) keepAlive(ctx context.Context, key, token string) {
	interval := l.ttl / 3
	if interval < minRenewInterval {
		interval = minRenewInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := renewScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			if err != nil || renewed == 0 {
				// lost the key or Redis is gone; the turn finishes without renewal
				return
			}
		}
	}
}

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *conversationLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release conversation lock: %w", err)
	}
	return nil
}
