package redisclient

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

func TestErrLockNotAcquired_IsBusy(t *testing.T) {
	assert.True(t, errors.Is(ErrLockNotAcquired, conversation.ErrConversationBusy))
	assert.Equal(t, "lock:conversation:abc", lockKey("abc"))
	assert.Equal(t, "conversation:abc", sessionKey("abc"))
}

// testClient connects to TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConversationLocker_Redis(t *testing.T) {
	client := testClient(t)
	locker := NewConversationLocker(client, 5*time.Second)
	id := uuid.NewString()
	ctx := context.Background()

	err := locker.WithLock(ctx, id, func(ctx context.Context) error {
		inner := locker.WithLock(ctx, id, func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, conversation.ErrConversationBusy)
		return nil
	})
	require.NoError(t, err)

	exists, err := client.Exists(ctx, lockKey(id)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSessionStore_Redis(t *testing.T) {
	client := testClient(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)

	name := "John Doe"
	sess := conversation.Session{
		ID: uuid.NewString(),
		Form: form.Snapshot{
			State:        form.StateCollecting,
			CurrentField: form.FieldPhone,
			Record:       form.Record{Name: &name},
		},
		History:   []conversation.Message{{Role: conversation.RoleUser, Content: "call me", At: time.Now().UTC()}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, sess))
	t.Cleanup(func() { client.Del(ctx, sessionKey(sess.ID)) })

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, form.FieldPhone, got.Form.CurrentField)
	assert.Equal(t, "John Doe", got.Form.Record.Value(form.FieldName))
	require.Len(t, got.History, 1)
	assert.Equal(t, "call me", got.History[0].Content)
}

// memoryClient runs an in-process Redis for tests that need no external server.
func memoryClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConversationLocker_RenewsWhileTurnRuns(t *testing.T) {
	mr, client := memoryClient(t)
	ttl := 150 * time.Millisecond
	locker := NewConversationLocker(client, ttl)
	id := uuid.NewString()

	err := locker.WithLock(context.Background(), id, func(ctx context.Context) error {
		for i := 0; i < 4; i++ {
			time.Sleep(ttl / 2)
			mr.FastForward(100 * time.Millisecond)
		}
		assert.NoError(t, ctx.Err())
		assert.True(t, mr.Exists(lockKey(id)))

		inner := locker.WithLock(context.Background(), id, func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, conversation.ErrConversationBusy)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(lockKey(id)))
}

func TestConversationLocker_ReleaseKeepsForeignKey(t *testing.T) {
	mr, client := memoryClient(t)
	locker := NewConversationLocker(client, time.Second)
	id := uuid.NewString()

	err := locker.WithLock(context.Background(), id, func(context.Context) error {
		// the key expired and another holder took it
		require.NoError(t, mr.Set(lockKey(id), "someone-else"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get(lockKey(id))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

type sleepyCompleter struct {
	delay time.Duration
}

func (c sleepyCompleter) Complete(context.Context, string) (string, error) {
	time.Sleep(c.delay)
	return "We open at 9.", nil
}

func TestManager_CompletionSlowerThanLockTTL(t *testing.T) {
	mr, client := memoryClient(t)
	ttl := 100 * time.Millisecond
	m := conversation.NewManager(
		conversation.NewAssistant(sleepyCompleter{delay: 3 * ttl}),
		NewSessionStore(client, time.Minute),
		NewConversationLocker(client, ttl),
		nil,
	)
	ctx := context.Background()

	sess, err := m.Create(ctx)
	require.NoError(t, err)

	out, err := m.Send(ctx, sess.ID, "When do you open?")
	require.NoError(t, err)
	assert.Equal(t, "We open at 9.", out.Reply)

	history, err := m.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.False(t, mr.Exists(lockKey(sess.ID)))
}
