package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return ErrConversationBusy
}

func newTestManager(c Completer) *Manager {
	return NewManager(testAssistant(c), NewMemoryStore(), NewLocalLocker(), nil)
}

func TestManager_Conversation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeCompleter{answer: "We open at 9."})

	sess, err := m.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	out, err := m.Send(ctx, sess.ID, "When do you open?")
	require.NoError(t, err)
	assert.Equal(t, "We open at 9.", out.Reply)
	assert.Equal(t, form.StateIdle, out.Form.State)

	out, err = m.Send(ctx, sess.ID, "call me")
	require.NoError(t, err)
	assert.Equal(t, form.MsgStart, out.Reply)
	assert.Equal(t, form.FieldName, out.Form.CurrentField)

	out, err = m.Send(ctx, sess.ID, "John Doe")
	require.NoError(t, err)
	assert.Equal(t, form.FieldPhone, out.Form.CurrentField)

	status, err := m.FormStatus(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, status.Fields[form.FieldName])
	assert.Equal(t, "John Doe", *status.Fields[form.FieldName])

	history, err := m.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, history, 6)

	status, err = m.Reset(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, form.StateIdle, status.State)

	history, err = m.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestManager_Errors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeCompleter{})

	_, err := m.Send(ctx, "missing", "hello")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = m.FormStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	sess, err := m.Create(ctx)
	require.NoError(t, err)
	_, err = m.Send(ctx, sess.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestManager_BusyConversation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(testAssistant(&fakeCompleter{}), store, busyLocker{}, nil)

	sess, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Send(ctx, sess.ID, "hello")
	assert.True(t, errors.Is(err, ErrConversationBusy))
}

// slowCompleter answers only after the turn's context has expired.
type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// strictStore refuses writes on a dead context, like a network-backed store.
type strictStore struct {
	*MemoryStore
}

func (s strictStore) Save(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, sess)
}

func TestManager_SlowCompletionStillSaves(t *testing.T) {
	store := strictStore{NewMemoryStore()}
	m := NewManager(testAssistant(slowCompleter{}), store, NewLocalLocker(), nil)

	sess, err := m.Create(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out, err := m.Send(ctx, sess.ID, "When do you open?")
	require.NoError(t, err)
	assert.Contains(t, out.Reply, "I apologize")

	history, err := m.History(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(context.Background(), "conv", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks)
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker()
	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "conv", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "conv", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	name := "John"
	require.NoError(t, s.Save(ctx, Session{ID: "a", Form: form.Snapshot{Record: form.Record{Name: &name}}}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	*got.Form.Record.Name = "Mallory"
	got.History = append(got.History, Message{Content: "x"})

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "John", *again.Form.Record.Name)
	assert.Empty(t, again.History)
}
