package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

type fakeCompleter struct {
	prompts []string
	answer  string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeSearcher struct {
	passages []string
	err      error
}

func (f *fakeSearcher) Search(context.Context, string) ([]string, error) {
	return f.passages, f.err
}

type fakeHandoff struct {
	conversationID string
	records        []form.Record
	err            error
}

func (f *fakeHandoff) Handoff(_ context.Context, conversationID string, rec form.Record) error {
	f.conversationID = conversationID
	f.records = append(f.records, rec)
	return f.err
}

var bookingAnswers = []string{
	"John Doe", "(650) 253-0000", "john@example.com", "next Monday", "2:30 PM", "Discuss project requirements",
}

func testAssistant(c Completer, opts ...AssistantOption) *Assistant {
	resolver := &dateresolver.Resolver{Now: func() time.Time {
		return time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)
	}}
	opts = append([]AssistantOption{WithFormOptions(form.WithResolver(resolver))}, opts...)
	return NewAssistant(c, opts...)
}

func respond(t *testing.T, a *Assistant, sess *Session, text string) string {
	t.Helper()
	reply, err := a.Respond(context.Background(), sess, text)
	require.NoError(t, err)
	return reply
}

func TestAssistant_BookingFlowHandsOff(t *testing.T) {
	completer := &fakeCompleter{answer: "unused"}
	handoff := &fakeHandoff{}
	a := testAssistant(completer, WithHandoff(handoff))
	sess := &Session{ID: "conv-1"}

	reply := respond(t, a, sess, "Please call me tomorrow")
	assert.Equal(t, form.MsgStart, reply)

	var last string
	for _, answer := range bookingAnswers {
		last = respond(t, a, sess, answer)
	}

	assert.Contains(t, last, "John Doe")
	assert.Contains(t, last, "2026-10-19")
	assert.Empty(t, completer.prompts)

	require.Len(t, handoff.records, 1)
	assert.Equal(t, "conv-1", handoff.conversationID)
	assert.Equal(t, "john@example.com", handoff.records[0].Value(form.FieldEmail))
	assert.Equal(t, form.StateComplete, sess.Form.State)

	require.Len(t, sess.History, 2*(len(bookingAnswers)+1))
	assert.Equal(t, RoleUser, sess.History[0].Role)
	assert.Equal(t, RoleAssistant, sess.History[1].Role)
}

func TestAssistant_FormInputTakesPriorityOverIntent(t *testing.T) {
	a := testAssistant(&fakeCompleter{})
	sess := &Session{ID: "conv"}
	respond(t, a, sess, "book appointment")

	reply := respond(t, a, sess, "call me")
	assert.NotEqual(t, form.MsgStart, reply)
	assert.Equal(t, form.FieldPhone, sess.Form.CurrentField)
	require.NotNil(t, sess.Form.Record.Name)
	assert.Equal(t, "call me", *sess.Form.Record.Name)
}

func TestAssistant_BookingAfterCompleteStartsFresh(t *testing.T) {
	handoff := &fakeHandoff{}
	a := testAssistant(&fakeCompleter{}, WithHandoff(handoff))
	sess := &Session{ID: "conv"}

	respond(t, a, sess, "schedule call")
	for _, answer := range bookingAnswers {
		respond(t, a, sess, answer)
	}
	require.Equal(t, form.StateComplete, sess.Form.State)

	reply := respond(t, a, sess, "can you arrange call again?")
	assert.Equal(t, form.MsgStart, reply)
	assert.Equal(t, form.StateCollecting, sess.Form.State)
	assert.Nil(t, sess.Form.Record.Name)
}

func TestAssistant_GroundedAnswer(t *testing.T) {
	completer := &fakeCompleter{answer: " Refunds take 30 days. "}
	a := testAssistant(completer, WithSearcher(&fakeSearcher{passages: []string{"p1", "p2"}}))
	sess := &Session{ID: "conv"}

	reply := respond(t, a, sess, "What is the refund policy?")
	assert.Equal(t, "Refunds take 30 days.", reply)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "p1\n\np2")
	assert.Contains(t, completer.prompts[0], "What is the refund policy?")
}

func TestAssistant_GeneralAnswerWithoutPassages(t *testing.T) {
	completer := &fakeCompleter{answer: "Hello!"}
	a := testAssistant(completer, WithSearcher(&fakeSearcher{}))
	sess := &Session{ID: "conv"}

	assert.Equal(t, "Hello!", respond(t, a, sess, "hi there"))
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], `"call me"`)
	assert.NotContains(t, completer.prompts[0], "Context:")
}

func TestAssistant_CollaboratorFailureApologises(t *testing.T) {
	sess := &Session{ID: "conv"}

	a := testAssistant(&fakeCompleter{err: errors.New("model offline")})
	assert.Equal(t,
		"I apologize, but I encountered an error: model offline. Please try rephrasing your question.",
		respond(t, a, sess, "hello"))

	completer := &fakeCompleter{answer: "x"}
	a = testAssistant(completer, WithSearcher(&fakeSearcher{err: errors.New("index locked")}))
	assert.Contains(t, respond(t, a, sess, "hello"), "index locked")
	assert.Empty(t, completer.prompts)
}

func TestAssistant_HandoffFailureStillSummarises(t *testing.T) {
	a := testAssistant(&fakeCompleter{}, WithHandoff(&fakeHandoff{err: errors.New("db down")}))
	sess := &Session{ID: "conv"}

	respond(t, a, sess, "call me")
	var last string
	for _, answer := range bookingAnswers {
		last = respond(t, a, sess, answer)
	}
	assert.Contains(t, last, "Here's your appointment summary")
}

func TestAssistant_ResetClearsEverything(t *testing.T) {
	a := testAssistant(&fakeCompleter{})
	sess := &Session{ID: "conv"}
	respond(t, a, sess, "call me")
	respond(t, a, sess, "John Doe")

	a.Reset(sess)
	assert.Empty(t, sess.History)
	status, err := a.FormStatus(sess)
	require.NoError(t, err)
	assert.Equal(t, form.StateIdle, status.State)
	assert.Nil(t, status.Fields[form.FieldName])
}

func TestAssistant_CorruptSessionIsAnError(t *testing.T) {
	a := testAssistant(&fakeCompleter{})
	sess := &Session{ID: "conv", Form: form.Snapshot{State: "bogus"}}

	_, err := a.Respond(context.Background(), sess, "hello")
	assert.ErrorIs(t, err, form.ErrInvalidSnapshot)
	assert.Empty(t, sess.History)
}

func TestDetectIntent(t *testing.T) {
	for _, text := range []string{"Call me please", "I want to BOOK APPOINTMENT", "schedule call", "contact me later", "arrange call"} {
		assert.Equal(t, IntentBooking, DetectIntent(text), text)
	}
	for _, text := range []string{"what are your hours?", "book a table", "call"} {
		assert.Equal(t, IntentQuestion, DetectIntent(text), text)
	}
}
