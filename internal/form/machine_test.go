package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
)

// fixedResolver pins "today" to Wednesday 2026-10-14.
func fixedResolver() *dateresolver.Resolver {
	return &dateresolver.Resolver{Now: func() time.Time {
		return time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)
	}}
}

func newMachine() *Machine {
	return New(WithResolver(fixedResolver()))
}

func TestMachine_FullBooking(t *testing.T) {
	m := newMachine()
	assert.Equal(t, StateIdle, m.State())

	reply := m.Start()
	assert.Equal(t, MsgStart, reply)
	assert.Equal(t, FieldName, m.CurrentField())

	reply = m.Submit("John Doe")
	assert.Contains(t, reply, "John Doe")
	assert.Equal(t, FieldPhone, m.CurrentField())

	reply = m.Submit("(650) 253-0000")
	assert.Contains(t, reply, "(650) 253-0000")
	assert.Equal(t, FieldEmail, m.CurrentField())

	reply = m.Submit("john@example.com")
	assert.Contains(t, reply, "john@example.com")
	assert.Equal(t, FieldAppointmentDate, m.CurrentField())

	reply = m.Submit("next Monday")
	assert.Contains(t, reply, "October 19, 2026")
	assert.Equal(t, FieldAppointmentTime, m.CurrentField())

	reply = m.Submit("2:30 pm")
	assert.Contains(t, reply, "2:30 PM")
	assert.Equal(t, FieldPurpose, m.CurrentField())

	reply = m.Submit("Discuss project requirements")
	assert.True(t, m.IsComplete())
	assert.False(t, m.IsCollecting())
	assert.Equal(t, Field(""), m.CurrentField())

	for _, want := range []string{
		"John Doe", "(650) 253-0000", "john@example.com", "2026-10-19", "2:30 PM", "Discuss project requirements",
	} {
		assert.Contains(t, reply, want)
	}

	rec := m.Record()
	require.True(t, rec.Complete())
	assert.Equal(t, "2026-10-19", rec.Value(FieldAppointmentDate))
	assert.Equal(t, "2:30 PM", rec.Value(FieldAppointmentTime))
}

func TestMachine_RejectionLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		bad     string
		want    string
	}{
		{"name too short", nil, "J", msgNameTooShort},
		{"name charset", nil, "J0hn", msgNameCharset},
		{"phone short", []string{"John Doe"}, "555-0001", ""},
		{"phone garbage", []string{"John Doe"}, "call me maybe", ""},
		{"phone fictional", []string{"John Doe"}, "(555) 123-4567", msgPhoneInvalid},
		{"time midnight twelve-hour", []string{"John Doe", "(650) 253-0000", "john@example.com", "tomorrow"}, "00:30 PM", msgTimeInvalid},
		{"email", []string{"John Doe", "(650) 253-0000"}, "not-an-email", msgEmailInvalid},
		{"date unresolved", []string{"John Doe", "(650) 253-0000", "john@example.com"}, "whenever", msgDateUnresolved},
		{"date in past", []string{"John Doe", "(650) 253-0000", "john@example.com"}, "yesterday", msgDateInvalid(dateresolver.ReasonInPast)},
		{"time", []string{"John Doe", "(650) 253-0000", "john@example.com", "tomorrow"}, "25:00", msgTimeInvalid},
		{"purpose", []string{"John Doe", "(650) 253-0000", "john@example.com", "tomorrow", "10 AM"}, "Hi", msgPurposeShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			m.Start()
			for _, a := range tt.answers {
				m.Submit(a)
			}
			before := m.Snapshot()

			first := m.Submit(tt.bad)
			second := m.Submit(tt.bad)

			assert.Equal(t, first, second)
			if tt.want != "" {
				assert.Equal(t, tt.want, first)
			}
			assert.Equal(t, before, m.Snapshot())
		})
	}
}

func TestMachine_SubmitWhenNotCollecting(t *testing.T) {
	m := newMachine()
	assert.Equal(t, MsgNotActive, m.Submit("John Doe"))
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Record().Name)

	completeForm(t, m)
	before := m.Snapshot()
	assert.Equal(t, MsgNotActive, m.Submit("anything"))
	assert.Equal(t, before, m.Snapshot())
}

func TestMachine_StartRewindsWithoutClearing(t *testing.T) {
	m := newMachine()
	m.Start()
	m.Submit("John Doe")
	m.Submit("(650) 253-0000")
	require.Equal(t, FieldEmail, m.CurrentField())

	m.Start()
	assert.Equal(t, FieldName, m.CurrentField())
	assert.True(t, m.IsCollecting())
	assert.Equal(t, "John Doe", m.Record().Value(FieldName))
	assert.Equal(t, "(650) 253-0000", m.Record().Value(FieldPhone))
}

func TestMachine_Reset(t *testing.T) {
	m := newMachine()
	completeForm(t, m)

	m.Reset()
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, Field(""), m.CurrentField())
	assert.Equal(t, Record{}, m.Record())
}

func TestMachine_RecordIsCopy(t *testing.T) {
	m := newMachine()
	m.Start()
	m.Submit("John Doe")

	rec := m.Record()
	*rec.Name = "Mallory"
	assert.Equal(t, "John Doe", m.Record().Value(FieldName))
}

func TestMachine_Status(t *testing.T) {
	m := newMachine()
	m.Start()
	m.Submit("Jane O'Neil")

	st := m.Status()
	assert.Equal(t, StateCollecting, st.State)
	assert.Equal(t, FieldPhone, st.CurrentField)
	require.Len(t, st.Fields, len(Fields))
	require.NotNil(t, st.Fields[FieldName])
	assert.Equal(t, "Jane O'Neil", *st.Fields[FieldName])
	assert.Nil(t, st.Fields[FieldPhone])
}

func TestMachine_SnapshotRoundTrip(t *testing.T) {
	m := newMachine()
	m.Start()
	m.Submit("John Doe")
	m.Submit("(650) 253-0000")

	raw, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored := newMachine()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, FieldEmail, restored.CurrentField())
	assert.Equal(t, m.Record(), restored.Record())

	reply := restored.Submit("john@example.com")
	assert.Contains(t, reply, "john@example.com")
	assert.Equal(t, FieldAppointmentDate, restored.CurrentField())
}

func TestMachine_RestoreRejectsInconsistentSnapshots(t *testing.T) {
	name := "John Doe"
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"idle with field", Snapshot{State: StateIdle, CurrentField: FieldPhone}},
		{"collecting without field", Snapshot{State: StateCollecting}},
		{"collecting unknown field", Snapshot{State: StateCollecting, CurrentField: "favourite_colour"}},
		{"complete with missing fields", Snapshot{State: StateComplete, Record: Record{Name: &name}}},
		{"unknown state", Snapshot{State: "paused"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			m.Start()
			before := m.Snapshot()

			err := m.Restore(tt.snap)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Equal(t, before, m.Snapshot())
		})
	}
}

func TestMachine_RestoreEmptySnapshotIsIdle(t *testing.T) {
	m := newMachine()
	m.Start()
	require.NoError(t, m.Restore(Snapshot{}))
	assert.Equal(t, StateIdle, m.State())
}

func completeForm(t *testing.T, m *Machine) {
	t.Helper()
	m.Start()
	for _, answer := range []string{
		"John Doe", "(650) 253-0000", "john@example.com", "tomorrow", "10:00 AM", "Quarterly planning call",
	} {
		m.Submit(answer)
	}
	require.True(t, m.IsComplete())
}
