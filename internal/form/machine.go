// Package form implements the conversational appointment form: a state machine
// that walks a fixed list of fields, validating each free-text answer before
// moving on.
package form

import (
	"errors"
	"fmt"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/dateresolver"
)

var ErrInvalidSnapshot = errors.New("invalid form snapshot")

// step binds a field to its validator and the reply sent once it is accepted.
// validate returns the normalized value, or a non-empty rejection message.
type step struct {
	validate func(input string) (value, rejection string)
	accepted func(value string) string
}

// Machine is one form session. It is not safe for concurrent use; keep one
// Machine per conversation.
type Machine struct {
	state   State
	current Field
	record  Record
	steps   map[Field]step
}

// Option configures a Machine.
type Option func(*Validators)

// WithResolver sets the date resolver used for appointment_date.
func WithResolver(r *dateresolver.Resolver) Option {
	return func(v *Validators) {
		if r != nil {
			v.Resolver = r
		}
	}
}

// WithPhoneRegion sets the default region used when a number has no country code.
func WithPhoneRegion(region string) Option {
	return func(v *Validators) {
		if region != "" {
			v.PhoneRegion = region
		}
	}
}

// WithDeliverabilityCheck enables a domain check after email syntax validation.
func WithDeliverabilityCheck(check func(domain string) error) Option {
	return func(v *Validators) {
		v.CheckDomain = check
	}
}

func New(opts ...Option) *Machine {
	v := &Validators{
		Resolver:    dateresolver.New(),
		PhoneRegion: DefaultPhoneRegion,
	}
	for _, opt := range opts {
		opt(v)
	}

	return &Machine{
		state: StateIdle,
		steps: map[Field]step{
			FieldName:            {validate: v.Name, accepted: msgNameAccepted},
			FieldPhone:           {validate: v.Phone, accepted: msgPhoneAccepted},
			FieldEmail:           {validate: v.Email, accepted: msgEmailAccepted},
			FieldAppointmentDate: {validate: v.AppointmentDate, accepted: func(s string) string { return msgDateAccepted(dateresolver.FormatForDisplay(s)) }},
			FieldAppointmentTime: {validate: v.AppointmentTime, accepted: msgTimeAccepted},
			FieldPurpose:         {validate: v.Purpose},
		},
	}
}

// Start begins (or rewinds) collection at the name field. Fields that were
// already captured are kept; only Reset clears them.
func (m *Machine) Start() string {
	m.state = StateCollecting
	m.current = FieldName
	return MsgStart
}

// Submit feeds one user answer to the current field.
func (m *Machine) Submit(input string) string {
	if m.state != StateCollecting {
		return MsgNotActive
	}

	st, ok := m.steps[m.current]
	if !ok {
		return MsgUnknownField
	}

	value, rejection := st.validate(input)
	if rejection != "" {
		return rejection
	}

	m.record.set(m.current, value)

	following, more := next(m.current)
	if !more {
		m.state = StateComplete
		m.current = ""
		return summary(m.record)
	}

	m.current = following
	return st.accepted(value)
}

// Reset returns the machine to idle with an empty record.
func (m *Machine) Reset() {
	m.state = StateIdle
	m.current = ""
	m.record = Record{}
}

func (m *Machine) State() State {
	return m.state
}

// CurrentField returns the field awaiting input, or "" outside collection.
func (m *Machine) CurrentField() Field {
	return m.current
}

func (m *Machine) IsCollecting() bool {
	return m.state == StateCollecting
}

func (m *Machine) IsComplete() bool {
	return m.state == StateComplete
}

// Record returns a copy of the collected values.
func (m *Machine) Record() Record {
	return m.record.Clone()
}

// Summary renders the confirmation text for the current record.
func (m *Machine) Summary() string {
	return summary(m.record)
}

// Status is a read-only view of the machine for transports.
type Status struct {
	State        State             `json:"state"`
	CurrentField Field             `json:"current_field,omitempty"`
	Fields       map[Field]*string `json:"fields"`
}

func (m *Machine) Status() Status {
	rec := m.record.Clone()
	fields := make(map[Field]*string, len(Fields))
	for _, f := range Fields {
		fields[f] = rec.Get(f)
	}
	return Status{
		State:        m.state,
		CurrentField: m.current,
		Fields:       fields,
	}
}

// Snapshot is the serializable state of a machine.
type Snapshot struct {
	State        State  `json:"state"`
	CurrentField Field  `json:"current_field,omitempty"`
	Record       Record `json:"record"`
}

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:        m.state,
		CurrentField: m.current,
		Record:       m.record.Clone(),
	}
}

// Restore replaces the machine state with s. Inconsistent snapshots are
// rejected and leave the machine untouched.
func (m *Machine) Restore(s Snapshot) error {
	if s.State == "" {
		s.State = StateIdle
	}

	switch s.State {
	case StateIdle:
		if s.CurrentField != "" {
			return fmt.Errorf("%w: idle with current field %q", ErrInvalidSnapshot, s.CurrentField)
		}
	case StateCollecting:
		if !known(s.CurrentField) {
			return fmt.Errorf("%w: unknown current field %q", ErrInvalidSnapshot, s.CurrentField)
		}
	case StateComplete:
		if s.CurrentField != "" || !s.Record.Complete() {
			return fmt.Errorf("%w: complete state with missing fields", ErrInvalidSnapshot)
		}
	default:
		return fmt.Errorf("%w: unknown state %q", ErrInvalidSnapshot, s.State)
	}

	m.state = s.State
	m.current = s.CurrentField
	m.record = s.Record.Clone()
	return nil
}
