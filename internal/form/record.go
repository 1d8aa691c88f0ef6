package form

// State is the lifecycle state of a form session.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateComplete   State = "complete"
)

// Field identifies one appointment field.
type Field string

const (
	FieldName            Field = "name"
	FieldPhone           Field = "phone"
	FieldEmail           Field = "email"
	FieldAppointmentDate Field = "appointment_date"
	FieldAppointmentTime Field = "appointment_time"
	FieldPurpose         Field = "purpose"
)

// Fields lists the fields in collection order.
var Fields = []Field{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldAppointmentDate,
	FieldAppointmentTime,
	FieldPurpose,
}

// next returns the field after f, or false when f is the last one.
func next(f Field) (Field, bool) {
	for i, candidate := range Fields {
		if candidate == f && i+1 < len(Fields) {
			return Fields[i+1], true
		}
	}
	return "", false
}

func known(f Field) bool {
	for _, candidate := range Fields {
		if candidate == f {
			return true
		}
	}
	return false
}

// Record is the appointment being built. A nil field has not been collected.
type Record struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	Purpose         *string `json:"purpose"`
}

func (r *Record) slot(f Field) **string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldPhone:
		return &r.Phone
	case FieldEmail:
		return &r.Email
	case FieldAppointmentDate:
		return &r.AppointmentDate
	case FieldAppointmentTime:
		return &r.AppointmentTime
	case FieldPurpose:
		return &r.Purpose
	}
	return nil
}

// Get returns the stored value of f, or nil.
func (r Record) Get(f Field) *string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return nil
}

// Value returns the stored value of f, or "" when it is not collected.
func (r Record) Value(f Field) string {
	if v := r.Get(f); v != nil {
		return *v
	}
	return ""
}

func (r *Record) set(f Field, value string) {
	if p := r.slot(f); p != nil {
		v := value
		*p = &v
	}
}

// Complete reports whether all six fields are populated.
func (r Record) Complete() bool {
	for _, f := range Fields {
		if r.Get(f) == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers cannot mutate machine state.
func (r Record) Clone() Record {
	var out Record
	for _, f := range Fields {
		if v := r.Get(f); v != nil {
			out.set(f, *v)
		}
	}
	return out
}
