package validation

// Status is the validation state of one field.
//
//	Untouched -> Pending -> Valid | Invalid
//
// Pending means a uniqueness lookup is still outstanding; submission is
// blocked until it resolves.
type Status int

const (
	StatusUntouched Status = iota
	StatusPending
	StatusValid
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "untouched"
	}
}

// Outcome is the result of checking one field.
type Outcome struct {
	Status  Status
	Message string
	// Clause is the raw text of the failing clause.
	Clause string
}

// Failed reports whether the outcome carries an error message.
func (o Outcome) Failed() bool { return o.Status == StatusInvalid }
