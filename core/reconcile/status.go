package reconcile

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"
)

// Status is the lifecycle state of a staged record.
// It is persisted as a single-letter code in the staging table.
type Status int

const (
	// StatusNew is a freshly staged record that has not been gated yet.
	StatusNew Status = iota
	// StatusPending is eligible and waiting for the next pass.
	StatusPending
	// StatusUpdated means the remote create or update was confirmed.
	StatusUpdated
	// StatusSkipped means a business rule excluded the record.
	StatusSkipped
	// StatusError means a remote or local failure; eligible for manual replay.
	StatusError
	// StatusAmbiguous means the remote call succeeded but the echoed identity
	// could not be confirmed. Requires investigation, never retried.
	StatusAmbiguous
	// StatusExcluded is a pending record the pass chose not to process.
	StatusExcluded

	statusCount
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

var statusCodes = [statusCount]string{
	StatusNew:       "N",
	StatusPending:   "P",
	StatusUpdated:   "Y",
	StatusSkipped:   "S",
	StatusError:     "E",
	StatusAmbiguous: "Z",
	StatusExcluded:  "X",
}

var statusNames = [statusCount]string{
	StatusNew:       "new",
	StatusPending:   "pending",
	StatusUpdated:   "updated",
	StatusSkipped:   "skipped",
	StatusError:     "error",
	StatusAmbiguous: "ambiguous",
	StatusExcluded:  "excluded",
}

// transitions lists the allowed targets for every status. Terminal states map to nil.
var transitions = [statusCount][]Status{
	StatusNew:       {StatusPending, StatusSkipped},
	StatusPending:   {StatusUpdated, StatusSkipped, StatusError, StatusAmbiguous, StatusExcluded},
	StatusUpdated:   nil,
	StatusSkipped:   nil,
	StatusError:     nil,
	StatusAmbiguous: nil,
	StatusExcluded:  nil,
}

// PassOutcomes are the statuses a pending record may end in after processing.
var PassOutcomes = []Status{StatusUpdated, StatusSkipped, StatusError, StatusAmbiguous}

// IsPassOutcome reports whether s is one of PassOutcomes.
func IsPassOutcome(s Status) bool {
	return slices.Contains(PassOutcomes, s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s >= 0 && s < statusCount
}

// Code returns the single-letter storage code.
func (s Status) Code() string {
	if !s.Valid() {
		return "?"
	}
	return statusCodes[s]
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is part of the state machine.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates a status change.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ParseStatus converts a storage code back into a Status.
func ParseStatus(code string) (Status, error) {
	for s, c := range statusCodes {
		if c == code {
			return Status(s), nil
		}
	}
	return 0, fmt.Errorf("unknown status code %q", code)
}

// Value implements driver.Valuer so statuses are always bound as parameters.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot store %s", s)
	}
	return s.Code(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var code string
	switch v := src.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	case nil:
		*s = StatusNew
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
	parsed, err := ParseStatus(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText renders the status name for JSON and logs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts either the status name or its storage code.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
