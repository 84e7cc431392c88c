package ecommerce

import (
	"errors"
	"fmt"

	"ecomm-sync/core/crm"
)

// RemoteError is a failed CRM call. Its message is the text persisted on the record.
type RemoteError struct {
	Op       string
	Response *crm.Response
}

func (e *RemoteError) Error() string {
	return e.Response.Describe()
}

func remoteError(op string, resp *crm.Response) error {
	return &RemoteError{Op: op, Response: resp}
}

// ErrExternalIDMismatch is returned when an order lookup returns a different order.
var ErrExternalIDMismatch = errors.New("returned external id does not match")

// responseText returns what should be stored on the record for err.
func responseText(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Response.Describe()
	}
	var me *mismatchError
	if errors.As(err, &me) {
		return me.body
	}
	return err.Error()
}

type mismatchError struct {
	expected string
	returned string
	body     string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("%s: returned %q, expected %q", ErrExternalIDMismatch, e.returned, e.expected)
}

func (e *mismatchError) Unwrap() error { return ErrExternalIDMismatch }
