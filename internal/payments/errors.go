package payments

import "errors"

var (
	// ErrAttendeeNotFound means no registration exists for the given id.
	ErrAttendeeNotFound = errors.New("attendee not found")

	// ErrPaidNotRecorded is the dangerous case: the gateway approved the
	// charge but the registration row could not be updated. The user must
	// not re-pay; an operator reconciles manually.
	ErrPaidNotRecorded = errors.New("payment succeeded but recording failed, contact organizer")
)

// RejectionError carries a gateway decline with its localized user message.
type RejectionError struct {
	StatusDetail string
	Message      string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func newRejectionError(statusDetail string) *RejectionError {
	return &RejectionError{StatusDetail: statusDetail, Message: RejectionMessage(statusDetail)}
}
