package shipping

import (
	"errors"
	"fmt"

	"freightchat/pkg/freightapi"
)

var (
	// ErrSessionRequired is returned when an authenticated command runs without a session.
	ErrSessionRequired = errors.New("shipping: authenticated session required")
	// ErrLaneBusy is returned when a lane already has a request in flight.
	ErrLaneBusy = errors.New("shipping: operation already in progress")
	// ErrThreadRequired is returned when a thread-scoped command runs before a thread exists.
	ErrThreadRequired = errors.New("shipping: no active thread")
	// ErrUserIDRequired is returned by Authenticate for a blank user id.
	ErrUserIDRequired = errors.New("shipping: user id required")
)

// Fixed notices shown when the backend gives no message of its own.
const (
	NoticeAuthFailed         = "Authentication failed"
	NoticeStartFailed        = "Failed to start agent"
	NoticeSendFailed         = "Failed to send message"
	NoticeUploadFailed       = "Upload failed"
	NoticeInvoiceFailed      = "Invoice upload failed"
	NoticeBookingFailed      = "Booking failed"
	NoticeTrackingFailed     = "Tracking failed"
	NoticeChatFailed         = "Chat failed"
	NoticeInvoiceDetailFail  = "Failed to fetch invoice details"
	NoticeDocumentDetailFail = "Failed to fetch document details"
)

// OperationError is returned by every command whose backend call failed.
// Notice is what the user sees: the backend text when it sent one, else the
// fixed per-operation text.
type OperationError struct {
	Op     string
	Notice string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Notice, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the backend answered and refused, as opposed to a
// transport failure.
func (e *OperationError) Rejected() bool {
	_, ok := freightapi.BackendMessage(e.Err)
	return ok
}

// NoticeFor picks the user-facing text for err.
func NoticeFor(err error, fallback string) string {
	if msg, ok := freightapi.BackendMessage(err); ok && msg != "" {
		return msg
	}
	return fallback
}
