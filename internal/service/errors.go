package service

import (
	"errors"

	"freightchat/pkg/shipping"
)

// refreshError turns a failed on-demand refresh into an OperationError for the
// caller. The controller notice is left alone.
func refreshError(op, fallback string, err error) error {
	if errors.Is(err, shipping.ErrSessionRequired) || errors.Is(err, shipping.ErrThreadRequired) {
		return err
	}
	return &shipping.OperationError{Op: op, Notice: shipping.NoticeFor(err, fallback), Err: err}
}
