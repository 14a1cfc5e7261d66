package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightchat/pkg/events"
	"freightchat/pkg/store"
)

// RefreshTask names one independently failable background fetch.
type RefreshTask string

const (
	RefreshProfile   RefreshTask = "profile"
	RefreshDocuments RefreshTask = "documents"
	RefreshShipments RefreshTask = "shipments"
	RefreshMetadata  RefreshTask = "metadata"
	RefreshInvoices  RefreshTask = "invoices"
)

// Scheduler runs refresh tasks in the background after delay. Implementations
// must not block the caller and must run each task independently.
type Scheduler interface {
	Schedule(delay time.Duration, tasks ...RefreshTask)
}

// goScheduler runs every task on its own goroutine.
type goScheduler struct {
	controller *Controller
}

func (s *goScheduler) Schedule(delay time.Duration, tasks ...RefreshTask) {
	for _, task := range tasks {
		task := task
		time.AfterFunc(delay, func() {
			_ = s.controller.Refresh(context.Background(), task)
		})
	}
}

// Refresh runs one background fetch and applies its result. Failures are
// logged and returned but never touch the notice or the dialogue, so the task
// can simply be retried.
func (c *Controller) Refresh(ctx context.Context, task RefreshTask) error {
	c.mu.Lock()
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return ErrSessionRequired
	}
	token, userID, epoch := c.st.session.Token, c.st.session.User.UserID, c.st.epoch
	var threadID string
	if c.st.thread != nil {
		threadID = c.st.thread.ID
	}
	c.mu.Unlock()

	var apply func()
	var err error

	switch task {
	case RefreshProfile, RefreshDocuments:
		res, ferr := c.backend.Profile(ctx, token)
		err = ferr
		if ferr == nil {
			apply = func() {
				if task == RefreshProfile && res.User.UserID != "" {
					c.st.session.User = res.User
				}
				c.st.documents = nonNil(res.Documents)
			}
		}
	case RefreshShipments:
		shipments, ferr := c.backend.Shipments(ctx, token)
		err = ferr
		if ferr == nil {
			apply = func() { c.st.shipments = nonNil(shipments) }
		}
	case RefreshMetadata:
		invoices, ierr := c.backend.InvoiceMetadata(ctx, userID)
		documents, derr := c.backend.DocumentMetadata(ctx, userID)
		err = errors.Join(ierr, derr)
		// one listing is enough to refresh the panel
		if half, herr := partialFailure(ierr, derr); herr != nil {
			c.logger.Warn(module, "Metadata listing failed", map[string]interface{}{"listing": half, "error": herr.Error()})
			err = nil
		}
		if ierr == nil || derr == nil {
			apply = func() {
				if ierr == nil {
					c.st.invoiceMetadata = nonNil(invoices)
				}
				if derr == nil {
					c.st.documentMetadata = nonNil(documents)
				}
			}
		}
	case RefreshInvoices:
		if threadID == "" {
			return ErrThreadRequired
		}
		invoices, ferr := c.backend.SessionInvoices(ctx, token, threadID)
		err = ferr
		if ferr == nil {
			apply = func() {
				if c.st.thread != nil && c.st.thread.ID == threadID {
					c.st.invoices = nonNil(invoices)
				}
			}
		}
	default:
		return fmt.Errorf("unknown refresh task %q", task)
	}

	if apply != nil {
		c.mu.Lock()
		if c.st.epoch != epoch {
			c.mu.Unlock()
			return nil
		}
		apply()
		evt := c.event(events.TypeRefreshed, map[string]interface{}{"task": string(task)})
		c.mu.Unlock()
		c.emit(evt)
	}

	if err != nil {
		c.logger.Warn(module, "Background refresh failed", map[string]interface{}{"task": string(task), "error": err.Error()})
		return fmt.Errorf("refresh %s: %w", task, err)
	}
	return nil
}

// partialFailure names the metadata listing that failed when the other one
// succeeded.
func partialFailure(invoiceErr, documentErr error) (string, error) {
	switch {
	case invoiceErr != nil && documentErr == nil:
		return "invoices", invoiceErr
	case documentErr != nil && invoiceErr == nil:
		return "documents", documentErr
	}
	return "", nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Track looks up a tracking number. It needs no session. A failure clears the
// previously shown tracking info.
func (c *Controller) Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, nil
	}
	c.mu.Lock()
	if err := c.acquireLocked(store.LaneTracking); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	epoch := c.st.epoch
	c.mu.Unlock()

	info, err := c.backend.Track(ctx, trackingNumber)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneTracking, epoch) {
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		c.st.tracking = nil
		opErr, evt := c.failLocked("track", NoticeTrackingFailed, err)
		c.mu.Unlock()
		c.emit(evt)
		return nil, opErr
	}
	c.st.tracking = info
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "tracking"})
	c.mu.Unlock()

	c.emit(evt)
	return info, nil
}

// AskDocuments asks a free-form question over the user's uploaded documents.
func (c *Controller) AskDocuments(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil
	}
	c.mu.Lock()
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return "", ErrSessionRequired
	}
	if err := c.acquireLocked(store.LaneDocumentChat); err != nil {
		c.mu.Unlock()
		return "", err
	}
	token, epoch := c.st.session.Token, c.st.epoch
	c.mu.Unlock()

	answer, err := c.backend.DocumentChat(ctx, token, question)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneDocumentChat, epoch) {
		c.mu.Unlock()
		return "", nil
	}
	if err != nil {
		opErr, evt := c.failLocked("ask_documents", NoticeChatFailed, err)
		c.mu.Unlock()
		c.emit(evt)
		return "", opErr
	}
	c.st.documentAnswer = answer
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "document_answer"})
	c.mu.Unlock()

	c.emit(evt)
	return answer, nil
}

// RecordNotice sets the notice from outside the controller's own commands,
// for example a failed metadata detail lookup.
func (c *Controller) RecordNotice(severity, message string) {
	c.mu.Lock()
	evt := c.noticeLocked(severity, message)
	c.mu.Unlock()
	c.emit(evt)
}
