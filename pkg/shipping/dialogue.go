package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightchat/pkg/events"
	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"
)

// ContinuationMessage is sent on the dialogue's behalf right after a document
// upload so the agent can proceed with the new document.
const ContinuationMessage = "[DOCUMENT_UPLOADED]"

// StartThread opens a new shipping conversation and seeds the log with the
// backend's greeting.
func (c *Controller) StartThread(ctx context.Context) error {
	c.mu.Lock()
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return ErrSessionRequired
	}
	if err := c.acquireLocked(store.LaneMessaging); err != nil {
		c.mu.Unlock()
		return err
	}
	token, epoch := c.st.session.Token, c.st.epoch
	c.mu.Unlock()

	res, err := c.backend.StartAgent(ctx, token)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneMessaging, epoch) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		opErr, evt := c.failLocked("start_thread", NoticeStartFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Failed to start agent", map[string]interface{}{"error": err.Error()})
		c.emit(evt)
		return opErr
	}

	c.st.thread = &store.Thread{
		ID:           res.ThreadID,
		CurrentPhase: res.CurrentPhase,
		ShipmentData: res.ShipmentData,
	}
	c.st.messages = nil
	c.st.quote = nil
	c.st.invoices = nil
	c.st.dialogue = store.StateIdle
	c.appendLocked(store.RoleAssistant, res.Message)
	evt := c.event(events.TypeThreadStarted, map[string]interface{}{"phase": res.CurrentPhase})
	c.mu.Unlock()

	c.logger.Info(module, "Shipping thread started", map[string]interface{}{"thread_id": res.ThreadID, "phase": res.CurrentPhase})
	c.emit(evt)
	return nil
}

// SendMessage appends the user's text, clears the input draft and exchanges it
// with the agent. Blank text or a missing thread is a no-op.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.exchange(ctx, text, true)
}

// SendInput sends the current input draft.
func (c *Controller) SendInput(ctx context.Context) error {
	c.mu.Lock()
	text := c.st.input
	c.mu.Unlock()
	return c.SendMessage(ctx, text)
}

func (c *Controller) hasDocumentLocked() bool {
	if len(c.st.documents) > 0 {
		return true
	}
	return c.st.thread != nil && c.st.thread.Attachments > 0
}

// exchange runs one message round trip on the messaging lane. With echo the
// user message is appended before the request; a failure keeps it.
func (c *Controller) exchange(ctx context.Context, text string, echo bool) error {
	c.mu.Lock()
	if c.st.thread == nil || !c.st.session.Authenticated {
		c.mu.Unlock()
		return nil
	}
	if err := c.acquireLocked(store.LaneMessaging); err != nil {
		c.mu.Unlock()
		return err
	}
	return c.exchangeHeld(ctx, text, echo)
}

// exchangeHeld runs one exchange for a caller that holds c.mu and the
// messaging lane. It unlocks c.mu and releases the lane before returning.
func (c *Controller) exchangeHeld(ctx context.Context, text string, echo bool) error {
	var evts []events.Event
	if echo {
		msg := c.appendLocked(store.RoleUser, text)
		c.st.input = ""
		evts = append(evts, c.event(events.TypeMessageAppended, map[string]interface{}{"role": msg.Role, "message_id": msg.ID.String()}))
	}
	resume := c.st.dialogue
	c.st.dialogue = store.StateAwaitingReply
	token, epoch := c.st.session.Token, c.st.epoch
	req := freightapi.MessageRequest{
		ThreadID:    c.st.thread.ID,
		Message:     text,
		HasDocument: c.hasDocumentLocked(),
	}
	c.mu.Unlock()
	c.emit(evts...)

	res, err := c.backend.SendMessage(ctx, token, req)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneMessaging, epoch) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.st.dialogue = c.settleLocked(resume)
		opErr, evt := c.failLocked("send_message", NoticeSendFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Failed to send message", map[string]interface{}{"thread_id": req.ThreadID, "error": err.Error()})
		c.emit(evt)
		return opErr
	}

	evts = evts[:0]
	previousPhase := c.st.thread.CurrentPhase
	reply := c.appendLocked(store.RoleAssistant, res.Message)
	replyID := reply.ID.String()
	c.st.thread.CurrentPhase = res.CurrentPhase
	c.st.thread.ShipmentData = res.ShipmentData
	if res.Quote != nil {
		c.st.quote = res.Quote
	}
	if res.Invoices != nil {
		c.st.invoices = res.Invoices
	}

	if c.wantsUpload(c.st.thread) {
		if resume != store.StateUploadPending {
			reply.UploadPrompt = true
			evts = append(evts, c.event(events.TypeUploadPrompted, map[string]interface{}{"phase": res.CurrentPhase}))
		}
		c.st.dialogue = store.StateUploadPending
	} else {
		c.st.dialogue = store.StateIdle
	}

	evts = append([]events.Event{c.event(events.TypeMessageAppended, map[string]interface{}{"role": store.RoleAssistant, "message_id": replyID})}, evts...)
	if previousPhase != res.CurrentPhase {
		evts = append(evts, c.event(events.TypePhaseChanged, map[string]interface{}{"from": previousPhase, "to": res.CurrentPhase}))
	}
	if res.Quote != nil {
		evts = append(evts, c.event(events.TypeQuoteReceived, map[string]interface{}{"quotes": len(res.Quote.Quotes)}))
	}
	c.mu.Unlock()

	c.emit(evts...)
	return nil
}

// settleLocked picks the state to return to once a reply is abandoned.
func (c *Controller) settleLocked(resume string) string {
	if c.st.thread == nil {
		return store.StateNoThread
	}
	if resume == store.StateUploadPending && !c.wantsUpload(c.st.thread) {
		return store.StateIdle
	}
	if resume == store.StateAwaitingReply || resume == store.StateNoThread {
		return store.StateIdle
	}
	return resume
}

// BookShipment books the chosen carrier and service level for the thread.
func (c *Controller) BookShipment(ctx context.Context, carrierID, serviceLevel string) error {
	c.mu.Lock()
	if c.st.thread == nil || !c.st.session.Authenticated {
		c.mu.Unlock()
		return nil
	}
	if err := c.acquireLocked(store.LaneBooking); err != nil {
		c.mu.Unlock()
		return err
	}
	token, epoch := c.st.session.Token, c.st.epoch
	req := freightapi.BookRequest{ThreadID: c.st.thread.ID, CarrierID: carrierID, ServiceLevel: serviceLevel}
	c.mu.Unlock()

	booking, err := c.backend.Book(ctx, token, req)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneBooking, epoch) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		opErr, evt := c.failLocked("book_shipment", NoticeBookingFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Booking failed", map[string]interface{}{"carrier_id": carrierID, "error": err.Error()})
		c.emit(evt)
		return opErr
	}

	msg := c.appendLocked(store.RoleAssistant, fmt.Sprintf(
		"Shipment booked successfully!\n\nBooking ID: %s\nTracking: %s\nEstimated Delivery: %s",
		booking.BookingID, booking.TrackingNumber, formatDelivery(booking.EstimatedDelivery),
	))
	evts := []events.Event{
		c.event(events.TypeMessageAppended, map[string]interface{}{"role": msg.Role, "message_id": msg.ID.String()}),
		c.event(events.TypeShipmentBooked, map[string]interface{}{
			"booking_id":      booking.BookingID,
			"tracking_number": booking.TrackingNumber,
			"carrier_id":      carrierID,
			"service_level":   serviceLevel,
		}),
		c.noticeLocked(store.SeveritySuccess, "Shipment booked! Tracking: "+booking.TrackingNumber),
	}
	c.mu.Unlock()

	c.logger.Info(module, "Shipment booked", map[string]interface{}{"booking_id": booking.BookingID, "tracking_number": booking.TrackingNumber})
	c.emit(evts...)
	c.scheduler.Schedule(0, RefreshShipments)
	return nil
}

var deliveryLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// formatDelivery renders a backend date as a short calendar date, or returns
// it unchanged when it cannot be parsed.
func formatDelivery(raw string) string {
	for _, layout := range deliveryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return raw
}
