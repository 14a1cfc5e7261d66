package shipping

import (
	"context"
	"sync"
	"time"

	"freightchat/internal/pkg/logger"
	"freightchat/pkg/events"
	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"

	"github.com/google/uuid"
)

const module = "ShippingController"

// Backend is the remote surface the controller drives. *freightapi.Client
// implements it.
type Backend interface {
	Authenticate(ctx context.Context, mode freightapi.AuthMode, req freightapi.AuthRequest) (*freightapi.AuthResponse, error)
	Profile(ctx context.Context, token string) (*freightapi.ProfileResponse, error)
	StartAgent(ctx context.Context, token string) (*freightapi.AgentResponse, error)
	SendMessage(ctx context.Context, token string, req freightapi.MessageRequest) (*freightapi.AgentResponse, error)
	UploadDocument(ctx context.Context, token, threadID string, file freightapi.File) (*freightapi.UploadResponse, error)
	UploadInvoice(ctx context.Context, token, threadID string, file freightapi.File) (*freightapi.InvoiceUploadResponse, error)
	SessionInvoices(ctx context.Context, token, threadID string) ([]store.Invoice, error)
	Book(ctx context.Context, token string, req freightapi.BookRequest) (*store.Booking, error)
	Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error)
	Shipments(ctx context.Context, token string) ([]store.Shipment, error)
	DocumentChat(ctx context.Context, token, message string) (string, error)
	InvoiceMetadata(ctx context.Context, userID string) ([]store.InvoiceMetadata, error)
	DocumentMetadata(ctx context.Context, userID string) ([]store.DocumentMetadata, error)
}

var _ Backend = (*freightapi.Client)(nil)

// Observer receives every event after the state change it describes is visible
// through Snapshot. It is called without the controller lock held.
type Observer func(evt events.Event)

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithPromptRule(rule PromptRule) Option {
	return func(c *Controller) { c.promptRule = rule }
}

// state is everything a single UI session owns.
type state struct {
	session  store.Session
	thread   *store.Thread
	dialogue string
	messages []store.Message
	input    string
	quote    *store.QuoteSet
	invoices []store.Invoice
	staged   *store.StagedUpload

	documents        []store.Document
	shipments        []store.Shipment
	tracking         *store.TrackingInfo
	documentAnswer   string
	invoiceMetadata  []store.InvoiceMetadata
	documentMetadata []store.DocumentMetadata

	notice *store.Notice
	busy   map[string]time.Time

	// epoch changes whenever the session identity changes, so late results
	// from a previous session are dropped.
	epoch uint64
}

func newState(epoch uint64) state {
	return state{
		dialogue: store.StateNoThread,
		busy:     make(map[string]time.Time),
		epoch:    epoch,
	}
}

// Controller owns the session, the dialogue and the upload staging area of one
// UI session. All methods are safe for concurrent use; each lane allows one
// request in flight at a time.
type Controller struct {
	backend    Backend
	storage    SessionStore
	logger     logger.ILogger
	scheduler  Scheduler
	observer   Observer
	now        func() time.Time
	promptRule PromptRule

	mu sync.Mutex
	st state
}

func NewController(backend Backend, storage SessionStore, log logger.ILogger, opts ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		storage:    storage,
		logger:     log,
		now:        time.Now,
		promptRule: DefaultPromptRule,
		st:         newState(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = &goScheduler{controller: c}
	}
	return c
}

// acquireLocked marks lane busy. Callers hold c.mu.
func (c *Controller) acquireLocked(lane string) error {
	if _, busy := c.st.busy[lane]; busy {
		return ErrLaneBusy
	}
	c.st.busy[lane] = c.now()
	return nil
}

// releaseLocked clears lane and reports whether the result of the request
// started under epoch may still be applied. A reset replaces the busy map, so
// a stale request leaves it untouched.
func (c *Controller) releaseLocked(lane string, epoch uint64) bool {
	if c.st.epoch != epoch {
		return false
	}
	delete(c.st.busy, lane)
	return true
}

func (c *Controller) appendLocked(role, content string) *store.Message {
	c.st.messages = append(c.st.messages, store.Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	})
	return &c.st.messages[len(c.st.messages)-1]
}

func (c *Controller) noticeLocked(severity, message string) events.Event {
	c.st.notice = &store.Notice{Severity: severity, Message: message, At: c.now()}
	return c.event(events.TypeNotice, map[string]interface{}{
		"severity": severity,
		"message":  message,
	})
}

// failLocked records the error notice for a failed backend call and builds the
// OperationError returned to the caller.
func (c *Controller) failLocked(op, fallback string, err error) (*OperationError, events.Event) {
	notice := NoticeFor(err, fallback)
	return &OperationError{Op: op, Notice: notice, Err: err}, c.noticeLocked(store.SeverityError, notice)
}

func (c *Controller) event(typ string, data map[string]interface{}) events.Event {
	if data == nil {
		data = make(map[string]interface{})
	}
	if c.st.session.Authenticated {
		data["user_id"] = c.st.session.User.UserID
	}
	if c.st.thread != nil {
		data["thread_id"] = c.st.thread.ID
	}
	return events.BaseEvent{Type: typ, Data: data, OccurredAt: c.now()}
}

func (c *Controller) emit(evts ...events.Event) {
	if c.observer == nil {
		return
	}
	for _, evt := range evts {
		c.observer(evt)
	}
}

// SetInput stores the dialogue input draft.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.st.input = text
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "input"})
	c.mu.Unlock()
	c.emit(evt)
}

// DismissNotice clears the transient notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.st.notice = nil
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "notice"})
	c.mu.Unlock()
	c.emit(evt)
}
