package shipping

import (
	"context"
	"sync"
	"time"

	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"
)

// fakeBackend answers with scripted responses and records every call.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	authRes  *freightapi.AuthResponse
	authErr  error
	profile  *freightapi.ProfileResponse
	startRes *freightapi.AgentResponse
	startErr error

	// replies are consumed in order by SendMessage; when empty replyErr or a
	// default reply is used.
	replies  []*freightapi.AgentResponse
	replyErr error
	sent     []freightapi.MessageRequest

	// block, when set, holds SendMessage until closed.
	block chan struct{}

	uploadRes  *freightapi.UploadResponse
	uploadErr  error
	uploadedTo []string

	invoiceErr error
	invoices   []store.Invoice

	booking *store.Booking
	bookErr error

	tracking *store.TrackingInfo
	trackErr error

	shipments   []store.Shipment
	shipmentErr error
	answer      string

	invoiceMeta  []store.InvoiceMetadata
	documentMeta []store.DocumentMetadata
	metaErr      error
	docMetaErr   error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Authenticate(ctx context.Context, mode freightapi.AuthMode, req freightapi.AuthRequest) (*freightapi.AuthResponse, error) {
	f.record("auth:" + string(mode))
	if f.authErr != nil {
		return nil, f.authErr
	}
	if f.authRes != nil {
		return f.authRes, nil
	}
	return &freightapi.AuthResponse{Token: "tok-" + req.UserID, User: store.User{UserID: req.UserID, Name: req.Name}}, nil
}

func (f *fakeBackend) Profile(ctx context.Context, token string) (*freightapi.ProfileResponse, error) {
	f.record("profile")
	if f.profile == nil {
		return &freightapi.ProfileResponse{}, nil
	}
	return f.profile, nil
}

func (f *fakeBackend) StartAgent(ctx context.Context, token string) (*freightapi.AgentResponse, error) {
	f.record("start")
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.startRes != nil {
		return f.startRes, nil
	}
	return &freightapi.AgentResponse{
		Status:       freightapi.Status{Success: true},
		ThreadID:     "thread-1",
		Message:      "Hi! Where are you shipping from?",
		CurrentPhase: "greeting",
	}, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, token string, req freightapi.MessageRequest) (*freightapi.AgentResponse, error) {
	f.record("message")
	f.mu.Lock()
	f.sent = append(f.sent, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	if len(f.replies) > 0 {
		res := f.replies[0]
		f.replies = f.replies[1:]
		return res, nil
	}
	return &freightapi.AgentResponse{
		Status:       freightapi.Status{Success: true},
		Message:      "Got it.",
		CurrentPhase: "route_collection",
	}, nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, token, threadID string, file freightapi.File) (*freightapi.UploadResponse, error) {
	f.record("upload")
	f.mu.Lock()
	f.uploadedTo = append(f.uploadedTo, threadID)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadRes != nil {
		return f.uploadRes, nil
	}
	return &freightapi.UploadResponse{Filename: file.Filename, DocumentID: "doc-1"}, nil
}

func (f *fakeBackend) UploadInvoice(ctx context.Context, token, threadID string, file freightapi.File) (*freightapi.InvoiceUploadResponse, error) {
	f.record("invoice")
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	return &freightapi.InvoiceUploadResponse{Status: freightapi.Status{Success: true}}, nil
}

func (f *fakeBackend) SessionInvoices(ctx context.Context, token, threadID string) ([]store.Invoice, error) {
	f.record("invoices")
	return f.invoices, nil
}

func (f *fakeBackend) Book(ctx context.Context, token string, req freightapi.BookRequest) (*store.Booking, error) {
	f.record("book")
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	if f.booking != nil {
		return f.booking, nil
	}
	return &store.Booking{BookingID: "B-1", TrackingNumber: "TRK-1", EstimatedDelivery: "2026-11-02"}, nil
}

func (f *fakeBackend) Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error) {
	f.record("track")
	if f.trackErr != nil {
		return nil, f.trackErr
	}
	if f.tracking != nil {
		return f.tracking, nil
	}
	return &store.TrackingInfo{TrackingNumber: trackingNumber, Status: "in_transit"}, nil
}

func (f *fakeBackend) Shipments(ctx context.Context, token string) ([]store.Shipment, error) {
	f.record("shipments")
	return f.shipments, f.shipmentErr
}

func (f *fakeBackend) DocumentChat(ctx context.Context, token, message string) (string, error) {
	f.record("document_chat")
	return f.answer, nil
}

func (f *fakeBackend) InvoiceMetadata(ctx context.Context, userID string) ([]store.InvoiceMetadata, error) {
	f.record("invoice_metadata")
	return f.invoiceMeta, f.metaErr
}

func (f *fakeBackend) DocumentMetadata(ctx context.Context, userID string) ([]store.DocumentMetadata, error) {
	f.record("document_metadata")
	return f.documentMeta, f.docMetaErr
}

// recordingScheduler keeps scheduled tasks instead of running them.
type recordingScheduler struct {
	mu    sync.Mutex
	tasks []RefreshTask
}

func (s *recordingScheduler) Schedule(delay time.Duration, tasks ...RefreshTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

func (s *recordingScheduler) Tasks() []RefreshTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RefreshTask(nil), s.tasks...)
}

// memoryStore is an in-process SessionStore.
type memoryStore struct {
	mu      sync.Mutex
	stored  *StoredSession
	loadErr error
	cleared int
}

func (m *memoryStore) Save(ctx context.Context, s StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = &s
	return nil
}

func (m *memoryStore) Load(ctx context.Context) (*StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stored, nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = nil
	m.cleared++
	return nil
}
