package service

import (
	"context"
	"sync"
	"time"

	"freightchat/internal/dto"
	"freightchat/internal/pkg/logger"
	"freightchat/pkg/events"
	"freightchat/pkg/freightapi"
	"freightchat/pkg/shipping"
	"freightchat/pkg/store"
)

// SnapshotBroadcaster pushes frames to connected renderers.
type SnapshotBroadcaster interface {
	Broadcast(frameType string, data interface{})
}

// EventPublisher ships domain events out of the process.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IAgentService interface {
	Controller() *shipping.Controller
	Subscribe(fn func(events.Event))

	Restore(ctx context.Context) bool
	Authenticate(ctx context.Context, req *dto.AuthenticateRequest) (*dto.SessionResponse, error)
	Logout(ctx context.Context)
	State() shipping.Snapshot
	DismissNotice()

	StartThread(ctx context.Context) error
	SetInput(text string)
	SendMessage(ctx context.Context, text string) error
	Book(ctx context.Context, req *dto.BookRequest) error

	StageFile(filename string, data []byte) (*dto.StagedFileResponse, error)
	Unstage() error
	UploadStaged(ctx context.Context) error
	Skip()
	UploadInvoice(ctx context.Context, filename string, data []byte) error
	RefreshInvoices(ctx context.Context) ([]store.Invoice, error)
	UploadDocument(ctx context.Context, filename string, data []byte) error
}

type agentService struct {
	controller *shipping.Controller
	hub        SnapshotBroadcaster
	publisher  EventPublisher
	logger     logger.ILogger

	mu          sync.RWMutex
	subscribers []func(events.Event)
}

// NewAgentService builds the controller and wires its events to the renderer
// hub and the event publisher. hub and publisher may be nil.
func NewAgentService(
	backend shipping.Backend,
	storage shipping.SessionStore,
	scheduler shipping.Scheduler,
	hub SnapshotBroadcaster,
	publisher EventPublisher,
	log logger.ILogger,
) IAgentService {
	s := &agentService{hub: hub, publisher: publisher, logger: log}
	opts := []shipping.Option{shipping.WithObserver(s.observe)}
	if scheduler != nil {
		opts = append(opts, shipping.WithScheduler(scheduler))
	}
	s.controller = shipping.NewController(backend, storage, log, opts...)
	return s
}

func (s *agentService) Controller() *shipping.Controller {
	return s.controller
}

// Subscribe registers an extra in-process event handler.
func (s *agentService) Subscribe(fn func(events.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *agentService) observe(evt events.Event) {
	s.logger.Debug("AgentService", "Controller event", map[string]interface{}{"type": evt.EventType(), "data": evt.Payload()})

	if s.hub != nil {
		s.hub.Broadcast("snapshot", s.controller.Snapshot())
	}

	s.mu.RLock()
	subscribers := append([]func(events.Event){}, s.subscribers...)
	s.mu.RUnlock()
	for _, fn := range subscribers {
		fn(evt)
	}

	if s.publisher != nil && events.Domain(evt.EventType()) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.publisher.Publish(ctx, evt); err != nil {
				s.logger.Warn("AgentService", "Failed to publish event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
			}
		}()
	}
}

func (s *agentService) Restore(ctx context.Context) bool {
	return s.controller.RestoreFromStorage(ctx)
}

func (s *agentService) Authenticate(ctx context.Context, req *dto.AuthenticateRequest) (*dto.SessionResponse, error) {
	session, err := s.controller.Authenticate(ctx, shipping.AuthInput{
		Mode:   freightapi.AuthMode(req.Mode),
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{User: session.User, Authenticated: session.Authenticated}, nil
}

func (s *agentService) Logout(ctx context.Context) {
	s.controller.Logout(ctx)
}

func (s *agentService) State() shipping.Snapshot {
	return s.controller.Snapshot()
}

func (s *agentService) DismissNotice() {
	s.controller.DismissNotice()
}

func (s *agentService) StartThread(ctx context.Context) error {
	return s.controller.StartThread(ctx)
}

func (s *agentService) SetInput(text string) {
	s.controller.SetInput(text)
}

func (s *agentService) SendMessage(ctx context.Context, text string) error {
	return s.controller.SendMessage(ctx, text)
}

func (s *agentService) Book(ctx context.Context, req *dto.BookRequest) error {
	return s.controller.BookShipment(ctx, req.CarrierID, req.ServiceLevel)
}

func (s *agentService) StageFile(filename string, data []byte) (*dto.StagedFileResponse, error) {
	if err := s.controller.StageFile(filename, data); err != nil {
		return nil, err
	}
	return &dto.StagedFileResponse{Filename: filename, Size: int64(len(data))}, nil
}

func (s *agentService) Unstage() error {
	return s.controller.Unstage()
}

func (s *agentService) UploadStaged(ctx context.Context) error {
	return s.controller.UploadStaged(ctx)
}

func (s *agentService) Skip() {
	s.controller.Skip()
}

func (s *agentService) UploadInvoice(ctx context.Context, filename string, data []byte) error {
	return s.controller.UploadInvoice(ctx, filename, data)
}

func (s *agentService) RefreshInvoices(ctx context.Context) ([]store.Invoice, error) {
	if err := s.controller.Refresh(ctx, shipping.RefreshInvoices); err != nil {
		return nil, refreshError("invoices", "Failed to load invoices", err)
	}
	return s.controller.Snapshot().Invoices, nil
}

func (s *agentService) UploadDocument(ctx context.Context, filename string, data []byte) error {
	return s.controller.UploadDocument(ctx, filename, data)
}
