package service

import (
	"context"
	"strings"

	"freightchat/internal/dto"
	"freightchat/internal/pkg/logger"
	"freightchat/internal/repository/memory"
	"freightchat/pkg/events"
	"freightchat/pkg/shipping"
	"freightchat/pkg/store"
)

// MetadataSource is the worker detail lookup. *freightapi.Client implements it.
type MetadataSource interface {
	InvoiceDetail(ctx context.Context, invoiceID string) (*store.InvoiceRecord, error)
	DocumentDetail(ctx context.Context, documentID string) (*store.DocumentRecord, error)
}

type IMetadataService interface {
	List() *dto.MetadataResponse
	Refresh(ctx context.Context) (*dto.MetadataResponse, error)
	Invoice(ctx context.Context, invoiceID string) (*store.InvoiceRecord, error)
	Document(ctx context.Context, documentID string) (*store.DocumentRecord, error)
	HandleEvent(evt events.Event)
}

type metadataService struct {
	controller *shipping.Controller
	source     MetadataSource
	cache      *memory.MetadataCache
	logger     logger.ILogger
}

func NewMetadataService(controller *shipping.Controller, source MetadataSource, cache *memory.MetadataCache, log logger.ILogger) IMetadataService {
	return &metadataService{controller: controller, source: source, cache: cache, logger: log}
}

func (s *metadataService) List() *dto.MetadataResponse {
	snap := s.controller.Snapshot()
	return &dto.MetadataResponse{Invoices: snap.InvoiceMetadata, Documents: snap.DocumentMetadata}
}

func (s *metadataService) Refresh(ctx context.Context) (*dto.MetadataResponse, error) {
	if err := s.controller.Refresh(ctx, shipping.RefreshMetadata); err != nil {
		return nil, refreshError("metadata", "Failed to load document metadata", err)
	}
	s.controller.RecordNotice(store.SeveritySuccess, "Document metadata refreshed")
	return s.List(), nil
}

func (s *metadataService) Invoice(ctx context.Context, invoiceID string) (*store.InvoiceRecord, error) {
	if _, ok := s.controller.Token(); !ok {
		return nil, shipping.ErrSessionRequired
	}
	invoiceID = strings.TrimSpace(invoiceID)
	if rec, ok := s.cache.Invoice(invoiceID); ok {
		return rec, nil
	}

	rec, err := s.source.InvoiceDetail(ctx, invoiceID)
	if err != nil {
		return nil, s.fail("invoice_detail", shipping.NoticeInvoiceDetailFail, invoiceID, err)
	}
	s.cache.SetInvoice(rec)
	return rec, nil
}

func (s *metadataService) Document(ctx context.Context, documentID string) (*store.DocumentRecord, error) {
	if _, ok := s.controller.Token(); !ok {
		return nil, shipping.ErrSessionRequired
	}
	documentID = strings.TrimSpace(documentID)
	if rec, ok := s.cache.Document(documentID); ok {
		return rec, nil
	}

	rec, err := s.source.DocumentDetail(ctx, documentID)
	if err != nil {
		return nil, s.fail("document_detail", shipping.NoticeDocumentDetailFail, documentID, err)
	}
	s.cache.SetDocument(rec)
	return rec, nil
}

func (s *metadataService) fail(op, fallback, id string, err error) error {
	notice := shipping.NoticeFor(err, fallback)
	s.logger.Warn("MetadataService", "Detail lookup failed", map[string]interface{}{"op": op, "id": id, "error": err.Error()})
	s.controller.RecordNotice(store.SeverityError, notice)
	return &shipping.OperationError{Op: op, Notice: notice, Err: err}
}

// HandleEvent drops cached records whenever the session identity changes.
func (s *metadataService) HandleEvent(evt events.Event) {
	switch evt.EventType() {
	case events.TypeSessionAuthenticated, events.TypeSessionRestored, events.TypeSessionLoggedOut:
		s.cache.Flush()
	}
}
