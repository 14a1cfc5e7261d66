package service

import (
	"context"

	"freightchat/pkg/shipping"
	"freightchat/pkg/store"
)

type ITrackingService interface {
	Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error)
	Shipments(ctx context.Context) ([]store.Shipment, error)
	AskDocuments(ctx context.Context, question string) (string, error)
}

type trackingService struct {
	controller *shipping.Controller
}

func NewTrackingService(controller *shipping.Controller) ITrackingService {
	return &trackingService{controller: controller}
}

func (s *trackingService) Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error) {
	return s.controller.Track(ctx, trackingNumber)
}

// Shipments refetches the recent shipments and returns them.
func (s *trackingService) Shipments(ctx context.Context) ([]store.Shipment, error) {
	if err := s.controller.Refresh(ctx, shipping.RefreshShipments); err != nil {
		return nil, refreshError("shipments", "Failed to load shipments", err)
	}
	return s.controller.Snapshot().Shipments, nil
}

func (s *trackingService) AskDocuments(ctx context.Context, question string) (string, error) {
	return s.controller.AskDocuments(ctx, question)
}
