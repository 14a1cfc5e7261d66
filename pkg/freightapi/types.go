package freightapi

import (
	"freightchat/pkg/store"

	"gorm.io/datatypes"
)

// Status is the success envelope shared by the agent endpoints.
type Status struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type AuthRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  store.User `json:"user"`
}

type ProfileResponse struct {
	User      store.User       `json:"user"`
	Documents []store.Document `json:"documents"`
}

// AgentResponse is returned by start and message calls.
type AgentResponse struct {
	Status
	ThreadID     string          `json:"threadId,omitempty"`
	Message      string          `json:"message"`
	CurrentPhase string          `json:"currentPhase"`
	ShipmentData datatypes.JSON  `json:"shipmentData,omitempty"`
	Quote        *store.QuoteSet `json:"quote,omitempty"`
	Completed    bool            `json:"completed,omitempty"`
	NextAction   string          `json:"nextAction,omitempty"`
	Invoices     []store.Invoice `json:"invoices,omitempty"`
}

type MessageRequest struct {
	ThreadID    string `json:"threadId"`
	Message     string `json:"message"`
	HasDocument bool   `json:"hasDocument"`
}

type UploadResponse struct {
	Filename   string `json:"filename"`
	DocumentID string `json:"documentId"`
	Message    string `json:"message,omitempty"`
}

type InvoiceUploadResponse struct {
	Status
	Invoice *store.Invoice `json:"invoice,omitempty"`
	Message string         `json:"message,omitempty"`
}

type InvoicesResponse struct {
	Status
	Invoices []store.Invoice `json:"invoices"`
}

type BookRequest struct {
	ThreadID     string `json:"threadId"`
	CarrierID    string `json:"carrierId"`
	ServiceLevel string `json:"serviceLevel"`
}

type BookResponse struct {
	Status
	store.Booking
}

type ShipmentsResponse struct {
	RecentShipments []store.Shipment `json:"recentShipments"`
}

type DocumentChatResponse struct {
	Message string `json:"message"`
}

type InvoiceMetadataResponse struct {
	Invoices []store.InvoiceMetadata `json:"invoices"`
}

type DocumentMetadataResponse struct {
	Documents []store.DocumentMetadata `json:"documents"`
}
