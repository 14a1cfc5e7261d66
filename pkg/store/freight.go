package store

import "gorm.io/datatypes"

type Quote struct {
	CarrierID         string  `json:"carrierId"`
	Name              string  `json:"name"`
	Service           string  `json:"service"`
	Rate              string  `json:"rate"`
	TransitTime       string  `json:"transitTime"`
	Reputation        float64 `json:"reputation"`
	Reliability       string  `json:"reliability"`
	EstimatedDelivery string  `json:"estimatedDelivery"`
	Currency          string  `json:"currency"`
}

type QuoteSet struct {
	Quotes           []Quote `json:"quotes"`
	RecommendedQuote *Quote  `json:"recommendedQuote,omitempty"`
	TotalEstimate    string  `json:"totalEstimate"`
	Currency         string  `json:"currency"`
}

type Invoice struct {
	InvoiceID     string         `json:"invoiceId"`
	Filename      string         `json:"filename"`
	UploadedAt    string         `json:"uploadedAt"`
	Processed     bool           `json:"processed"`
	ExtractedData datatypes.JSON `json:"extractedData,omitempty"`
	DocumentType  string         `json:"documentType,omitempty"`
}

type Document struct {
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename"`
	UploadedAt     string `json:"uploaded_at"`
	Strategy       string `json:"strategy"`
	CollectionName string `json:"collection_name"`
}

type Shipment struct {
	TrackingNumber    string `json:"tracking_number"`
	BookingID         string `json:"booking_id"`
	Status            string `json:"status"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	CarrierID         string `json:"carrier_id"`
	EstimatedDelivery string `json:"estimated_delivery"`
	CreatedAt         string `json:"created_at"`
}

type TrackingInfo struct {
	TrackingNumber    string `json:"trackingNumber"`
	Status            string `json:"status"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	CurrentLocation   string `json:"currentLocation,omitempty"`
}

// Booking is the confirmation returned by the book endpoint.
type Booking struct {
	BookingID         string `json:"bookingId"`
	TrackingNumber    string `json:"trackingNumber"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// Worker metadata listings

type InvoiceMetadata struct {
	InvoiceID       string   `json:"invoiceId"`
	Filename        string   `json:"filename"`
	DocumentType    string   `json:"documentType"`
	InvoiceNumber   string   `json:"invoiceNumber,omitempty"`
	TotalAmount     *float64 `json:"totalAmount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	ProcessedAt     string   `json:"processedAt"`
	ReadyForBooking *bool    `json:"readyForBooking,omitempty"`
}

type DocumentMetadata struct {
	DocumentID   string `json:"documentId"`
	Filename     string `json:"filename"`
	DocumentType string `json:"documentType"`
	ProcessedAt  string `json:"processedAt"`
}

// Worker metadata detail records

type InvoiceRecord struct {
	InvoiceID   string         `json:"invoiceId"`
	UserID      string         `json:"userId"`
	SessionID   string         `json:"sessionId,omitempty"`
	BookingID   string         `json:"bookingId,omitempty"`
	Filename    string         `json:"filename"`
	FileSize    int64          `json:"fileSize"`
	TotalPages  int            `json:"totalPages"`
	Analysis    datatypes.JSON `json:"analysis,omitempty"`
	ProcessedAt string         `json:"processedAt"`
	Version     string         `json:"version"`
}

type DocumentRecord struct {
	DocumentID     string         `json:"documentId"`
	UserID         string         `json:"userId"`
	Filename       string         `json:"filename"`
	CollectionName string         `json:"collectionName"`
	Strategy       string         `json:"strategy"`
	FileSize       int64          `json:"fileSize"`
	TotalPages     int            `json:"totalPages"`
	TotalChunks    int            `json:"totalChunks"`
	AIAnalysis     datatypes.JSON `json:"aiAnalysis,omitempty"`
	ProcessedAt    string         `json:"processedAt"`
	Version        string         `json:"version"`
}
