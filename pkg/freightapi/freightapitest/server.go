// Package freightapitest provides an in-process stand-in for the primary API
// and the worker data service.
package freightapitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"
)

// Greeting is the message every new thread starts with.
const Greeting = "Hi! Where are you shipping from?"

// TrackingNumber is returned by every booking.
const TrackingNumber = "FC100200300"

// Server answers the backend routes with canned data.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []string
	phases    []string
	rejects   map[string]string
	messages  []freightapi.MessageRequest
	documents []store.Document
	invoices  []store.Invoice
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{rejects: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.authenticate)
	mux.HandleFunc("POST /auth/register", s.authenticate)
	mux.HandleFunc("GET /auth/profile", s.profile)
	mux.HandleFunc("POST /agent/shipping/start", s.start)
	mux.HandleFunc("POST /agent/shipping/message", s.message)
	mux.HandleFunc("POST /agent/shipping/upload-invoice", s.uploadInvoice)
	mux.HandleFunc("GET /agent/shipping/invoices/{thread}", s.sessionInvoices)
	mux.HandleFunc("POST /agent/shipping/book", s.book)
	mux.HandleFunc("POST /upload/pdf", s.uploadPDF)
	mux.HandleFunc("GET /track/{number}", s.track)
	mux.HandleFunc("GET /shipments", s.shipments)
	mux.HandleFunc("GET /chat/documents", s.documentChat)
	mux.HandleFunc("GET /api/user/{user}/invoices", s.invoiceMetadata)
	mux.HandleFunc("GET /api/user/{user}/documents", s.documentMetadata)
	mux.HandleFunc("GET /api/invoice/{id}", s.invoiceDetail)
	mux.HandleFunc("GET /api/document/{id}", s.documentDetail)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Client returns a freightapi client pointed at both halves of the server.
func (s *Server) Client() *freightapi.Client {
	return freightapi.NewClient(s.URL, s.URL, 5*time.Second)
}

// Reject makes every request to path fail with status 400 and message.
func (s *Server) Reject(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[path] = message
}

// QueuePhases sets the phases of the next agent replies, in order. Once the
// queue is empty replies stay in route_collection.
func (s *Server) QueuePhases(phases ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, phases...)
}

// Count returns how many requests hit "METHOD /path".
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r == route {
			n++
		}
	}
	return n
}

// Messages returns every message request received so far.
func (s *Server) Messages() []freightapi.MessageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]freightapi.MessageRequest(nil), s.messages...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		msg, rejected := s.rejects[r.URL.Path]
		s.mu.Unlock()
		if rejected {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var req freightapi.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId is required"})
		return
	}
	name := req.Name
	if name == "" {
		name = strings.ToUpper(req.UserID[:1]) + req.UserID[1:]
	}
	writeJSON(w, http.StatusOK, freightapi.AuthResponse{
		Token: "tok-" + req.UserID,
		User:  store.User{UserID: req.UserID, Name: name, Email: req.Email},
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-")
	s.mu.Lock()
	docs := append([]store.Document{}, s.documents...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, freightapi.ProfileResponse{
		User:      store.User{UserID: userID, Name: userID},
		Documents: docs,
	})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, freightapi.AgentResponse{
		Status:       freightapi.Status{Success: true},
		ThreadID:     "thread-1",
		Message:      Greeting,
		CurrentPhase: "greeting",
	})
}

func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	var req freightapi.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	s.messages = append(s.messages, req)
	phase := "route_collection"
	if len(s.phases) > 0 {
		phase, s.phases = s.phases[0], s.phases[1:]
	}
	s.mu.Unlock()

	res := freightapi.AgentResponse{
		Status:       freightapi.Status{Success: true},
		Message:      "Noted: " + req.Message,
		CurrentPhase: phase,
		ShipmentData: []byte(`{"origin":"NYC","destination":"LA"}`),
	}
	if phase == "quote_generated" {
		res.Quote = &store.QuoteSet{
			Quotes:        []store.Quote{{CarrierID: "C1", Name: "Carrier One", Service: "standard", Rate: "420.00", Currency: "USD"}},
			TotalEstimate: "420.00",
			Currency:      "USD",
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func readUpload(r *http.Request, field string) (string, int, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	return header.Filename, len(data), err
}

func (s *Server) uploadPDF(w http.ResponseWriter, r *http.Request) {
	filename, _, err := readUpload(r, "pdf")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pdf is required"})
		return
	}
	s.mu.Lock()
	id := fmt.Sprintf("doc-%d", len(s.documents)+1)
	s.documents = append(s.documents, store.Document{DocumentID: id, Filename: filename, Strategy: "semantic"})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, freightapi.UploadResponse{Filename: filename, DocumentID: id})
}

func (s *Server) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	filename, _, err := readUpload(r, "invoice")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invoice is required"})
		return
	}
	s.mu.Lock()
	inv := store.Invoice{InvoiceID: fmt.Sprintf("inv-%d", len(s.invoices)+1), Filename: filename, Processed: true}
	s.invoices = append(s.invoices, inv)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, freightapi.InvoiceUploadResponse{Status: freightapi.Status{Success: true}, Invoice: &inv})
}

func (s *Server) sessionInvoices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	invoices := append([]store.Invoice{}, s.invoices...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, freightapi.InvoicesResponse{Status: freightapi.Status{Success: true}, Invoices: invoices})
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, freightapi.BookResponse{
		Status: freightapi.Status{Success: true},
		Booking: store.Booking{
			BookingID:         "BK-1",
			TrackingNumber:    TrackingNumber,
			EstimatedDelivery: "2026-11-02",
		},
	})
}

func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	if number != TrackingNumber {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Tracking number not found"})
		return
	}
	writeJSON(w, http.StatusOK, store.TrackingInfo{TrackingNumber: number, Status: "in_transit", Origin: "NYC", Destination: "LA"})
}

func (s *Server) shipments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, freightapi.ShipmentsResponse{RecentShipments: []store.Shipment{
		{TrackingNumber: TrackingNumber, BookingID: "BK-1", Status: "booked", Origin: "NYC", Destination: "LA"},
	}})
}

func (s *Server) documentChat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, freightapi.DocumentChatResponse{Message: "Answer: " + r.URL.Query().Get("message")})
}

func (s *Server) invoiceMetadata(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.InvoiceMetadata, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, store.InvoiceMetadata{InvoiceID: inv.InvoiceID, Filename: inv.Filename, DocumentType: "commercial_invoice"})
	}
	writeJSON(w, http.StatusOK, freightapi.InvoiceMetadataResponse{Invoices: out})
}

func (s *Server) documentMetadata(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.DocumentMetadata, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, store.DocumentMetadata{DocumentID: doc.DocumentID, Filename: doc.Filename, DocumentType: "pdf"})
	}
	writeJSON(w, http.StatusOK, freightapi.DocumentMetadataResponse{Documents: out})
}

func (s *Server) invoiceDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.InvoiceID == id {
			writeJSON(w, http.StatusOK, store.InvoiceRecord{
				InvoiceID: id,
				Filename:  inv.Filename,
				Analysis:  []byte(`{"totalAmount":1200,"currency":"USD"}`),
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invoice not found"})
}

func (s *Server) documentDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.documents {
		if doc.DocumentID == id {
			writeJSON(w, http.StatusOK, store.DocumentRecord{DocumentID: id, Filename: doc.Filename, Strategy: doc.Strategy})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
}
