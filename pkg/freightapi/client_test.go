package freightapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL, 5*time.Second)
}

func TestAuthenticate(t *testing.T) {
	var gotPath string
	var gotBody AuthRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "tok-1",
			"user":  map[string]string{"userId": "alice", "name": "Alice"},
		})
	})

	res, err := c.Authenticate(context.Background(), ModeRegister, AuthRequest{UserID: "alice", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "/auth/register", gotPath)
	assert.Equal(t, "alice", gotBody.UserID)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "Alice", res.User.Name)
}

func TestAuthenticateRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"User not found"}`))
	})

	_, err := c.Authenticate(context.Background(), ModeLogin, AuthRequest{UserID: "bob"})
	require.Error(t, err)

	msg, ok := BackendMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "User not found", msg)
}

func TestSendMessageSuccessFalse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":false,"error":"Thread not found"}`))
	})

	_, err := c.SendMessage(context.Background(), "tok", MessageRequest{ThreadID: "t1", Message: "hi"})
	msg, ok := BackendMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Thread not found", msg)
}

func TestSendMessageKeepsShipmentDataVerbatim(t *testing.T) {
	raw := `{"origin":"NYC","custom":{"nested":[1,2]},"x-unknown":true}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.HasDocument)
		w.Write([]byte(`{"success":true,"message":"ok","currentPhase":"cargo_collection","shipmentData":` + raw + `}`))
	})

	res, err := c.SendMessage(context.Background(), "tok", MessageRequest{ThreadID: "t1", Message: "hi", HasDocument: true})
	require.NoError(t, err)
	assert.Equal(t, "cargo_collection", res.CurrentPhase)
	assert.JSONEq(t, raw, string(res.ShipmentData))
}

func TestUploadDocumentMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("pdf")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "invoice.pdf", hdr.Filename)
		assert.Equal(t, "%PDF", string(data))
		assert.Equal(t, "t1", r.FormValue("threadId"))
		w.Write([]byte(`{"filename":"invoice.pdf","documentId":"doc-9"}`))
	})

	res, err := c.UploadDocument(context.Background(), "tok", "t1", File{Filename: "invoice.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "doc-9", res.DocumentID)
}

func TestBook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, BookRequest{ThreadID: "t1", CarrierID: "C1", ServiceLevel: "standard"}, req)
		w.Write([]byte(`{"success":true,"bookingId":"B-1","trackingNumber":"TRK123","estimatedDelivery":"2026-11-02T00:00:00Z"}`))
	})

	b, err := c.Book(context.Background(), "tok", BookRequest{ThreadID: "t1", CarrierID: "C1", ServiceLevel: "standard"})
	require.NoError(t, err)
	assert.Equal(t, "TRK123", b.TrackingNumber)
	assert.Equal(t, "B-1", b.BookingID)
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", time.Second)

	_, err := c.Track(context.Background(), "TRK")
	require.Error(t, err)
	_, ok := BackendMessage(err)
	assert.False(t, ok)
}

func TestWorkerListings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/alice/invoices":
			w.Write([]byte(`{"invoices":[{"invoiceId":"i1","filename":"a.pdf","documentType":"invoice","processedAt":"x"}]}`))
		case "/api/user/alice/documents":
			w.Write([]byte(`{"documents":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	inv, err := c.InvoiceMetadata(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, "i1", inv[0].InvoiceID)

	docs, err := c.DocumentMetadata(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = c.InvoiceDetail(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
