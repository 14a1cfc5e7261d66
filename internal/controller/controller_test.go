package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freightchat/internal/dto"
	"freightchat/internal/pkg/logger"
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/repository/memory"
	"freightchat/internal/service"
	"freightchat/pkg/freightapi/freightapitest"
	"freightchat/pkg/shipping"
	"freightchat/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopScheduler struct{}

func (noopScheduler) Schedule(time.Duration, ...shipping.RefreshTask) {}

func setupApp(t *testing.T) (*fiber.App, *freightapitest.Server) {
	t.Helper()
	log := logger.NewNopLogger()
	backend := freightapitest.NewServer(t)
	client := backend.Client()

	agent := service.NewAgentService(client, memory.NewSessionRepository(time.Hour), noopScheduler{}, nil, nil, log)
	tracking := service.NewTrackingService(agent.Controller())
	metadata := service.NewMetadataService(agent.Controller(), client, memory.NewMetadataCache(time.Minute), log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandlerMiddleware})
	api := app.Group("/api")
	NewSessionController(agent).RegisterRoutes(api)
	NewAgentController(agent).RegisterRoutes(api)
	NewDocumentController(agent, tracking).RegisterRoutes(api)
	NewMetadataController(metadata).RegisterRoutes(api)
	return app, backend
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doUpload(t *testing.T, app *fiber.App, path, field, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) serverutils.BaseResponse[T] {
	t.Helper()
	var out serverutils.BaseResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func login(t *testing.T, app *fiber.App) {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/session/authenticate", dto.AuthenticateRequest{Mode: "login", UserID: "alice", Name: "Alice"})
	require.Equal(t, 200, resp.StatusCode)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"login", `{"mode":"login","userId":"alice","name":"Alice"}`, 200},
		{"register with email", `{"mode":"register","userId":"bob","email":"bob@example.com"}`, 200},
		{"missing user id", `{"mode":"login"}`, 400},
		{"unknown mode", `{"mode":"sso","userId":"alice"}`, 400},
		{"bad email", `{"userId":"alice","email":"not-an-email"}`, 400},
		{"malformed body", `{"userId":`, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t)
			req := httptest.NewRequest("POST", "/api/session/authenticate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			res := decode[dto.SessionResponse](t, resp)
			assert.Equal(t, tt.wantCode == 200, res.Success)
			assert.Equal(t, tt.wantCode, res.Code)
			if tt.wantCode == 200 {
				assert.True(t, res.Data.Authenticated)
			}
		})
	}
}

func TestAuthenticateRejectedByBackend(t *testing.T) {
	app, backend := setupApp(t)
	backend.Reject("/auth/login", "User not found")

	resp := doJSON(t, app, "POST", "/api/session/authenticate", dto.AuthenticateRequest{UserID: "ghost"})
	assert.Equal(t, 502, resp.StatusCode)
	res := decode[any](t, resp)
	assert.Equal(t, "User not found", res.Message)
}

func TestCommandsRequireSession(t *testing.T) {
	app, backend := setupApp(t)

	for _, path := range []string{"/api/agent/start", "/api/shipments", "/api/documents/chat?message=hi", "/api/metadata/invoices/inv-1"} {
		method := "GET"
		if path == "/api/agent/start" {
			method = "POST"
		}
		resp := doJSON(t, app, method, path, nil)
		assert.Equal(t, 401, resp.StatusCode, path)
		assert.Equal(t, "Please sign in first", decode[any](t, resp).Message)
	}
	assert.Zero(t, backend.Count("POST /agent/shipping/start"))

	// skipping is local and allowed without a session
	resp := doJSON(t, app, "POST", "/api/agent/upload/skip", nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestConversationOverHTTP(t *testing.T) {
	app, backend := setupApp(t)
	login(t, app)

	resp := doJSON(t, app, "POST", "/api/agent/start", nil)
	require.Equal(t, 200, resp.StatusCode)
	state := decode[shipping.Snapshot](t, resp).Data
	require.Len(t, state.Messages, 1)
	assert.Equal(t, freightapitest.Greeting, state.Messages[0].Content)
	assert.Equal(t, "Ready to help with your shipment", state.PhaseDescription)

	resp = doJSON(t, app, "POST", "/api/agent/input", dto.TextRequest{Text: "draft"})
	require.Equal(t, 200, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/agent/message", dto.TextRequest{Text: "   "})
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[shipping.Snapshot](t, resp).Data.Messages, 1)
	assert.Zero(t, backend.Count("POST /agent/shipping/message"))

	backend.QueuePhases("quote_generated")
	resp = doJSON(t, app, "POST", "/api/agent/message", dto.TextRequest{Text: "200kg NYC to LA"})
	require.Equal(t, 200, resp.StatusCode)
	state = decode[shipping.Snapshot](t, resp).Data
	require.Len(t, state.Messages, 3)
	require.NotNil(t, state.Quote)
	assert.JSONEq(t, `{"origin":"NYC","destination":"LA"}`, string(state.Thread.ShipmentData))

	resp = doJSON(t, app, "POST", "/api/agent/book", dto.BookRequest{CarrierID: "C1"})
	assert.Equal(t, 400, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/agent/book", dto.BookRequest{CarrierID: "C1", ServiceLevel: "standard"})
	require.Equal(t, 200, resp.StatusCode)
	state = decode[shipping.Snapshot](t, resp).Data
	assert.Contains(t, state.Messages[len(state.Messages)-1].Content, freightapitest.TrackingNumber)
	assert.Equal(t, "Shipment booked! Tracking: "+freightapitest.TrackingNumber, state.Notice.Message)

	resp = doJSON(t, app, "GET", "/api/session/state", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[shipping.Snapshot](t, resp).Data.Messages, 4)
}

func TestUploadOverHTTP(t *testing.T) {
	app, backend := setupApp(t)
	login(t, app)
	doJSON(t, app, "POST", "/api/agent/start", nil)
	backend.QueuePhases("cargo_collection", "ready_for_quote")

	resp := doJSON(t, app, "POST", "/api/agent/message", dto.TextRequest{Text: "NYC to LA"})
	state := decode[shipping.Snapshot](t, resp).Data
	assert.Equal(t, store.StateUploadPending, state.Dialogue)
	assert.True(t, state.Messages[2].UploadPrompt)

	resp = doUpload(t, app, "/api/agent/upload/stage", "file", "invoice.pdf", []byte("%PDF-1.4"))
	require.Equal(t, 200, resp.StatusCode)
	staged := decode[dto.StagedFileResponse](t, resp).Data
	assert.Equal(t, "invoice.pdf", staged.Filename)

	resp = doJSON(t, app, "POST", "/api/agent/upload", nil)
	require.Equal(t, 200, resp.StatusCode)
	state = decode[shipping.Snapshot](t, resp).Data
	assert.Nil(t, state.Staged)
	assert.Equal(t, store.StateIdle, state.Dialogue)
	require.Len(t, state.Documents, 1)
	assert.Equal(t, 1, state.Thread.Attachments)
	assert.Equal(t, 2, backend.Count("POST /agent/shipping/message"))

	resp = doUpload(t, app, "/api/agent/upload/stage", "wrong", "x.pdf", []byte("x"))
	assert.Equal(t, 400, resp.StatusCode)
}

func TestUploadFailureKeepsStagedFile(t *testing.T) {
	app, backend := setupApp(t)
	login(t, app)
	doJSON(t, app, "POST", "/api/agent/start", nil)
	backend.Reject("/upload/pdf", "Only PDF files are supported")

	doUpload(t, app, "/api/agent/upload/stage", "file", "notes.txt", []byte("hello"))
	resp := doJSON(t, app, "POST", "/api/agent/upload", nil)
	assert.Equal(t, 502, resp.StatusCode)
	assert.Equal(t, "Only PDF files are supported", decode[any](t, resp).Message)

	resp = doJSON(t, app, "GET", "/api/session/state", nil)
	state := decode[shipping.Snapshot](t, resp).Data
	require.NotNil(t, state.Staged)
	assert.Equal(t, "notes.txt", state.Staged.Filename)

	resp = doJSON(t, app, "DELETE", "/api/agent/upload/stage", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Nil(t, decode[shipping.Snapshot](t, resp).Data.Staged)
}

func TestInvoicesOverHTTP(t *testing.T) {
	app, _ := setupApp(t)
	login(t, app)

	resp := doJSON(t, app, "GET", "/api/agent/invoices", nil)
	assert.Equal(t, 409, resp.StatusCode)

	doJSON(t, app, "POST", "/api/agent/start", nil)
	resp = doUpload(t, app, "/api/agent/invoice", "invoice", "inv.pdf", []byte("%PDF"))
	require.Equal(t, 200, resp.StatusCode)
	state := decode[shipping.Snapshot](t, resp).Data
	assert.Equal(t, "Invoice uploaded: inv.pdf", state.Messages[len(state.Messages)-1].Content)

	resp = doJSON(t, app, "GET", "/api/agent/invoices", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[[]store.Invoice](t, resp).Data, 1)
}

func TestDocumentsAndTracking(t *testing.T) {
	app, backend := setupApp(t)

	resp := doJSON(t, app, "GET", "/api/track/"+freightapitest.TrackingNumber, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "in_transit", decode[store.TrackingInfo](t, resp).Data.Status)

	resp = doJSON(t, app, "GET", "/api/track/NOPE", nil)
	assert.Equal(t, 502, resp.StatusCode)
	assert.Equal(t, "Tracking number not found", decode[any](t, resp).Message)

	login(t, app)
	resp = doUpload(t, app, "/api/documents", "pdf", "manifest.pdf", []byte("%PDF"))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Document uploaded successfully", decode[[]store.Document](t, resp).Message)
	assert.Equal(t, 1, backend.Count("POST /upload/pdf"))

	resp = doJSON(t, app, "GET", "/api/documents/chat", nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/documents/chat?message=total%3F", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Answer: total?", decode[dto.DocumentAnswerResponse](t, resp).Data.Answer)

	resp = doJSON(t, app, "GET", "/api/shipments", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[[]store.Shipment](t, resp).Data, 1)
}

func TestMetadataOverHTTP(t *testing.T) {
	app, _ := setupApp(t)
	login(t, app)
	doUpload(t, app, "/api/documents", "pdf", "manifest.pdf", []byte("%PDF"))

	resp := doJSON(t, app, "POST", "/api/metadata/refresh", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[dto.MetadataResponse](t, resp).Data.Documents, 1)

	resp = doJSON(t, app, "GET", "/api/metadata", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[dto.MetadataResponse](t, resp).Data.Documents, 1)

	resp = doJSON(t, app, "GET", "/api/metadata/documents/doc-1", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "manifest.pdf", decode[store.DocumentRecord](t, resp).Data.Filename)

	resp = doJSON(t, app, "GET", "/api/metadata/invoices/missing", nil)
	assert.Equal(t, 502, resp.StatusCode)
	assert.Equal(t, "Invoice not found", decode[any](t, resp).Message)
}

func TestLogoutOverHTTP(t *testing.T) {
	app, _ := setupApp(t)
	login(t, app)
	doJSON(t, app, "POST", "/api/agent/start", nil)

	for i := 0; i < 2; i++ {
		resp := doJSON(t, app, "POST", "/api/session/logout", nil)
		require.Equal(t, 200, resp.StatusCode)
	}

	resp := doJSON(t, app, "GET", "/api/session/state", nil)
	state := decode[shipping.Snapshot](t, resp).Data
	assert.False(t, state.Session.Authenticated)
	assert.Empty(t, state.Messages)
	assert.Equal(t, store.StateNoThread, state.Dialogue)

	resp = doJSON(t, app, "DELETE", "/api/session/notice", nil)
	require.Equal(t, 200, resp.StatusCode)
	resp = doJSON(t, app, "GET", "/api/session/state", nil)
	assert.Nil(t, decode[shipping.Snapshot](t, resp).Data.Notice)
}
