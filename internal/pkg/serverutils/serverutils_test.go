package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"freightchat/pkg/freightapi"
	"freightchat/pkg/shipping"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{"session required", fmt.Errorf("start: %w", shipping.ErrSessionRequired), 401, "Please sign in first"},
		{"lane busy", shipping.ErrLaneBusy, 409, "Another request is still in progress"},
		{"no thread", shipping.ErrThreadRequired, 409, "Start a shipping conversation first"},
		{"validation", &ValidationError{Fields: map[string]string{"CarrierID": "required"}}, 400, "validation failed: CarrierID failed on required"},
		{
			"backend rejected",
			&shipping.OperationError{Op: "book_shipment", Notice: "Quote expired", Err: &freightapi.APIError{StatusCode: 200, Message: "Quote expired"}},
			502, "Quote expired",
		},
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "Cannot GET /nope"), 404, "Cannot GET /nope"},
		{"unknown", errors.New("boom"), 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := StatusFor(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type bookRequest struct {
		CarrierID    string `validate:"required"`
		ServiceLevel string `validate:"required,oneof=standard express"`
	}

	assert.NoError(t, ValidateRequest(bookRequest{CarrierID: "C1", ServiceLevel: "express"}))

	err := ValidateRequest(bookRequest{ServiceLevel: "overnight"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"CarrierID": "required", "ServiceLevel": "oneof"}, verr.Fields)
}

func newProtectedApp(secret string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandlerMiddleware})
	app.Use(LocalAccessMiddleware(secret))
	app.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("pong", ctx.Locals("renderer")))
	})
	return app
}

func sign(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "browser",
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestLocalAccessMiddleware(t *testing.T) {
	const secret = "local-secret"
	tests := []struct {
		name     string
		secret   string
		header   string
		query    string
		wantCode int
	}{
		{name: "disabled", secret: "", wantCode: 200},
		{name: "missing token", secret: secret, wantCode: 401},
		{name: "valid bearer", secret: secret, header: "Bearer " + sign(t, secret, time.Now().Add(time.Hour)), wantCode: 200},
		{name: "valid query token", secret: secret, query: sign(t, secret, time.Now().Add(time.Hour)), wantCode: 200},
		{name: "wrong secret", secret: secret, header: "Bearer " + sign(t, "other", time.Now().Add(time.Hour)), wantCode: 401},
		{name: "expired", secret: secret, header: "Bearer " + sign(t, secret, time.Now().Add(-time.Hour)), wantCode: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newProtectedApp(tt.secret)
			target := "/ping"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var envelope BaseResponse[any]
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.Equal(t, tt.wantCode == 200, envelope.Success)
		})
	}
}
