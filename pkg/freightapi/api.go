package freightapi

import (
	"context"
	"net/http"
	"net/url"

	"freightchat/pkg/store"
)

// AuthMode selects the auth endpoint.
type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

func (c *Client) Authenticate(ctx context.Context, mode AuthMode, req AuthRequest) (*AuthResponse, error) {
	path := "/auth/login"
	if mode == ModeRegister {
		path = "/auth/register"
	}
	r, err := c.jsonRequest("freightapi.Authenticate", http.MethodPost, c.APIBase+path, "", req)
	if err != nil {
		return nil, err
	}
	var res AuthResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*ProfileResponse, error) {
	r, err := c.jsonRequest("freightapi.Profile", http.MethodGet, c.APIBase+"/auth/profile", token, nil)
	if err != nil {
		return nil, err
	}
	var res ProfileResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) StartAgent(ctx context.Context, token string) (*AgentResponse, error) {
	r, err := c.jsonRequest("freightapi.StartAgent", http.MethodPost, c.APIBase+"/agent/shipping/start", token, nil)
	if err != nil {
		return nil, err
	}
	var res AgentResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	if err := checkSuccess(res.Status); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SendMessage(ctx context.Context, token string, req MessageRequest) (*AgentResponse, error) {
	r, err := c.jsonRequest("freightapi.SendMessage", http.MethodPost, c.APIBase+"/agent/shipping/message", token, req)
	if err != nil {
		return nil, err
	}
	var res AgentResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	if err := checkSuccess(res.Status); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadDocument posts a PDF in the "pdf" form field. The thread id is sent
// along when the upload happens inside a dialogue.
func (c *Client) UploadDocument(ctx context.Context, token, threadID string, file File) (*UploadResponse, error) {
	fields := map[string]string{}
	if threadID != "" {
		fields["threadId"] = threadID
	}
	r, err := c.multipartRequest("freightapi.UploadDocument", c.APIBase+"/upload/pdf", token, "pdf", file, fields)
	if err != nil {
		return nil, err
	}
	var res UploadResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UploadInvoice(ctx context.Context, token, threadID string, file File) (*InvoiceUploadResponse, error) {
	fields := map[string]string{"threadId": threadID}
	r, err := c.multipartRequest("freightapi.UploadInvoice", c.APIBase+"/agent/shipping/upload-invoice", token, "invoice", file, fields)
	if err != nil {
		return nil, err
	}
	var res InvoiceUploadResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	if err := checkSuccess(res.Status); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SessionInvoices(ctx context.Context, token, threadID string) ([]store.Invoice, error) {
	u := c.APIBase + "/agent/shipping/invoices/" + url.PathEscape(threadID)
	r, err := c.jsonRequest("freightapi.SessionInvoices", http.MethodGet, u, token, nil)
	if err != nil {
		return nil, err
	}
	var res InvoicesResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	if err := checkSuccess(res.Status); err != nil {
		return nil, err
	}
	return res.Invoices, nil
}

func (c *Client) Book(ctx context.Context, token string, req BookRequest) (*store.Booking, error) {
	r, err := c.jsonRequest("freightapi.Book", http.MethodPost, c.APIBase+"/agent/shipping/book", token, req)
	if err != nil {
		return nil, err
	}
	var res BookResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	if err := checkSuccess(res.Status); err != nil {
		return nil, err
	}
	return &res.Booking, nil
}

// Track is unauthenticated.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*store.TrackingInfo, error) {
	u := c.APIBase + "/track/" + url.PathEscape(trackingNumber)
	r, err := c.jsonRequest("freightapi.Track", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	var res store.TrackingInfo
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Shipments(ctx context.Context, token string) ([]store.Shipment, error) {
	r, err := c.jsonRequest("freightapi.Shipments", http.MethodGet, c.APIBase+"/shipments", token, nil)
	if err != nil {
		return nil, err
	}
	var res ShipmentsResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return res.RecentShipments, nil
}

func (c *Client) DocumentChat(ctx context.Context, token, message string) (string, error) {
	u := c.APIBase + "/chat/documents?message=" + url.QueryEscape(message)
	r, err := c.jsonRequest("freightapi.DocumentChat", http.MethodGet, u, token, nil)
	if err != nil {
		return "", err
	}
	var res DocumentChatResponse
	if err := c.do(ctx, r, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
