package freightapi

import (
	"context"
	"net/http"
	"net/url"

	"freightchat/pkg/store"
)

// Worker data service calls. None of them carry a bearer token.

func (c *Client) InvoiceMetadata(ctx context.Context, userID string) ([]store.InvoiceMetadata, error) {
	u := c.WorkerBase + "/api/user/" + url.PathEscape(userID) + "/invoices"
	r, err := c.jsonRequest("freightapi.InvoiceMetadata", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	var res InvoiceMetadataResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return res.Invoices, nil
}

func (c *Client) DocumentMetadata(ctx context.Context, userID string) ([]store.DocumentMetadata, error) {
	u := c.WorkerBase + "/api/user/" + url.PathEscape(userID) + "/documents"
	r, err := c.jsonRequest("freightapi.DocumentMetadata", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	var res DocumentMetadataResponse
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return res.Documents, nil
}

func (c *Client) InvoiceDetail(ctx context.Context, invoiceID string) (*store.InvoiceRecord, error) {
	u := c.WorkerBase + "/api/invoice/" + url.PathEscape(invoiceID)
	r, err := c.jsonRequest("freightapi.InvoiceDetail", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	var res store.InvoiceRecord
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DocumentDetail(ctx context.Context, documentID string) (*store.DocumentRecord, error) {
	u := c.WorkerBase + "/api/document/" + url.PathEscape(documentID)
	r, err := c.jsonRequest("freightapi.DocumentDetail", http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	var res store.DocumentRecord
	if err := c.do(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
