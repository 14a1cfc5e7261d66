package dto

import (
	"freightchat/pkg/store"
)

type AuthenticateRequest struct {
	Mode   string `json:"mode" validate:"omitempty,oneof=login register"`
	UserID string `json:"userId" validate:"required,max=128"`
	Name   string `json:"name" validate:"max=128"`
	Email  string `json:"email" validate:"omitempty,email"`
}

type SessionResponse struct {
	User          store.User `json:"user"`
	Authenticated bool       `json:"authenticated"`
}

// TextRequest carries dialogue text. Blank text is accepted and ignored.
type TextRequest struct {
	Text string `json:"text" validate:"max=8000"`
}

type BookRequest struct {
	CarrierID    string `json:"carrierId" validate:"required"`
	ServiceLevel string `json:"serviceLevel" validate:"required"`
}

type AskDocumentsRequest struct {
	Message string `query:"message" validate:"required,max=4000"`
}

type StagedFileResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type DocumentAnswerResponse struct {
	Answer string `json:"answer"`
}

type MetadataResponse struct {
	Invoices  []store.InvoiceMetadata  `json:"invoices"`
	Documents []store.DocumentMetadata `json:"documents"`
}
