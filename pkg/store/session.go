package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is the identity returned by the auth endpoints.
type User struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	LastAccessed string `json:"lastAccessed,omitempty"`
}

// Session represents the authenticated identity held by the controller.
// Token is non-empty iff Authenticated is true.
type Session struct {
	User          User   `json:"user"`
	Token         string `json:"-"`
	Authenticated bool   `json:"authenticated"`
}

// Thread is the backend-assigned shipping conversation.
type Thread struct {
	ID           string         `json:"threadId"`
	CurrentPhase string         `json:"currentPhase"`
	ShipmentData datatypes.JSON `json:"shipmentData,omitempty"`

	// Attachments counts documents uploaded during this thread.
	Attachments int `json:"attachments"`
	// PromptDeclined is set once the user skipped the upload prompt.
	PromptDeclined bool `json:"promptDeclined"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of the append-only dialogue log.
type Message struct {
	ID           uuid.UUID     `json:"id"`
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Timestamp    time.Time     `json:"timestamp"`
	Attachments  []DocumentRef `json:"attachments,omitempty"`
	UploadPrompt bool          `json:"uploadPrompt,omitempty"`
}

type DocumentRef struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
}

// StagedUpload is the single-slot file staging area.
type StagedUpload struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	Uploading bool      `json:"uploading"`
}

// Notice is the transient user-facing message of the last operation.
type Notice struct {
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

const (
	SeveritySuccess = "success"
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Dialogue states
const (
	StateNoThread      = "NO_THREAD"
	StateIdle          = "IDLE"
	StateAwaitingReply = "AWAITING_REPLY"
	StateUploadPending = "UPLOAD_PENDING"
)

// Lanes are independently single-flight areas of network activity.
const (
	LaneAuth         = "auth"
	LaneMessaging    = "messaging"
	LaneUpload       = "upload"
	LaneBooking      = "booking"
	LaneTracking     = "tracking"
	LaneDocumentChat = "document_chat"
)
