package events

// Controller event types. Each is published as "events.<TYPE>".
const (
	TypeSessionAuthenticated = "SESSION_AUTHENTICATED"
	TypeSessionRestored      = "SESSION_RESTORED"
	TypeSessionLoggedOut     = "SESSION_LOGGED_OUT"
	TypeThreadStarted        = "THREAD_STARTED"
	TypeMessageAppended      = "MESSAGE_APPENDED"
	TypePhaseChanged         = "PHASE_CHANGED"
	TypeQuoteReceived        = "QUOTE_RECEIVED"
	TypeUploadPrompted       = "UPLOAD_PROMPTED"
	TypeFileStaged           = "FILE_STAGED"
	TypeDocumentUploaded     = "DOCUMENT_UPLOADED"
	TypeInvoiceUploaded      = "INVOICE_UPLOADED"
	TypeUploadSkipped        = "UPLOAD_SKIPPED"
	TypeShipmentBooked       = "SHIPMENT_BOOKED"
	TypeRefreshed            = "REFRESHED"
	TypeNotice               = "NOTICE"
	TypeStateChanged         = "STATE_CHANGED"
)

// Domain reports whether typ is worth publishing outside the process. Pure UI
// bookkeeping events stay local.
func Domain(typ string) bool {
	switch typ {
	case TypeStateChanged, TypeNotice, TypeRefreshed, TypeFileStaged:
		return false
	}
	return true
}
