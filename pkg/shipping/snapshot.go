package shipping

import (
	"time"

	"freightchat/pkg/store"
)

// Snapshot is a read-only copy of the controller state for rendering.
type Snapshot struct {
	Session          store.Session            `json:"session"`
	Dialogue         string                   `json:"dialogue"`
	PhaseDescription string                   `json:"phaseDescription,omitempty"`
	Thread           *store.Thread            `json:"thread,omitempty"`
	Messages         []store.Message          `json:"messages"`
	Input            string                   `json:"input"`
	Quote            *store.QuoteSet          `json:"quote,omitempty"`
	Invoices         []store.Invoice          `json:"invoices"`
	Staged           *store.StagedUpload      `json:"staged,omitempty"`
	Documents        []store.Document         `json:"documents"`
	Shipments        []store.Shipment         `json:"shipments"`
	Tracking         *store.TrackingInfo      `json:"tracking,omitempty"`
	DocumentAnswer   string                   `json:"documentAnswer,omitempty"`
	InvoiceMetadata  []store.InvoiceMetadata  `json:"invoiceMetadata"`
	DocumentMetadata []store.DocumentMetadata `json:"documentMetadata"`
	Notice           *store.Notice            `json:"notice,omitempty"`

	// Pending maps each busy lane to the time its request started.
	Pending map[string]time.Time `json:"pendingSince"`
}

// Busy reports whether lane has a request in flight.
func (s Snapshot) Busy(lane string) bool {
	_, ok := s.Pending[lane]
	return ok
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Session:          c.st.session,
		Dialogue:         c.st.dialogue,
		Messages:         copyMessages(c.st.messages),
		Input:            c.st.input,
		Quote:            c.st.quote,
		Invoices:         append([]store.Invoice{}, c.st.invoices...),
		Documents:        append([]store.Document{}, c.st.documents...),
		Shipments:        append([]store.Shipment{}, c.st.shipments...),
		DocumentAnswer:   c.st.documentAnswer,
		InvoiceMetadata:  append([]store.InvoiceMetadata{}, c.st.invoiceMetadata...),
		DocumentMetadata: append([]store.DocumentMetadata{}, c.st.documentMetadata...),
		Pending:          make(map[string]time.Time, len(c.st.busy)),
	}
	if t := c.st.thread; t != nil {
		thread := *t
		thread.ShipmentData = append(thread.ShipmentData[:0:0], t.ShipmentData...)
		snap.Thread = &thread
		snap.PhaseDescription = DescribePhase(t.CurrentPhase)
	}
	if s := c.st.staged; s != nil {
		staged := *s
		staged.Data = nil
		snap.Staged = &staged
	}
	if c.st.tracking != nil {
		tracking := *c.st.tracking
		snap.Tracking = &tracking
	}
	if c.st.notice != nil {
		notice := *c.st.notice
		snap.Notice = &notice
	}
	for lane, since := range c.st.busy {
		snap.Pending[lane] = since
	}
	return snap
}

func copyMessages(in []store.Message) []store.Message {
	out := make([]store.Message, len(in))
	for i, m := range in {
		out[i] = m
		if m.Attachments != nil {
			out[i].Attachments = append([]store.DocumentRef{}, m.Attachments...)
		}
	}
	return out
}

// Token returns the bearer token of the current session, if any.
func (c *Controller) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.session.Token, c.st.session.Authenticated
}
