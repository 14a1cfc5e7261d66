package shipping

import (
	"context"
	"fmt"
	"time"

	"freightchat/pkg/events"
	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"

	"github.com/google/uuid"
)

// SkipMessage acknowledges a skipped upload prompt.
const SkipMessage = "No problem, we can continue without a document. You can upload one later if it becomes useful."

// metadataDelay gives the worker time to index a fresh upload before the
// metadata listings are fetched again.
const metadataDelay = 2 * time.Second

// StageFile puts file in the single staging slot, replacing any previous one.
func (c *Controller) StageFile(filename string, data []byte) error {
	c.mu.Lock()
	if c.st.staged != nil && c.st.staged.Uploading {
		c.mu.Unlock()
		return ErrLaneBusy
	}
	c.st.staged = &store.StagedUpload{
		ID:       uuid.New(),
		Filename: filename,
		Size:     int64(len(data)),
		Data:     data,
	}
	evt := c.event(events.TypeFileStaged, map[string]interface{}{"filename": filename, "size": len(data)})
	c.mu.Unlock()

	c.emit(evt)
	return nil
}

// Unstage discards the staged file and leaves any upload prompt open.
func (c *Controller) Unstage() error {
	c.mu.Lock()
	if c.st.staged == nil {
		c.mu.Unlock()
		return nil
	}
	if c.st.staged.Uploading {
		c.mu.Unlock()
		return ErrLaneBusy
	}
	c.st.staged = nil
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "staged"})
	c.mu.Unlock()

	c.emit(evt)
	return nil
}

// UploadStaged uploads the staged file for analysis. On success the dialogue
// is continued immediately; on failure the file stays staged for a retry.
func (c *Controller) UploadStaged(ctx context.Context) error {
	c.mu.Lock()
	staged := c.st.staged
	if staged == nil {
		c.mu.Unlock()
		return nil
	}
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return ErrSessionRequired
	}
	if err := c.acquireLocked(store.LaneUpload); err != nil {
		c.mu.Unlock()
		return err
	}
	// the continuation message needs the messaging lane, so it is held for
	// the whole upload
	var threadID string
	if c.st.thread != nil {
		threadID = c.st.thread.ID
		if err := c.acquireLocked(store.LaneMessaging); err != nil {
			delete(c.st.busy, store.LaneUpload)
			c.mu.Unlock()
			return err
		}
	}
	staged.Uploading = true
	token, epoch := c.st.session.Token, c.st.epoch
	file := freightapi.File{Filename: staged.Filename, Data: staged.Data}
	evt := c.event(events.TypeStateChanged, map[string]interface{}{"field": "staged"})
	c.mu.Unlock()
	c.emit(evt)

	res, err := c.backend.UploadDocument(ctx, token, threadID, file)

	c.mu.Lock()
	if !c.releaseLocked(store.LaneUpload, epoch) {
		c.mu.Unlock()
		return nil
	}
	staged.Uploading = false
	if err != nil {
		if threadID != "" {
			c.releaseLocked(store.LaneMessaging, epoch)
		}
		opErr, evt := c.failLocked("upload_staged", NoticeUploadFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Document upload failed", map[string]interface{}{"filename": file.Filename, "error": err.Error()})
		c.emit(evt)
		return opErr
	}

	filename := res.Filename
	if filename == "" {
		filename = file.Filename
	}
	if c.st.staged == staged {
		c.st.staged = nil
	}
	c.st.documents = append(c.st.documents, store.Document{
		DocumentID: res.DocumentID,
		Filename:   filename,
		UploadedAt: c.now().UTC().Format(time.RFC3339),
	})
	msg := c.appendLocked(store.RoleAssistant, fmt.Sprintf(
		"I've received and analyzed %s. I'll use the details from this document for your shipment.", filename))
	msg.Attachments = []store.DocumentRef{{DocumentID: res.DocumentID, Filename: filename}}
	msgID := msg.ID.String()

	continueDialogue := c.st.thread != nil && c.st.thread.ID == threadID && threadID != ""
	if continueDialogue {
		c.st.thread.Attachments++
		if c.st.dialogue == store.StateUploadPending {
			c.st.dialogue = store.StateIdle
		}
	} else if threadID != "" {
		c.releaseLocked(store.LaneMessaging, epoch)
	}
	evts := []events.Event{
		c.event(events.TypeMessageAppended, map[string]interface{}{"role": store.RoleAssistant, "message_id": msgID}),
		c.event(events.TypeDocumentUploaded, map[string]interface{}{"document_id": res.DocumentID, "filename": filename}),
	}
	c.mu.Unlock()

	c.logger.Info(module, "Document uploaded", map[string]interface{}{"document_id": res.DocumentID, "thread_id": threadID})
	c.emit(evts...)
	c.scheduler.Schedule(metadataDelay, RefreshMetadata)

	if continueDialogue {
		c.mu.Lock()
		if c.st.epoch != epoch || c.st.thread == nil || c.st.thread.ID != threadID {
			c.releaseLocked(store.LaneMessaging, epoch)
			c.mu.Unlock()
			return nil
		}
		if err := c.exchangeHeld(ctx, ContinuationMessage, false); err != nil {
			c.logger.Warn(module, "Dialogue continuation after upload failed", map[string]interface{}{"thread_id": threadID, "error": err.Error()})
		}
	}
	return nil
}

// Skip declines the upload prompt locally and lets the conversation go on
// without a document.
func (c *Controller) Skip() {
	c.mu.Lock()
	if c.st.staged != nil && !c.st.staged.Uploading {
		c.st.staged = nil
	}
	if c.st.thread != nil {
		c.st.thread.PromptDeclined = true
		if c.st.dialogue == store.StateUploadPending {
			c.st.dialogue = store.StateIdle
		}
	}
	msg := c.appendLocked(store.RoleAssistant, SkipMessage)
	evts := []events.Event{
		c.event(events.TypeMessageAppended, map[string]interface{}{"role": msg.Role, "message_id": msg.ID.String()}),
		c.event(events.TypeUploadSkipped, nil),
	}
	c.mu.Unlock()

	c.emit(evts...)
}

// UploadInvoice attaches an invoice to the current thread.
func (c *Controller) UploadInvoice(ctx context.Context, filename string, data []byte) error {
	c.mu.Lock()
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return ErrSessionRequired
	}
	if c.st.thread == nil || len(data) == 0 {
		c.mu.Unlock()
		return nil
	}
	if err := c.acquireLocked(store.LaneUpload); err != nil {
		c.mu.Unlock()
		return err
	}
	token, epoch, threadID := c.st.session.Token, c.st.epoch, c.st.thread.ID
	c.mu.Unlock()

	_, err := c.backend.UploadInvoice(ctx, token, threadID, freightapi.File{Filename: filename, Data: data})

	c.mu.Lock()
	if !c.releaseLocked(store.LaneUpload, epoch) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		opErr, evt := c.failLocked("upload_invoice", NoticeInvoiceFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Invoice upload failed", map[string]interface{}{"filename": filename, "error": err.Error()})
		c.emit(evt)
		return opErr
	}

	msg := c.appendLocked(store.RoleSystem, "Invoice uploaded: "+filename)
	evts := []events.Event{
		c.event(events.TypeMessageAppended, map[string]interface{}{"role": msg.Role, "message_id": msg.ID.String()}),
		c.event(events.TypeInvoiceUploaded, map[string]interface{}{"filename": filename}),
		c.noticeLocked(store.SeveritySuccess, "Invoice uploaded successfully"),
	}
	c.mu.Unlock()

	c.emit(evts...)
	c.scheduler.Schedule(0, RefreshInvoices)
	c.scheduler.Schedule(metadataDelay, RefreshMetadata)
	return nil
}

// UploadDocument uploads a document for the document library, outside any
// dialogue.
func (c *Controller) UploadDocument(ctx context.Context, filename string, data []byte) error {
	c.mu.Lock()
	if !c.st.session.Authenticated {
		c.mu.Unlock()
		return ErrSessionRequired
	}
	if len(data) == 0 {
		c.mu.Unlock()
		return nil
	}
	if err := c.acquireLocked(store.LaneUpload); err != nil {
		c.mu.Unlock()
		return err
	}
	token, epoch := c.st.session.Token, c.st.epoch
	c.mu.Unlock()

	res, err := c.backend.UploadDocument(ctx, token, "", freightapi.File{Filename: filename, Data: data})

	c.mu.Lock()
	if !c.releaseLocked(store.LaneUpload, epoch) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		opErr, evt := c.failLocked("upload_document", NoticeUploadFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Document upload failed", map[string]interface{}{"filename": filename, "error": err.Error()})
		c.emit(evt)
		return opErr
	}
	evts := []events.Event{
		c.event(events.TypeDocumentUploaded, map[string]interface{}{"document_id": res.DocumentID, "filename": filename}),
		c.noticeLocked(store.SeveritySuccess, "Document uploaded successfully"),
	}
	c.mu.Unlock()

	c.emit(evts...)
	c.scheduler.Schedule(0, RefreshDocuments)
	c.scheduler.Schedule(metadataDelay, RefreshMetadata)
	return nil
}
