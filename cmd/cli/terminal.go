package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"freightchat/internal/dto"
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/service"
	"freightchat/pkg/events"
	"freightchat/pkg/shipping"
)

// terminal executes parsed commands and keeps the screen in step with the
// controller, including updates from background refreshes.
type terminal struct {
	agent    service.IAgentService
	tracking service.ITrackingService
	metadata service.IMetadataService

	mu  sync.Mutex
	out *renderer
}

func newTerminal(agent service.IAgentService, tracking service.ITrackingService, metadata service.IMetadataService, out *renderer) *terminal {
	t := &terminal{agent: agent, tracking: tracking, metadata: metadata, out: out}
	agent.Subscribe(t.onEvent)
	return t
}

func (t *terminal) onEvent(events.Event) {
	t.refresh()
}

func (t *terminal) refresh() {
	snap := t.agent.State()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.render(snap)
}

func (t *terminal) print(fn func(r *renderer)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.out)
}

// execute runs cmd and reports whether the terminal should exit.
func (t *terminal) execute(ctx context.Context, cmd command) bool {
	if err := t.run(ctx, cmd); err != nil && !t.noticeShows(err) {
		_, message := serverutils.StatusFor(err)
		if message == "Internal server error" {
			message = err.Error()
		}
		t.print(func(r *renderer) { r.errorLine(fmt.Errorf("%s", message)) })
	}
	return cmd.kind == cmdQuit
}

// noticeShows reports whether err is already on screen as the current notice.
func (t *terminal) noticeShows(err error) bool {
	var opErr *shipping.OperationError
	if !errors.As(err, &opErr) {
		return false
	}
	n := t.agent.State().Notice
	return n != nil && n.Message == opErr.Notice
}

func (t *terminal) run(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdMessage:
		return t.agent.SendMessage(ctx, cmd.text)

	case cmdLogin, cmdRegister:
		req := dto.AuthenticateRequest{Mode: "login", UserID: cmd.args[0]}
		if cmd.kind == cmdRegister {
			req.Mode = "register"
		}
		if len(cmd.args) > 1 {
			req.Name = cmd.args[1]
		}
		if len(cmd.args) > 2 {
			req.Email = cmd.args[2]
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
		_, err := t.agent.Authenticate(ctx, &req)
		return err

	case cmdLogout:
		t.agent.Logout(ctx)
		return nil

	case cmdStart:
		return t.agent.StartThread(ctx)

	case cmdBook:
		req := dto.BookRequest{CarrierID: cmd.args[0], ServiceLevel: cmd.args[1]}
		return t.agent.Book(ctx, &req)

	case cmdStage:
		filename, data, err := readFile(cmd.args[0])
		if err != nil {
			return err
		}
		res, err := t.agent.StageFile(filename, data)
		if err != nil {
			return err
		}
		t.print(func(r *renderer) { r.plain("Staged %s (%d bytes)", res.Filename, res.Size) })
		return nil

	case cmdUnstage:
		return t.agent.Unstage()

	case cmdUpload:
		return t.agent.UploadStaged(ctx)

	case cmdSkip:
		t.agent.Skip()
		return nil

	case cmdInvoice:
		filename, data, err := readFile(cmd.args[0])
		if err != nil {
			return err
		}
		return t.agent.UploadInvoice(ctx, filename, data)

	case cmdInvoices:
		invoices, err := t.agent.RefreshInvoices(ctx)
		if err != nil {
			return err
		}
		t.print(func(r *renderer) {
			if len(invoices) == 0 {
				r.plain("No invoices for this conversation")
			}
			for _, inv := range invoices {
				r.plain("  %s  %s  processed=%t", inv.InvoiceID, inv.Filename, inv.Processed)
			}
		})
		return nil

	case cmdAddDocument:
		filename, data, err := readFile(cmd.args[0])
		if err != nil {
			return err
		}
		return t.agent.UploadDocument(ctx, filename, data)

	case cmdAsk:
		answer, err := t.tracking.AskDocuments(ctx, cmd.text)
		if err != nil {
			return err
		}
		t.print(func(r *renderer) { r.plain("%s", answer) })
		return nil

	case cmdTrack:
		info, err := t.tracking.Track(ctx, cmd.args[0])
		if err != nil || info == nil {
			return err
		}
		t.print(func(r *renderer) {
			r.plain("%s: %s (%s -> %s)", info.TrackingNumber, info.Status, info.Origin, info.Destination)
			if info.EstimatedDelivery != "" {
				r.plain("  estimated delivery %s", info.EstimatedDelivery)
			}
		})
		return nil

	case cmdShipments:
		shipments, err := t.tracking.Shipments(ctx)
		if err != nil {
			return err
		}
		t.print(func(r *renderer) {
			if len(shipments) == 0 {
				r.plain("No shipments yet")
			}
			for _, s := range shipments {
				r.plain("  %s  %s  %s -> %s", s.TrackingNumber, s.Status, s.Origin, s.Destination)
			}
		})
		return nil

	case cmdMetadata:
		res, err := t.metadata.Refresh(ctx)
		if err != nil {
			return err
		}
		t.print(func(r *renderer) {
			for _, inv := range res.Invoices {
				r.plain("  invoice  %s  %s  %s", inv.InvoiceID, inv.Filename, inv.DocumentType)
			}
			for _, doc := range res.Documents {
				r.plain("  document %s  %s  %s", doc.DocumentID, doc.Filename, doc.DocumentType)
			}
		})
		return nil

	case cmdInvoiceDetail:
		rec, err := t.metadata.Invoice(ctx, cmd.args[0])
		if err != nil {
			return err
		}
		t.print(func(r *renderer) { r.plain("%s  %s  %s", rec.InvoiceID, rec.Filename, string(rec.Analysis)) })
		return nil

	case cmdDocumentDetail:
		rec, err := t.metadata.Document(ctx, cmd.args[0])
		if err != nil {
			return err
		}
		t.print(func(r *renderer) { r.plain("%s  %s  strategy=%s", rec.DocumentID, rec.Filename, rec.Strategy) })
		return nil

	case cmdState:
		snap := t.agent.State()
		t.print(func(r *renderer) { r.status(snap) })
		return nil

	case cmdHelp:
		t.print(func(r *renderer) {
			r.plain("Type a message to talk to the shipping agent, or:")
			for _, line := range usageLines() {
				r.plain("  %s", line)
			}
		})
		return nil
	}
	return nil
}

func readFile(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%s is empty", path)
	}
	return filepath.Base(path), data, nil
}
