package main

import (
	"fmt"
	"io"
	"strings"

	"freightchat/pkg/shipping"
	"freightchat/pkg/store"

	"github.com/fatih/color"
)

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen)
	systemColor    = color.New(color.FgMagenta)
	phaseColor     = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
	successColor   = color.New(color.FgGreen, color.Bold)
	infoColor      = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

// renderer prints the parts of each snapshot the terminal has not shown yet.
type renderer struct {
	out io.Writer

	printed int
	phase   string
	notice  *store.Notice
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) render(snap shipping.Snapshot) {
	// the log shrinks on logout or a new thread
	if len(snap.Messages) < r.printed {
		r.printed = 0
	}
	for _, msg := range snap.Messages[r.printed:] {
		r.message(msg)
	}
	r.printed = len(snap.Messages)

	if snap.Thread != nil && snap.Thread.CurrentPhase != r.phase {
		r.phase = snap.Thread.CurrentPhase
		if desc := snap.PhaseDescription; desc != "" {
			phaseColor.Fprintf(r.out, "  [%s] %s\n", r.phase, desc)
		}
	}
	if snap.Thread == nil {
		r.phase = ""
	}

	if snap.Notice != nil && (r.notice == nil || !r.notice.At.Equal(snap.Notice.At) || r.notice.Message != snap.Notice.Message) {
		r.noticeLine(*snap.Notice)
	}
	r.notice = snap.Notice
}

func (r *renderer) message(msg store.Message) {
	switch msg.Role {
	case store.RoleUser:
		userColor.Fprintf(r.out, "you> %s\n", msg.Content)
	case store.RoleSystem:
		systemColor.Fprintf(r.out, "  * %s\n", msg.Content)
	default:
		for _, line := range strings.Split(msg.Content, "\n") {
			assistantColor.Fprintf(r.out, "agent> %s\n", line)
		}
	}
	for _, ref := range msg.Attachments {
		dimColor.Fprintf(r.out, "  attached %s (%s)\n", ref.Filename, ref.DocumentID)
	}
	if msg.UploadPrompt {
		infoColor.Fprintln(r.out, "  A document would help here: /stage <path> then /upload, or /skip")
	}
}

func (r *renderer) noticeLine(n store.Notice) {
	switch n.Severity {
	case store.SeverityError:
		errorColor.Fprintf(r.out, "! %s\n", n.Message)
	case store.SeveritySuccess:
		successColor.Fprintf(r.out, "%s\n", n.Message)
	default:
		infoColor.Fprintf(r.out, "%s\n", n.Message)
	}
}

func (r *renderer) quotes(q *store.QuoteSet) {
	if q == nil {
		return
	}
	for _, quote := range q.Quotes {
		fmt.Fprintf(r.out, "  %-12s %-20s %-10s %s %s\n", quote.CarrierID, quote.Name, quote.Service, quote.Rate, quote.Currency)
	}
	if q.TotalEstimate != "" {
		fmt.Fprintf(r.out, "  total estimate: %s %s\n", q.TotalEstimate, q.Currency)
	}
}

func (r *renderer) status(snap shipping.Snapshot) {
	if !snap.Session.Authenticated {
		dimColor.Fprintln(r.out, "signed out")
		return
	}
	fmt.Fprintf(r.out, "signed in as %s (%s)\n", snap.Session.User.Name, snap.Session.User.UserID)
	fmt.Fprintf(r.out, "dialogue: %s\n", snap.Dialogue)
	if snap.Thread != nil {
		fmt.Fprintf(r.out, "thread: %s phase: %s documents: %d\n", snap.Thread.ID, snap.Thread.CurrentPhase, snap.Thread.Attachments)
	}
	if snap.Staged != nil {
		fmt.Fprintf(r.out, "staged: %s (%d bytes)\n", snap.Staged.Filename, snap.Staged.Size)
	}
	for lane, since := range snap.Pending {
		dimColor.Fprintf(r.out, "busy: %s since %s\n", lane, since.Format("15:04:05"))
	}
	r.quotes(snap.Quote)
}

func (r *renderer) errorLine(err error) {
	errorColor.Fprintf(r.out, "! %s\n", err.Error())
}

func (r *renderer) plain(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
