package main

import (
	"errors"
	"fmt"
	"strings"
)

type commandKind int

const (
	cmdMessage commandKind = iota
	cmdLogin
	cmdRegister
	cmdLogout
	cmdStart
	cmdBook
	cmdStage
	cmdUnstage
	cmdUpload
	cmdSkip
	cmdInvoice
	cmdInvoices
	cmdAddDocument
	cmdAsk
	cmdTrack
	cmdShipments
	cmdMetadata
	cmdInvoiceDetail
	cmdDocumentDetail
	cmdState
	cmdHelp
	cmdQuit
)

type command struct {
	kind commandKind
	args []string
	text string
}

type commandSpec struct {
	kind    commandKind
	minArgs int
	usage   string
	// rest joins every argument into text instead of splitting them
	rest bool
}

var commands = map[string]commandSpec{
	"/login":     {kind: cmdLogin, minArgs: 1, usage: "/login <userId> [name]"},
	"/register":  {kind: cmdRegister, minArgs: 1, usage: "/register <userId> [name] [email]"},
	"/logout":    {kind: cmdLogout, usage: "/logout"},
	"/start":     {kind: cmdStart, usage: "/start"},
	"/book":      {kind: cmdBook, minArgs: 2, usage: "/book <carrierId> <serviceLevel>"},
	"/stage":     {kind: cmdStage, minArgs: 1, usage: "/stage <path>"},
	"/unstage":   {kind: cmdUnstage, usage: "/unstage"},
	"/upload":    {kind: cmdUpload, usage: "/upload"},
	"/skip":      {kind: cmdSkip, usage: "/skip"},
	"/invoice":   {kind: cmdInvoice, minArgs: 1, usage: "/invoice <path>"},
	"/invoices":  {kind: cmdInvoices, usage: "/invoices"},
	"/adddoc":    {kind: cmdAddDocument, minArgs: 1, usage: "/adddoc <path>"},
	"/ask":       {kind: cmdAsk, minArgs: 1, usage: "/ask <question>", rest: true},
	"/track":     {kind: cmdTrack, minArgs: 1, usage: "/track <trackingNumber>"},
	"/shipments": {kind: cmdShipments, usage: "/shipments"},
	"/metadata":  {kind: cmdMetadata, usage: "/metadata"},
	"/invoiceof": {kind: cmdInvoiceDetail, minArgs: 1, usage: "/invoiceof <invoiceId>"},
	"/docof":     {kind: cmdDocumentDetail, minArgs: 1, usage: "/docof <documentId>"},
	"/state":     {kind: cmdState, usage: "/state"},
	"/help":      {kind: cmdHelp, usage: "/help"},
	"/quit":      {kind: cmdQuit, usage: "/quit"},
}

var errEmptyLine = errors.New("empty line")

// parseCommand turns one input line into a command. Lines that do not start
// with "/" are dialogue messages.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, errEmptyLine
	}
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdMessage, text: line}, nil
	}

	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	spec, ok := commands[name]
	if !ok {
		return command{}, fmt.Errorf("unknown command %s, type /help", fields[0])
	}
	args := fields[1:]
	if len(args) < spec.minArgs {
		return command{}, fmt.Errorf("usage: %s", spec.usage)
	}

	cmd := command{kind: spec.kind, args: args}
	if spec.rest {
		cmd.text = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	}
	return cmd, nil
}

func usageLines() []string {
	order := []string{
		"/login", "/register", "/logout", "/start", "/book",
		"/stage", "/unstage", "/upload", "/skip",
		"/invoice", "/invoices", "/adddoc", "/ask",
		"/track", "/shipments", "/metadata", "/invoiceof", "/docof",
		"/state", "/help", "/quit",
	}
	lines := make([]string, 0, len(order))
	for _, name := range order {
		lines = append(lines, commands[name].usage)
	}
	return lines
}
