package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind commandKind
		wantArgs []string
		wantText string
	}{
		{"plain message", "  200kg from NYC to LA ", cmdMessage, nil, "200kg from NYC to LA"},
		{"login", "/login alice", cmdLogin, []string{"alice"}, ""},
		{"register with details", "/register bob Bob bob@example.com", cmdRegister, []string{"bob", "Bob", "bob@example.com"}, ""},
		{"case insensitive", "/START", cmdStart, []string{}, ""},
		{"book", "/book C1 express", cmdBook, []string{"C1", "express"}, ""},
		{"ask keeps spacing", "/ask what is the  total weight?", cmdAsk, []string{"what", "is", "the", "total", "weight?"}, "what is the  total weight?"},
		{"track", "/track FC123", cmdTrack, []string{"FC123"}, ""},
		{"quit", "/quit", cmdQuit, []string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, cmd.kind)
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, cmd.args)
			}
			assert.Equal(t, tt.wantText, cmd.text)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := parseCommand("   ")
	assert.ErrorIs(t, err, errEmptyLine)

	_, err = parseCommand("/teleport")
	assert.EqualError(t, err, "unknown command /teleport, type /help")

	_, err = parseCommand("/book C1")
	assert.EqualError(t, err, "usage: /book <carrierId> <serviceLevel>")

	_, err = parseCommand("/stage")
	assert.EqualError(t, err, "usage: /stage <path>")
}

func TestUsageCoversEveryCommand(t *testing.T) {
	assert.Len(t, usageLines(), len(commands))
}
