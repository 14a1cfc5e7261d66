package shipping

import (
	"strings"

	"freightchat/pkg/store"
)

// PromptRule decides from a backend phase name whether a supporting document
// would help the conversation.
type PromptRule func(phase string) bool

// DefaultPromptRule matches cargo collection and finalizing phases.
func DefaultPromptRule(phase string) bool {
	p := strings.ToLower(phase)
	return strings.Contains(p, "cargo") || strings.Contains(p, "final")
}

func (c *Controller) wantsUpload(t *store.Thread) bool {
	if t == nil || t.Attachments > 0 || t.PromptDeclined {
		return false
	}
	return c.promptRule(t.CurrentPhase)
}

var phaseDescriptions = map[string]string{
	"greeting":         "Ready to help with your shipment",
	"route_collection": "Tell me about your shipment route",
	"cargo_collection": "Tell me about your cargo",
	"ready_for_quote":  "Ready to generate quotes",
	"quote_generated":  "Quotes generated - ready to book",
}

// DescribePhase returns the banner text for a phase, or "" for phases the
// client does not know.
func DescribePhase(phase string) string {
	return phaseDescriptions[phase]
}
