package pipeline

import (
	"strings"

	"purchase-archiver/internal/gmail"
)

// Qualifies decides whether a message enters the extraction stage. Checks
// run cheapest-first and short-circuit: already-processed ID, then sender
// substring, then subject keyword, both case-insensitive. Pure.
func Qualifies(msg gmail.Message, seen *ProcessedSet, senderContains, subjectContains string) bool {
	if seen.Has(msg.ID) {
		return false
	}
	if !strings.Contains(strings.ToLower(msg.From), strings.ToLower(senderContains)) {
		return false
	}
	if !strings.Contains(strings.ToLower(msg.Subject), strings.ToLower(subjectContains)) {
		return false
	}
	return true
}
