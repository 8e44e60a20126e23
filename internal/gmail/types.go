package gmail

import (
	"errors"
	"time"
)

// ErrLabelNotFound is returned when the configured label does not exist in
// the account. Callers treat this as fatal setup failure.
var ErrLabelNotFound = errors.New("gmail label not found")

// Label identifies a Gmail label by its API ID and display name.
type Label struct {
	ID   string
	Name string
}

// Thread is a conversation reference inside a label's thread stream.
type Thread struct {
	ID string
}

// Message is a fully fetched Gmail message with both body variants parsed
// out of the MIME tree.
type Message struct {
	ID       string
	ThreadID string

	From    string
	To      string
	Cc      string
	Subject string
	Date    time.Time

	PlainBody string
	HTMLBody  string

	// Inline parts referenced by cid: in the HTML body. Data may be empty
	// until resolved through ListInlineAttachments.
	Inline []InlineRef
}

// InlineRef points at an inline MIME part. AttachmentID is set when the part
// body must be fetched with a separate API call.
type InlineRef struct {
	ContentID    string
	ContentType  string
	AttachmentID string
	Data         []byte
}

// InlineAttachment is a fully resolved inline image.
type InlineAttachment struct {
	ContentID   string
	ContentType string
	Data        []byte
}
