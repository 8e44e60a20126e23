package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail API for the run controllers: label lookup,
// sequential thread windows, full-message retrieval, and inline-attachment
// resolution.
type Client struct {
	service *gmailapi.Service
	userID  string
	logger  *slog.Logger

	// Cursor for sequential ListThreads windows. The Gmail API paginates
	// with opaque tokens; the run controller only ever advances
	// monotonically, so one saved token per client is enough.
	cursorLabelID string
	cursorStart   int64
	cursorToken   string
}

// NewClient builds a Gmail client over an already-authenticated HTTP client
// and verifies the connection with a profile fetch.
func NewClient(ctx context.Context, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	service, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	client := &Client{service: service, userID: "me", logger: logger}

	profile, err := client.service.Users.GetProfile(client.userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Gmail connection check failed: %w", err)
	}
	logger.Info("Connected to Gmail account", "email", profile.EmailAddress)

	return client, nil
}

// FindLabel resolves a label by display name. Returns ErrLabelNotFound when
// the account has no label with that exact name.
func (c *Client) FindLabel(ctx context.Context, name string) (Label, error) {
	resp, err := c.service.Users.Labels.List(c.userID).Context(ctx).Do()
	if err != nil {
		return Label{}, fmt.Errorf("failed to list labels: %w", err)
	}

	for _, l := range resp.Labels {
		if l.Name == name {
			return Label{ID: l.Id, Name: l.Name}, nil
		}
	}

	return Label{}, fmt.Errorf("%w: %q", ErrLabelNotFound, name)
}

// ListThreads returns the window [start, start+limit) of the label's thread
// stream. Windows must be requested sequentially from offset zero; the
// client maps offsets onto the API's pagination tokens.
func (c *Client) ListThreads(ctx context.Context, label Label, start, limit int64) ([]Thread, error) {
	var token string
	switch {
	case start == 0:
		token = ""
	case c.cursorLabelID == label.ID && c.cursorStart == start:
		token = c.cursorToken
		if token == "" {
			// Previous window was the last page.
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("non-sequential thread window requested: start=%d", start)
	}

	// MaxResults is a ceiling: the API may return fewer threads than
	// requested while more pages remain. Keep following tokens until the
	// window is full or the label is exhausted, so a short API page is
	// never mistaken for the end of the stream.
	threads := make([]Thread, 0, limit)
	for int64(len(threads)) < limit {
		call := c.service.Users.Threads.List(c.userID).
			LabelIds(label.ID).
			MaxResults(limit - int64(len(threads))).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list threads for label %q: %w", label.Name, err)
		}

		for _, t := range resp.Threads {
			threads = append(threads, Thread{ID: t.Id})
		}

		token = resp.NextPageToken
		if token == "" || len(resp.Threads) == 0 {
			break
		}
	}

	c.cursorLabelID = label.ID
	c.cursorStart = start + limit
	c.cursorToken = token

	return threads, nil
}

// ListMessages fetches a thread's messages in the store's order, fully
// parsed.
func (c *Client) ListMessages(ctx context.Context, thread Thread) ([]Message, error) {
	resp, err := c.service.Users.Threads.Get(c.userID, thread.ID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", thread.ID, err)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, parseMessage(m))
	}
	return messages, nil
}

// ListInlineAttachments resolves the message's inline parts, fetching bodies
// that were not embedded in the original payload.
func (c *Client) ListInlineAttachments(ctx context.Context, msg Message) ([]InlineAttachment, error) {
	attachments := make([]InlineAttachment, 0, len(msg.Inline))
	for _, ref := range msg.Inline {
		data := ref.Data
		if len(data) == 0 && ref.AttachmentID != "" {
			body, err := c.service.Users.Messages.Attachments.
				Get(c.userID, msg.ID, ref.AttachmentID).Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("failed to get attachment %s of message %s: %w", ref.AttachmentID, msg.ID, err)
			}
			data, err = decodeBody(body.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode attachment %s of message %s: %w", ref.AttachmentID, msg.ID, err)
			}
		}
		attachments = append(attachments, InlineAttachment{
			ContentID:   ref.ContentID,
			ContentType: ref.ContentType,
			Data:        data,
		})
	}
	return attachments, nil
}

// parseMessage converts an API message into a Message, walking the MIME tree
// for the body variants and inline parts.
func parseMessage(m *gmailapi.Message) Message {
	msg := Message{ID: m.Id, ThreadID: m.ThreadId}

	if m.Payload == nil {
		return msg
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.From = h.Value
		case "to":
			msg.To = h.Value
		case "cc":
			msg.Cc = h.Value
		case "subject":
			msg.Subject = h.Value
		case "date":
			if date, err := mail.ParseDate(h.Value); err == nil {
				msg.Date = date
			}
		}
	}
	if msg.Date.IsZero() && m.InternalDate > 0 {
		msg.Date = time.UnixMilli(m.InternalDate)
	}

	walkParts(m.Payload, &msg)
	return msg
}

// walkParts recursively collects the first plain and HTML bodies plus every
// inline part carrying a Content-ID.
func walkParts(part *gmailapi.MessagePart, msg *Message) {
	if part == nil {
		return
	}

	switch {
	case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "":
		if msg.PlainBody == "" {
			if decoded, err := decodeBody(part.Body.Data); err == nil {
				msg.PlainBody = string(decoded)
			}
		}
	case part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "":
		if msg.HTMLBody == "" {
			if decoded, err := decodeBody(part.Body.Data); err == nil {
				msg.HTMLBody = string(decoded)
			}
		}
	default:
		if cid := headerValue(part, "Content-ID"); cid != "" && part.Body != nil {
			ref := InlineRef{
				ContentID:    cid,
				ContentType:  part.MimeType,
				AttachmentID: part.Body.AttachmentId,
			}
			if part.Body.Data != "" {
				if decoded, err := decodeBody(part.Body.Data); err == nil {
					ref.Data = decoded
				}
			}
			msg.Inline = append(msg.Inline, ref)
		}
	}

	for _, p := range part.Parts {
		walkParts(p, msg)
	}
}

func headerValue(part *gmailapi.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBody handles both padded and unpadded base64url part bodies.
func decodeBody(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
