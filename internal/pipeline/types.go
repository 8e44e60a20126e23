package pipeline

import (
	"context"

	"purchase-archiver/internal/drive"
	"purchase-archiver/internal/gmail"
	"purchase-archiver/internal/render"
)

// Mailbox is the message-store surface the run controllers consume.
type Mailbox interface {
	FindLabel(ctx context.Context, name string) (gmail.Label, error)
	ListThreads(ctx context.Context, label gmail.Label, start, limit int64) ([]gmail.Thread, error)
	ListMessages(ctx context.Context, thread gmail.Thread) ([]gmail.Message, error)
	ListInlineAttachments(ctx context.Context, msg gmail.Message) ([]gmail.InlineAttachment, error)
}

// Ledger is the tabular purchase sink plus the message-ID column used for
// de-duplication.
type Ledger interface {
	FindSheet(ctx context.Context, title string) error
	ReadColumn(ctx context.Context, title string, col int) ([]string, error)
	AppendRow(ctx context.Context, title string, values []interface{}) error
}

// ProcessedLog persists the export pipeline's dedup set as a single-column
// sheet, fully rewritten on save.
type ProcessedLog interface {
	EnsureSheet(ctx context.Context, title string, header []string) error
	ReadColumn(ctx context.Context, title string, col int) ([]string, error)
	ClearAndRewrite(ctx context.Context, title string, header []string, rows [][]interface{}) error
}

// FileStore files rendered documents into a folder hierarchy.
type FileStore interface {
	ResolveOrCreateFolderPath(ctx context.Context, path string) (drive.Folder, error)
	CreateFile(ctx context.Context, folder drive.Folder, name, mimeType string, data []byte) (string, error)
}

// Renderer converts a self-contained HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// RemoteInliner rewrites remote image references into data URIs.
type RemoteInliner interface {
	Inline(ctx context.Context, html string) (string, render.RemoteInlineStats)
}

// Summary aggregates one run's counters.
type Summary struct {
	Scanned int
	Emitted int
}
