package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"purchase-archiver/internal/drive"
	"purchase-archiver/internal/gmail"
	"purchase-archiver/internal/parser"
	"purchase-archiver/internal/render"
)

// LogHeader is the fixed header row of the processed-message log sheet.
var LogHeader = []string{"messageId"}

// ExportConfig drives one export run.
type ExportConfig struct {
	LabelName       string
	FolderPath      string
	LogSheetName    string
	SenderContains  string
	SubjectContains string
	MaxPerRun       int
	PageSize        int64
	Timezone        *time.Location
	DryRun          bool
}

// Exporter renders qualifying messages to self-contained PDFs and files
// them into the Drive folder hierarchy, tracking processed message IDs in a
// dedicated log sheet.
type Exporter struct {
	mailbox  Mailbox
	log      ProcessedLog
	files    FileStore
	inliner  RemoteInliner
	renderer Renderer
	cfg      ExportConfig
	logger   *slog.Logger
}

// NewExporter wires an export run controller.
func NewExporter(
	mailbox Mailbox,
	log ProcessedLog,
	files FileStore,
	inliner RemoteInliner,
	renderer Renderer,
	cfg ExportConfig,
	logger *slog.Logger,
) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		mailbox:  mailbox,
		log:      log,
		files:    files,
		inliner:  inliner,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one bounded export pass. The dedup set is mutated in memory
// during the run and persisted once at the end with a full rewrite of the
// log sheet, so a crash mid-run re-exports this run's messages next time.
func (p *Exporter) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	label, err := p.mailbox.FindLabel(ctx, p.cfg.LabelName)
	if err != nil {
		return summary, err
	}

	folder, err := p.files.ResolveOrCreateFolderPath(ctx, p.cfg.FolderPath)
	if err != nil {
		return summary, err
	}
	p.logger.Info("Resolved Drive folder", "path", folder.Path)

	if err := p.log.EnsureSheet(ctx, p.cfg.LogSheetName, LogHeader); err != nil {
		return summary, err
	}
	ids, err := p.log.ReadColumn(ctx, p.cfg.LogSheetName, 1)
	if err != nil {
		return summary, fmt.Errorf("failed to load processed message IDs: %w", err)
	}
	seen := NewProcessedSet(ids)
	p.logger.Info("Loaded processed message IDs", "count", seen.Len())

	var start int64
	for summary.Emitted < p.cfg.MaxPerRun {
		threads, err := p.mailbox.ListThreads(ctx, label, start, p.cfg.PageSize)
		if err != nil {
			return summary, fmt.Errorf("failed to list threads: %w", err)
		}
		if len(threads) == 0 {
			p.logger.Info("No more threads in label")
			break
		}
		p.logger.Debug("Fetched thread batch", "start", start, "count", len(threads))

		for _, thread := range threads {
			messages, err := p.mailbox.ListMessages(ctx, thread)
			if err != nil {
				p.logger.Warn("Failed to list thread messages, skipping thread",
					"thread_id", thread.ID, "error", err)
				continue
			}

			for _, msg := range messages {
				if summary.Emitted >= p.cfg.MaxPerRun {
					p.logger.Info("Per-run limit reached", "limit", p.cfg.MaxPerRun)
					break
				}
				summary.Scanned++

				if !Qualifies(msg, seen, p.cfg.SenderContains, p.cfg.SubjectContains) {
					continue
				}

				if err := p.exportMessage(ctx, msg, folder); err != nil {
					p.logger.Error("Failed to export message, continuing",
						"message_id", msg.ID, "error", err)
					continue
				}

				seen.Add(msg.ID)
				summary.Emitted++
			}
			if summary.Emitted >= p.cfg.MaxPerRun {
				break
			}
		}

		if int64(len(threads)) < p.cfg.PageSize {
			p.logger.Debug("Short page, label exhausted")
			break
		}
		start += p.cfg.PageSize
	}

	if p.cfg.DryRun {
		p.logger.Info("Dry run: skipping processed-log save", "ids", seen.Len())
	} else if err := p.saveProcessed(ctx, seen); err != nil {
		return summary, err
	}

	p.logger.Info("Export run complete",
		"scanned", summary.Scanned, "exported", summary.Emitted)
	return summary, nil
}

// exportMessage renders one message to PDF and files it. Any failure leaves
// the message unmarked so a later run retries it.
func (p *Exporter) exportMessage(ctx context.Context, msg gmail.Message, folder drive.Folder) error {
	attachments, err := p.mailbox.ListInlineAttachments(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to resolve inline attachments: %w", err)
	}

	images := make([]render.InlineImage, 0, len(attachments))
	for _, a := range attachments {
		images = append(images, render.InlineImage{
			ContentID:   a.ContentID,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}

	html := render.InlineCidImages(msg.HTMLBody, images)
	html, stats := p.inliner.Inline(ctx, html)
	if stats.Kept > 0 {
		p.logger.Debug("Some remote images kept as references",
			"message_id", msg.ID, "inlined", stats.Inlined, "kept", stats.Kept)
	}

	doc, err := render.BuildDocument(render.MessageMeta{
		Subject:   msg.Subject,
		From:      msg.From,
		To:        msg.To,
		Cc:        msg.Cc,
		Date:      msg.Date,
		MessageID: msg.ID,
	}, html, p.cfg.Timezone)
	if err != nil {
		return err
	}

	pdf, err := p.renderer.RenderHTML(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}

	name := parser.BuildFileName(msg.Subject, msg.PlainBody, msg.Date, p.cfg.Timezone)

	if p.cfg.DryRun {
		p.logger.Info("Dry run: would create file", "name", name, "bytes", len(pdf))
		return nil
	}

	fileID, err := p.files.CreateFile(ctx, folder, name, "application/pdf", pdf)
	if err != nil {
		return err
	}
	p.logger.Info("Created PDF", "name", name, "file_id", fileID)
	return nil
}

// saveProcessed rewrites the log sheet with the full current set.
func (p *Exporter) saveProcessed(ctx context.Context, seen *ProcessedSet) error {
	ids := seen.IDs()
	rows := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []interface{}{id})
	}

	p.logger.Info("Saving processed message IDs", "count", len(ids))
	if err := p.log.ClearAndRewrite(ctx, p.cfg.LogSheetName, LogHeader, rows); err != nil {
		return fmt.Errorf("failed to save processed message IDs: %w", err)
	}
	return nil
}
