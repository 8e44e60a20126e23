package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"purchase-archiver/internal/parser"
)

// ledgerIDColumn is the 1-based ledger column holding the source message ID.
const ledgerIDColumn = 5

// LedgerHeader is the fixed header row of the purchase ledger.
var LedgerHeader = []string{"orderDate", "orderNumber", "itemTitle", "orderTotal", "messageId"}

// IngestConfig drives one ingestion run.
type IngestConfig struct {
	LabelName       string
	SheetName       string
	SenderContains  string
	SubjectContains string
	MaxPerRun       int
	PageSize        int64
	Timezone        *time.Location
	DryRun          bool
}

// Ingestor scans the label for order confirmations, parses purchase records
// out of their plain-text bodies, and appends one ledger row per order.
type Ingestor struct {
	mailbox Mailbox
	ledger  Ledger
	cfg     IngestConfig
	logger  *slog.Logger
}

// NewIngestor wires an ingestion run controller.
func NewIngestor(mailbox Mailbox, ledger Ledger, cfg IngestConfig, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{mailbox: mailbox, ledger: ledger, cfg: cfg, logger: logger}
}

// Run executes one bounded ingestion pass. Missing sheet or label aborts
// before anything is written; per-message failures are logged and skipped.
// Dedup relies on the message-ID column of the ledger itself: appended rows
// are the durable markers.
func (p *Ingestor) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := p.ledger.FindSheet(ctx, p.cfg.SheetName); err != nil {
		return summary, fmt.Errorf("ledger sheet %q: %w", p.cfg.SheetName, err)
	}

	ids, err := p.ledger.ReadColumn(ctx, p.cfg.SheetName, ledgerIDColumn)
	if err != nil {
		return summary, fmt.Errorf("failed to load processed message IDs: %w", err)
	}
	seen := NewProcessedSet(ids)
	p.logger.Info("Loaded processed message IDs", "count", seen.Len())

	label, err := p.mailbox.FindLabel(ctx, p.cfg.LabelName)
	if err != nil {
		return summary, err
	}

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

				purchase := parser.ParsePurchase(msg.ID, msg.Subject, msg.PlainBody, msg.Date, p.cfg.Timezone)
				if purchase == nil {
					p.logger.Warn("Failed to parse purchase, skipping message", "message_id", msg.ID)
					continue
				}

				p.logger.Info("Parsed purchase",
					"message_id", msg.ID,
					"order_number", purchase.OrderNumber,
					"order_date", purchase.OrderDate)

				if p.cfg.DryRun {
					p.logger.Info("Dry run: would append ledger row", "message_id", msg.ID)
				} else if err := p.ledger.AppendRow(ctx, p.cfg.SheetName, purchaseRow(purchase)); err != nil {
					p.logger.Error("Failed to append ledger row, skipping message",
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

	p.logger.Info("Ingestion run complete",
		"scanned", summary.Scanned, "appended", summary.Emitted)
	return summary, nil
}

// purchaseRow lays out one ledger row in the fixed column order. A missing
// total becomes an empty cell, not zero.
func purchaseRow(p *parser.Purchase) []interface{} {
	var total interface{} = ""
	if p.OrderTotal != nil {
		total = *p.OrderTotal
	}
	return []interface{}{p.OrderDate, p.OrderNumber, p.ItemTitle, total, p.MessageID}
}
