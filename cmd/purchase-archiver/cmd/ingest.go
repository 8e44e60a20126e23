// Copyright 2025 Purchase Archiver
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"purchase-archiver/internal/cli"
	"purchase-archiver/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Append new Amazon orders from Gmail to the Sheets ledger",
	Long: `Scans the configured Gmail label for Amazon order-confirmation emails,
extracts the order number, total, date, and item title from each, and appends
one row per new order to the ledger sheet. Messages already present in the
ledger's message-ID column are skipped, so repeated runs are safe.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	formatter := cli.NewOutputFormatter(format, quiet, noColor)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ingest run",
		"version", Version,
		"label", cfg.Ingest.Label,
		"sheet", cfg.Ingest.Sheet,
		"dry_run", cfg.DryRun)

	spin := cli.NewProgressSpinner("Connecting to Google APIs", noColor || quiet)
	spin.Start()
	services, err := newGoogleServices(ctx, cfg, logger)
	spin.Stop()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	ingestor := pipeline.NewIngestor(services.mailbox, services.sheets, pipeline.IngestConfig{
		LabelName:       cfg.Ingest.Label,
		SheetName:       cfg.Ingest.Sheet,
		SenderContains:  cfg.Ingest.SenderContains,
		SubjectContains: cfg.Ingest.SubjectContains,
		MaxPerRun:       cfg.Ingest.MaxPerRun,
		PageSize:        cfg.Ingest.PageSize,
		Timezone:        loc,
		DryRun:          cfg.DryRun,
	}, logger)

	summary, err := ingestor.Run(ctx)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess(fmt.Sprintf("Scanned %d messages, appended %d new orders to %q",
		summary.Scanned, summary.Emitted, cfg.Ingest.Sheet))
	return formatter.PrintSummary("ingest", summary)
}
