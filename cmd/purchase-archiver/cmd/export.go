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
	"purchase-archiver/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render Amazon order emails to PDFs in Google Drive",
	Long: `Scans the configured Gmail label for Amazon order emails and renders
each new one to a self-contained A4 PDF in the configured Drive folder.
Embedded cid: images and remote images are inlined as data URIs before
rendering so the PDFs stay readable offline. Processed message IDs are
tracked in a dedicated log sheet and saved once at the end of the run.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	logger.Info("Starting export run",
		"version", Version,
		"label", cfg.Export.Label,
		"folder", cfg.Export.FolderPath,
		"dry_run", cfg.DryRun)

	spin := cli.NewProgressSpinner("Connecting to Google APIs", noColor || quiet)
	spin.Start()
	services, err := newGoogleServices(ctx, cfg, logger)
	spin.Stop()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	fetcher := render.NewHTTPFetcher(cfg.Render.FetchTimeout, cfg.Render.MaxImageBytes, cfg.Render.UserAgent)
	inliner := render.NewRemoteInliner(fetcher, cfg.Render.MaxURLLength, logger)
	renderer := render.NewChromeRenderer(cfg.Render.ChromePath, cfg.Render.RenderTimeout)

	exporter := pipeline.NewExporter(
		services.mailbox,
		services.sheets,
		services.drive,
		inliner,
		renderer,
		pipeline.ExportConfig{
			LabelName:       cfg.Export.Label,
			FolderPath:      cfg.Export.FolderPath,
			LogSheetName:    cfg.Export.LogSheet,
			SenderContains:  cfg.Export.SenderContains,
			SubjectContains: cfg.Export.SubjectContains,
			MaxPerRun:       cfg.Export.MaxPerRun,
			PageSize:        cfg.Export.PageSize,
			Timezone:        loc,
			DryRun:          cfg.DryRun,
		},
		logger,
	)

	summary, err := exporter.Run(ctx)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess(fmt.Sprintf("Scanned %d messages, exported %d PDFs to %q",
		summary.Scanned, summary.Emitted, cfg.Export.FolderPath))
	return formatter.PrintSummary("export", summary)
}
