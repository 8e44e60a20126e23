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
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"purchase-archiver/internal/config"
)

const (
	// Version information
	Version   = "1.0.0"
	BuildDate = "development"
)

var (
	configFile string
	dryRun     bool
	format     string
	quiet      bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "purchase-archiver",
	Short: "Archive Amazon order confirmations from Gmail to Sheets and Drive",
	Long: `Purchase Archiver v1.0.0

DESCRIPTION:
    Scans a Gmail label for Amazon order-confirmation emails and archives
    them two ways: "ingest" extracts order details into a Google Sheets
    ledger, "export" renders each email to a self-contained PDF in Google
    Drive. Both runs are idempotent; processed message IDs are tracked in
    the spreadsheet itself.

CONFIGURATION:
    Configuration is read from purchase-archiver.yaml (current directory,
    ./config, or ~/.purchase-archiver), .env files, and environment
    variables:

    Google API Configuration:
        PURCHASE_ARCHIVER_GOOGLE_CLIENT_ID       - OAuth2 client ID
        PURCHASE_ARCHIVER_GOOGLE_CLIENT_SECRET   - OAuth2 client secret
        PURCHASE_ARCHIVER_GOOGLE_REFRESH_TOKEN   - OAuth2 refresh token
        PURCHASE_ARCHIVER_GOOGLE_ACCESS_TOKEN    - OAuth2 access token
        PURCHASE_ARCHIVER_GOOGLE_SPREADSHEET_ID  - Spreadsheet holding the ledger

    Ingest Configuration:
        PURCHASE_ARCHIVER_INGEST_LABEL           - Gmail label to scan (default: Amazon Orders)
        PURCHASE_ARCHIVER_INGEST_SHEET           - Ledger sheet title (default: Amazon Orders)
        PURCHASE_ARCHIVER_INGEST_MAX_PER_RUN     - Cap on appended rows per run (default: 250)
        PURCHASE_ARCHIVER_INGEST_PAGE_SIZE       - Threads fetched per page (default: 50)

    Export Configuration:
        PURCHASE_ARCHIVER_EXPORT_FOLDER_PATH     - Drive folder path (default: Purchases/Amazon/Extracted PDFs)
        PURCHASE_ARCHIVER_EXPORT_LOG_SHEET       - Dedup log sheet title (default: Amazon PDFs)
        PURCHASE_ARCHIVER_EXPORT_MAX_PER_RUN     - Cap on exported PDFs per run (default: 100)

    General:
        PURCHASE_ARCHIVER_TIMEZONE               - Timezone for dates and filenames
        PURCHASE_ARCHIVER_DRY_RUN                - Scan without writing (default: false)
        PURCHASE_ARCHIVER_LOG_LEVEL              - debug, info, warn, error (default: info)

EXAMPLES:
    # Append new orders to the ledger
    export PURCHASE_ARCHIVER_GOOGLE_SPREADSHEET_ID="1abc..."
    purchase-archiver ingest

    # Export PDFs with a custom configuration file
    purchase-archiver export --config=purchase-archiver.production.yaml

    # Dry run mode for testing
    purchase-archiver ingest --dry-run`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	fang.Execute(context.Background(), rootCmd)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is purchase-archiver.yaml or .env)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "scan and parse without writing rows, files, or log entries")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (minimal output)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
}

// loadConfiguration loads configuration from files and environment variables
func loadConfiguration() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		if strings.HasSuffix(configFile, ".env") {
			cfg, err = config.LoadWithEnvFile(configFile)
		} else {
			cfg, err = config.LoadWithFile(configFile)
		}
	} else {
		cfg, err = config.LoadWithEnvFile("")
	}
	if err != nil {
		return nil, err
	}

	// CLI flag overrides config and environment
	if dryRun {
		cfg.DryRun = true
	}

	return cfg, nil
}

// newLogger builds the structured logger for a run.
func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}
