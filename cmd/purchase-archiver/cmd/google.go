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
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	gmailapi "google.golang.org/api/gmail/v1"
	sheetsapi "google.golang.org/api/sheets/v4"

	"purchase-archiver/internal/config"
	"purchase-archiver/internal/drive"
	"purchase-archiver/internal/gmail"
	"purchase-archiver/internal/sheets"
)

// googleServices bundles the authenticated Google API adapters shared by the
// ingest and export commands.
type googleServices struct {
	mailbox *gmail.Client
	sheets  *sheets.Service
	drive   *drive.Store
}

// newGoogleHTTPClient builds an OAuth2-authenticated HTTP client covering
// Gmail, Sheets, and Drive.
func newGoogleHTTPClient(ctx context.Context, cfg *config.GoogleConfig) (*http.Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth2 client ID and secret are required")
	}
	if cfg.RefreshToken == "" && cfg.AccessToken == "" {
		return nil, fmt.Errorf("google OAuth2 refresh token or access token is required")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes: []string{
			gmailapi.GmailReadonlyScope,
			sheetsapi.SpreadsheetsScope,
			driveapi.DriveScope,
		},
		Endpoint: google.Endpoint,
	}

	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}

	httpClient := oauthConfig.Client(ctx, token)
	httpClient.Timeout = cfg.RequestTimeout
	return httpClient, nil
}

// newGoogleServices authenticates once and constructs all three adapters.
func newGoogleServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*googleServices, error) {
	httpClient, err := newGoogleHTTPClient(ctx, &cfg.Google)
	if err != nil {
		return nil, err
	}

	mailbox, err := gmail.NewClient(ctx, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}

	ledger, err := sheets.NewService(ctx, httpClient, cfg.Google.SpreadsheetID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	store, err := drive.NewStore(ctx, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive store: %w", err)
	}

	return &googleServices{mailbox: mailbox, sheets: ledger, drive: store}, nil
}
