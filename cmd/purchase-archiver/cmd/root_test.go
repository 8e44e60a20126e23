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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasPipelineSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["ingest"])
	assert.True(t, names["export"])
}

func TestPersistentFlagsRegistered(t *testing.T) {
	for _, name := range []string{"config", "dry-run", "format", "quiet", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %q", name)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			if tt.enabled > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tt.enabled-4))
			}
		})
	}
}

func TestLoadConfiguration_DryRunFlagOverride(t *testing.T) {
	t.Setenv("PURCHASE_ARCHIVER_GOOGLE_SPREADSHEET_ID", "sheet-abc")

	dryRun = true
	t.Cleanup(func() { dryRun = false })

	cfg, err := loadConfiguration()
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}
