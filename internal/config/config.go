package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"purchase-archiver/internal/render"
)

// Config holds the full archiver configuration.
type Config struct {
	Google GoogleConfig `json:"google"`
	Ingest ScanConfig   `json:"ingest"`
	Export ExportConfig `json:"export"`
	Render RenderConfig `json:"render"`

	// Timezone used for ledger dates and PDF filenames, e.g. "America/New_York".
	Timezone string `json:"timezone"`
	DryRun   bool   `json:"dry_run"`
	LogLevel string `json:"log_level"`
}

// GoogleConfig holds shared Google API credentials and targets.
type GoogleConfig struct {
	// OAuth2 Settings
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	TokenFile    string `json:"token_file"`

	// Spreadsheet holding both the purchase ledger and the export log sheet.
	SpreadsheetID string `json:"spreadsheet_id"`

	RequestTimeout time.Duration `json:"request_timeout"`
}

// ScanConfig drives the ingest pipeline.
type ScanConfig struct {
	Label           string `json:"label"`
	Sheet           string `json:"sheet"`
	SenderContains  string `json:"sender_contains"`
	SubjectContains string `json:"subject_contains"`
	MaxPerRun       int    `json:"max_per_run"`
	PageSize        int64  `json:"page_size"`
}

// ExportConfig drives the PDF export pipeline.
type ExportConfig struct {
	Label           string `json:"label"`
	FolderPath      string `json:"folder_path"`
	LogSheet        string `json:"log_sheet"`
	SenderContains  string `json:"sender_contains"`
	SubjectContains string `json:"subject_contains"`
	MaxPerRun       int    `json:"max_per_run"`
	PageSize        int64  `json:"page_size"`
}

// RenderConfig tunes the headless browser and remote image fetching.
type RenderConfig struct {
	ChromePath    string        `json:"chrome_path"`
	RenderTimeout time.Duration `json:"render_timeout"`
	MaxImageBytes int64         `json:"max_image_bytes"`
	MaxURLLength  int           `json:"max_url_length"`
	UserAgent     string        `json:"user_agent"`
	FetchTimeout  time.Duration `json:"fetch_timeout"`
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) validate() error {
	if c.Google.SpreadsheetID == "" {
		return errors.New("google.spreadsheet_id is required")
	}
	if c.Ingest.Label == "" {
		return errors.New("ingest.label cannot be empty")
	}
	if c.Ingest.Sheet == "" {
		return errors.New("ingest.sheet cannot be empty")
	}
	if c.Ingest.MaxPerRun <= 0 {
		return errors.New("ingest.max_per_run must be positive")
	}
	if c.Ingest.PageSize <= 0 {
		return errors.New("ingest.page_size must be positive")
	}
	if c.Export.Label == "" {
		return errors.New("export.label cannot be empty")
	}
	if c.Export.FolderPath == "" {
		return errors.New("export.folder_path cannot be empty")
	}
	if c.Export.LogSheet == "" {
		return errors.New("export.log_sheet cannot be empty")
	}
	if c.Export.MaxPerRun <= 0 {
		return errors.New("export.max_per_run must be positive")
	}
	if c.Export.PageSize <= 0 {
		return errors.New("export.page_size must be positive")
	}
	if c.Render.MaxImageBytes <= 0 {
		return errors.New("render.max_image_bytes must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LoadWithViper loads configuration using the given Viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	setupEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := &Config{}
	if err := unmarshalConfig(v, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for archiver configuration
func setDefaults(v *viper.Viper) {
	// Google defaults
	v.SetDefault("google.token_file", "./google-token.json")
	v.SetDefault("google.request_timeout", "30s")

	// Ingest defaults
	v.SetDefault("ingest.label", "Amazon Orders")
	v.SetDefault("ingest.sheet", "Amazon Orders")
	v.SetDefault("ingest.sender_contains", "auto-confirm@amazon.com")
	v.SetDefault("ingest.subject_contains", "ordered")
	v.SetDefault("ingest.max_per_run", 250)
	v.SetDefault("ingest.page_size", 50)

	// Export defaults
	v.SetDefault("export.label", "Amazon Orders")
	v.SetDefault("export.folder_path", "Purchases/Amazon/Extracted PDFs")
	v.SetDefault("export.log_sheet", "Amazon PDFs")
	v.SetDefault("export.sender_contains", "amazon.com")
	v.SetDefault("export.subject_contains", "ordered")
	v.SetDefault("export.max_per_run", 100)
	v.SetDefault("export.page_size", 50)

	// Render defaults
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.render_timeout", "60s")
	v.SetDefault("render.max_image_bytes", render.DefaultMaxImageBytes)
	v.SetDefault("render.max_url_length", render.DefaultMaxURLLength)
	v.SetDefault("render.user_agent", render.DefaultUserAgent)
	v.SetDefault("render.fetch_timeout", "20s")

	v.SetDefault("timezone", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "info")
}

// setupEnvBinding sets up environment variable binding
func setupEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("PURCHASE_ARCHIVER")
	v.AutomaticEnv()

	envBindings := map[string]string{
		// Google
		"google.client_id":       "GOOGLE_CLIENT_ID",
		"google.client_secret":   "GOOGLE_CLIENT_SECRET",
		"google.refresh_token":   "GOOGLE_REFRESH_TOKEN",
		"google.access_token":    "GOOGLE_ACCESS_TOKEN",
		"google.token_file":      "GOOGLE_TOKEN_FILE",
		"google.spreadsheet_id":  "GOOGLE_SPREADSHEET_ID",
		"google.request_timeout": "GOOGLE_REQUEST_TIMEOUT",

		// Ingest
		"ingest.label":            "INGEST_LABEL",
		"ingest.sheet":            "INGEST_SHEET",
		"ingest.sender_contains":  "INGEST_SENDER_CONTAINS",
		"ingest.subject_contains": "INGEST_SUBJECT_CONTAINS",
		"ingest.max_per_run":      "INGEST_MAX_PER_RUN",
		"ingest.page_size":        "INGEST_PAGE_SIZE",

		// Export
		"export.label":            "EXPORT_LABEL",
		"export.folder_path":      "EXPORT_FOLDER_PATH",
		"export.log_sheet":        "EXPORT_LOG_SHEET",
		"export.sender_contains":  "EXPORT_SENDER_CONTAINS",
		"export.subject_contains": "EXPORT_SUBJECT_CONTAINS",
		"export.max_per_run":      "EXPORT_MAX_PER_RUN",
		"export.page_size":        "EXPORT_PAGE_SIZE",

		// Render
		"render.chrome_path":     "RENDER_CHROME_PATH",
		"render.render_timeout":  "RENDER_TIMEOUT",
		"render.max_image_bytes": "RENDER_MAX_IMAGE_BYTES",
		"render.max_url_length":  "RENDER_MAX_URL_LENGTH",
		"render.user_agent":      "RENDER_USER_AGENT",
		"render.fetch_timeout":   "RENDER_FETCH_TIMEOUT",

		"timezone":  "TIMEZONE",
		"dry_run":   "DRY_RUN",
		"log_level": "LOG_LEVEL",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "PURCHASE_ARCHIVER_"+envSuffix)
	}
}

// loadConfigFile loads configuration file if it exists
func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.purchase-archiver")
		v.SetConfigName("purchase-archiver")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return err
		}
	}

	return nil
}

// unmarshalConfig unmarshals Viper configuration into the Config struct
func unmarshalConfig(v *viper.Viper, config *Config) error {
	config.Google.ClientID = v.GetString("google.client_id")
	config.Google.ClientSecret = v.GetString("google.client_secret")
	config.Google.RefreshToken = v.GetString("google.refresh_token")
	config.Google.AccessToken = v.GetString("google.access_token")
	config.Google.TokenFile = v.GetString("google.token_file")
	config.Google.SpreadsheetID = v.GetString("google.spreadsheet_id")

	var err error
	config.Google.RequestTimeout, err = time.ParseDuration(v.GetString("google.request_timeout"))
	if err != nil {
		return fmt.Errorf("invalid google request timeout: %w", err)
	}

	config.Ingest.Label = v.GetString("ingest.label")
	config.Ingest.Sheet = v.GetString("ingest.sheet")
	config.Ingest.SenderContains = v.GetString("ingest.sender_contains")
	config.Ingest.SubjectContains = v.GetString("ingest.subject_contains")
	config.Ingest.MaxPerRun = v.GetInt("ingest.max_per_run")
	config.Ingest.PageSize = v.GetInt64("ingest.page_size")

	config.Export.Label = v.GetString("export.label")
	config.Export.FolderPath = v.GetString("export.folder_path")
	config.Export.LogSheet = v.GetString("export.log_sheet")
	config.Export.SenderContains = v.GetString("export.sender_contains")
	config.Export.SubjectContains = v.GetString("export.subject_contains")
	config.Export.MaxPerRun = v.GetInt("export.max_per_run")
	config.Export.PageSize = v.GetInt64("export.page_size")

	config.Render.ChromePath = v.GetString("render.chrome_path")
	config.Render.RenderTimeout, err = time.ParseDuration(v.GetString("render.render_timeout"))
	if err != nil {
		return fmt.Errorf("invalid render timeout: %w", err)
	}
	config.Render.MaxImageBytes = v.GetInt64("render.max_image_bytes")
	config.Render.MaxURLLength = v.GetInt("render.max_url_length")
	config.Render.UserAgent = v.GetString("render.user_agent")
	config.Render.FetchTimeout, err = time.ParseDuration(v.GetString("render.fetch_timeout"))
	if err != nil {
		return fmt.Errorf("invalid render fetch timeout: %w", err)
	}

	config.Timezone = v.GetString("timezone")
	config.DryRun = v.GetBool("dry_run")
	config.LogLevel = v.GetString("log_level")

	return nil
}

// Load loads configuration using a fresh Viper instance.
func Load() (*Config, error) {
	v := viper.New()
	return LoadWithViper(v)
}

// LoadWithFile loads configuration from a specific file.
func LoadWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadWithViper(v)
}

// LoadWithEnvFile loads configuration with .env file support.
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		LoadEnvFile(envFile)
	} else {
		LoadEnvFile(".env")
	}

	v := viper.New()
	return LoadWithViper(v)
}
