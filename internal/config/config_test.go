package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate, for tests to
// break one field at a time.
func validConfig() *Config {
	cfg := NewConfig()
	cfg.Acunetix.URL = "https://scanner.example.com/api/v1"
	cfg.Acunetix.APIKey = "1986ad8c0a5b3df4d7028d5f3c06e936"
	cfg.Email.SMTPServer = "smtp.example.com"
	cfg.Email.Username = "scanner@example.com"
	cfg.Email.Password = "hunter2"
	cfg.Email.Recipients = []string{"security@example.com"}
	return cfg
}

// TestNewConfigDefaults tests that NewConfig sets the documented defaults.
func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Acunetix.Timeout.Duration() != 30*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.Acunetix.Timeout.Duration())
	}
	if cfg.Acunetix.MaxRetries != 3 {
		t.Errorf("unexpected max retries: %d", cfg.Acunetix.MaxRetries)
	}
	if cfg.Acunetix.BackoffFactor != 0.3 {
		t.Errorf("unexpected backoff factor: %v", cfg.Acunetix.BackoffFactor)
	}
	if cfg.Acunetix.VerifySSL {
		t.Error("expected VerifySSL to default to false")
	}
	if cfg.Acunetix.ReportTemplateID != DefaultReportTemplateID {
		t.Errorf("unexpected template id: %q", cfg.Acunetix.ReportTemplateID)
	}
	if cfg.Email.SMTPPort != 587 {
		t.Errorf("unexpected smtp port: %d", cfg.Email.SMTPPort)
	}
	if !cfg.Email.UseTLS {
		t.Error("expected UseTLS to default to true")
	}
	if cfg.Settings.ReportMaxRetries != 10 {
		t.Errorf("unexpected report max retries: %d", cfg.Settings.ReportMaxRetries)
	}
	if cfg.Settings.ReportRetryDelay.Duration() != 10*time.Second {
		t.Errorf("unexpected report retry delay: %v", cfg.Settings.ReportRetryDelay.Duration())
	}
	if cfg.Settings.ScanMaxChecks != 10 {
		t.Errorf("unexpected scan max checks: %d", cfg.Settings.ScanMaxChecks)
	}
	if cfg.Settings.ScanCheckDelay.Duration() != time.Hour {
		t.Errorf("unexpected scan check delay: %v", cfg.Settings.ScanCheckDelay.Duration())
	}
	if cfg.Settings.WaitForRunning {
		t.Error("expected WaitForRunning to default to false")
	}
	if cfg.Settings.ReportFileExtension != "html" {
		t.Errorf("unexpected report file extension: %q", cfg.Settings.ReportFileExtension)
	}
	if cfg.Paths.ReportsDir == "" || cfg.Paths.ProcessedFile == "" || cfg.Paths.HistoryDir == "" {
		t.Error("expected all default paths to be non-empty")
	}
}

// TestConfigValidate tests that Validate returns the matching sentinel error
// for each broken field, and nil for a valid configuration.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing service url",
			mutate:  func(c *Config) { c.Acunetix.URL = "" },
			wantErr: ErrNoServiceURL,
		},
		{
			name:    "service url without scheme",
			mutate:  func(c *Config) { c.Acunetix.URL = "scanner.example.com" },
			wantErr: ErrInvalidServiceURL,
		},
		{
			name:    "service url with unsupported scheme",
			mutate:  func(c *Config) { c.Acunetix.URL = "ftp://scanner.example.com" },
			wantErr: ErrInvalidServiceURL,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Acunetix.APIKey = "" },
			wantErr: ErrNoAPIKey,
		},
		{
			name:    "missing report template",
			mutate:  func(c *Config) { c.Acunetix.ReportTemplateID = "" },
			wantErr: ErrNoReportTemplate,
		},
		{
			name:    "report template is not a UUID",
			mutate:  func(c *Config) { c.Acunetix.ReportTemplateID = "developer-template" },
			wantErr: ErrInvalidReportTemplate,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Acunetix.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative max retries",
			mutate:  func(c *Config) { c.Acunetix.MaxRetries = -1 },
			wantErr: ErrInvalidMaxRetries,
		},
		{
			name:    "negative backoff factor",
			mutate:  func(c *Config) { c.Acunetix.BackoffFactor = -0.5 },
			wantErr: ErrInvalidBackoffFactor,
		},
		{
			name:    "missing smtp server",
			mutate:  func(c *Config) { c.Email.SMTPServer = "" },
			wantErr: ErrNoSMTPServer,
		},
		{
			name:    "smtp port out of range",
			mutate:  func(c *Config) { c.Email.SMTPPort = 70000 },
			wantErr: ErrInvalidSMTPPort,
		},
		{
			name:    "missing smtp username",
			mutate:  func(c *Config) { c.Email.Username = "" },
			wantErr: ErrNoSMTPUsername,
		},
		{
			name:    "missing smtp password",
			mutate:  func(c *Config) { c.Email.Password = "" },
			wantErr: ErrNoSMTPPassword,
		},
		{
			name:    "no recipients",
			mutate:  func(c *Config) { c.Email.Recipients = nil },
			wantErr: ErrNoRecipients,
		},
		{
			name:    "missing reports dir",
			mutate:  func(c *Config) { c.Paths.ReportsDir = "" },
			wantErr: ErrNoReportsDir,
		},
		{
			name:    "missing processed file",
			mutate:  func(c *Config) { c.Paths.ProcessedFile = "" },
			wantErr: ErrNoProcessedFile,
		},
		{
			name:    "zero report retries",
			mutate:  func(c *Config) { c.Settings.ReportMaxRetries = 0 },
			wantErr: ErrInvalidReportRetries,
		},
		{
			name:    "negative report retry delay",
			mutate:  func(c *Config) { c.Settings.ReportRetryDelay = Duration(-time.Second) },
			wantErr: ErrInvalidRetryDelay,
		},
		{
			name:    "zero scan checks",
			mutate:  func(c *Config) { c.Settings.ScanMaxChecks = 0 },
			wantErr: ErrInvalidScanChecks,
		},
		{
			name:    "negative scan check delay",
			mutate:  func(c *Config) { c.Settings.ScanCheckDelay = Duration(-time.Minute) },
			wantErr: ErrInvalidScanDelay,
		},
		{
			name:    "empty file extension",
			mutate:  func(c *Config) { c.Settings.ReportFileExtension = "" },
			wantErr: ErrInvalidFileExtension,
		},
		{
			name:    "file extension with separator",
			mutate:  func(c *Config) { c.Settings.ReportFileExtension = "html/.." },
			wantErr: ErrInvalidFileExtension,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, expected %v", err, tc.wantErr)
			}
		})
	}
}

// TestEmailFromAddress tests the From fallback to Username.
func TestEmailFromAddress(t *testing.T) {
	t.Parallel()

	t.Run("explicit from wins", func(t *testing.T) {
		t.Parallel()

		email := Email{Username: "login@example.com", From: "reports@example.com"}
		if got := email.FromAddress(); got != "reports@example.com" {
			t.Errorf("got %q, expected %q", got, "reports@example.com")
		}
	})

	t.Run("falls back to username", func(t *testing.T) {
		t.Parallel()

		email := Email{Username: "login@example.com"}
		if got := email.FromAddress(); got != "login@example.com" {
			t.Errorf("got %q, expected %q", got, "login@example.com")
		}
	})
}

// TestXDGDirs tests that the XDG helpers build paths under the app name.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("expected data dir to end with %q, got %q", AppName, XDGDataDir())
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("expected config dir to end with %q, got %q", AppName, XDGConfigDir())
	}
}
