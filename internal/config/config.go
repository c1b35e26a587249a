package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
)

// Default configuration values.
// These values match the defaults of the scanning service deployments this
// tool is typically pointed at, and are deliberately conservative for an
// unattended batch job.
const (
	// DefaultTimeout is the per-request timeout for scanning service calls.
	// 30 seconds is generous for JSON endpoints; report downloads stream
	// and are bounded by their own transfer, not this value.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is how many times a failed request is retried.
	// Three retries rides out the short outages a nightly run tends to hit
	// (service restarts, brief network blips) without stalling for long.
	DefaultMaxRetries = 3

	// DefaultBackoffFactor is the base, in seconds, of the exponential
	// retry backoff: factor * 2^attempt. 0.3 gives 0.3s, 0.6s, 1.2s.
	DefaultBackoffFactor = 0.3

	// DefaultReportTemplateID is the service's built-in "Developer" report
	// template, a reasonable default for engineering-facing reports.
	DefaultReportTemplateID = "11111111-1111-1111-1111-111111111111"

	// DefaultUserAgent identifies scanherald in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify this tool's traffic in service logs.
	DefaultUserAgent = "scanherald/1.0 (+https://github.com/scanherald/scanherald)"

	// DefaultSMTPPort is the submission port with STARTTLS.
	DefaultSMTPPort = 587

	// DefaultReportMaxRetries is how many times report readiness is polled
	// before the scan is given up for this run. Combined with
	// DefaultReportRetryDelay this waits at most ~100 seconds per report,
	// which covers typical report generation times.
	DefaultReportMaxRetries = 10

	// DefaultReportRetryDelay is the pause between report readiness polls.
	DefaultReportRetryDelay = 10 * time.Second

	// DefaultScanMaxChecks is how many times a running scan is re-checked
	// when wait_for_running is enabled.
	DefaultScanMaxChecks = 10

	// DefaultScanCheckDelay is the pause between scan completion checks
	// when wait_for_running is enabled. Scans run for hours, so polling
	// faster than hourly only burns API calls.
	DefaultScanCheckDelay = 1 * time.Hour

	// DefaultReportFileExtension is the artifact extension for downloaded
	// reports. The default report templates render HTML.
	DefaultReportFileExtension = "html"

	// AppName is the application name used for XDG directory paths.
	AppName = "scanherald"
)

// Config holds all configuration options for scanherald.
//
// Design decision: unlike a flat flag-driven configuration, the options are
// grouped into sub-structs mirroring the sections of the YAML config file
// (acunetix, email, paths, settings), because the file is the primary
// interface; CLI flags only locate the file. The grouping keeps related
// options together and the YAML readable.
type Config struct {
	// Acunetix configures the connection to the scanning service.
	Acunetix Acunetix `yaml:"acunetix"`

	// Email configures notification delivery.
	Email Email `yaml:"email"`

	// Paths configures where artifacts and state live on disk.
	Paths Paths `yaml:"paths"`

	// Settings configures run behavior and polling cadence.
	Settings Settings `yaml:"settings"`
}

// Acunetix holds the scanning service connection settings.
type Acunetix struct {
	// URL is the base URL of the scanning service API, with or without
	// the /api/v1 suffix (both forms are normalized by the client).
	URL string `yaml:"url"`

	// APIKey is the service API key, sent as the X-Auth header.
	APIKey string `yaml:"api_key"`

	// ReportTemplateID selects the report template (a UUID).
	ReportTemplateID string `yaml:"report_template_id"`

	// VerifySSL enables TLS certificate verification. It defaults to false
	// because the scanning service appliances this tool targets almost
	// always run on self-signed certificates.
	VerifySSL bool `yaml:"verify_ssl"`

	// Timeout is the per-request timeout.
	Timeout Duration `yaml:"timeout"`

	// MaxRetries is how many times a retryable request failure is retried.
	MaxRetries int `yaml:"max_retries"`

	// BackoffFactor is the exponential backoff base in seconds.
	BackoffFactor float64 `yaml:"backoff_factor"`

	// UserAgent overrides the User-Agent header when set.
	UserAgent string `yaml:"user_agent"`
}

// Email holds the SMTP notification settings.
type Email struct {
	// Username authenticates against the SMTP server. It doubles as the
	// sender address when From is not set.
	Username string `yaml:"username"`

	// Password authenticates against the SMTP server.
	Password string `yaml:"password"`

	// From is the sender address. Defaults to Username when empty.
	From string `yaml:"from"`

	// Recipients are the notification addressees.
	Recipients []string `yaml:"recipients"`

	// SMTPServer is the mail server hostname.
	SMTPServer string `yaml:"smtp_server"`

	// SMTPPort is the mail server port.
	SMTPPort int `yaml:"smtp_port"`

	// UseTLS requires STARTTLS on the SMTP connection. When false the
	// connection still upgrades opportunistically if the server offers it.
	UseTLS bool `yaml:"use_tls"`
}

// FromAddress returns the sender address: From when set, Username otherwise.
func (e *Email) FromAddress() string {
	if e.From != "" {
		return e.From
	}
	return e.Username
}

// Paths holds the filesystem locations scanherald writes to.
type Paths struct {
	// ReportsDir is where downloaded report artifacts are stored.
	ReportsDir string `yaml:"reports_dir"`

	// ProcessedFile is the JSON file recording which scan ids have already
	// been delivered. Losing it means scans are reported again, never lost.
	ProcessedFile string `yaml:"processed_file"`

	// HistoryDir is the directory holding the delivery-history database.
	HistoryDir string `yaml:"history_dir"`
}

// Settings holds run behavior options.
type Settings struct {
	// ScanCheckDelay is the pause between completion checks for a running
	// scan. Only used when WaitForRunning is enabled.
	ScanCheckDelay Duration `yaml:"scan_check_delay"`

	// ScanMaxChecks bounds the completion checks for a running scan.
	ScanMaxChecks int `yaml:"scan_max_checks"`

	// ReportMaxRetries bounds the report readiness polls per scan.
	ReportMaxRetries int `yaml:"report_max_retries"`

	// ReportRetryDelay is the pause between report readiness polls.
	ReportRetryDelay Duration `yaml:"report_retry_delay"`

	// WaitForRunning makes the run block on scans that are still running
	// instead of skipping them until the next run. Off by default: a cron
	// cadence picks completed scans up naturally.
	WaitForRunning bool `yaml:"wait_for_running"`

	// CleanupRemoteReports deletes generated reports from the service
	// after a successful notification, keeping the service tidy.
	CleanupRemoteReports bool `yaml:"cleanup_remote_reports"`

	// ReportFileExtension is the filename extension for downloaded
	// artifacts, without the leading dot.
	ReportFileExtension string `yaml:"report_file_extension"`
}

// NewConfig creates a new Config with default values.
// All fields that have sensible defaults are set; the service URL, API key,
// and email credentials have none and must come from the config file.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, ports).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Acunetix: Acunetix{
			ReportTemplateID: DefaultReportTemplateID,
			Timeout:          Duration(DefaultTimeout),
			MaxRetries:       DefaultMaxRetries,
			BackoffFactor:    DefaultBackoffFactor,
			UserAgent:        DefaultUserAgent,
		},
		Email: Email{
			SMTPPort: DefaultSMTPPort,
			UseTLS:   true,
		},
		Paths: Paths{
			ReportsDir:    filepath.Join(XDGDataDir(), "reports"),
			ProcessedFile: filepath.Join(XDGDataDir(), "processed_scans.json"),
			HistoryDir:    XDGDataDir(),
		},
		Settings: Settings{
			ScanCheckDelay:      Duration(DefaultScanCheckDelay),
			ScanMaxChecks:       DefaultScanMaxChecks,
			ReportMaxRetries:    DefaultReportMaxRetries,
			ReportRetryDelay:    Duration(DefaultReportRetryDelay),
			ReportFileExtension: DefaultReportFileExtension,
		},
	}
}

// XDGDataDir returns the XDG data directory for scanherald.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/scanherald
// On macOS: ~/Library/Application Support/scanherald
// On Windows: %LOCALAPPDATA%\scanherald
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for scanherald.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/scanherald
// On macOS: ~/Library/Application Support/scanherald
// On Windows: %APPDATA%\scanherald
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after loading, before any service calls are made.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Acunetix.URL == "" {
		return ErrNoServiceURL
	}
	if u, err := url.Parse(c.Acunetix.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServiceURL
	}
	if c.Acunetix.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Acunetix.ReportTemplateID == "" {
		return ErrNoReportTemplate
	}
	// Template ids are UUIDs; catching a mangled one here beats a cryptic
	// 400 from the service mid-run.
	if _, err := uuid.Parse(c.Acunetix.ReportTemplateID); err != nil {
		return ErrInvalidReportTemplate
	}
	if c.Acunetix.Timeout.Duration() <= 0 {
		return ErrInvalidTimeout
	}
	if c.Acunetix.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Acunetix.BackoffFactor < 0 {
		return ErrInvalidBackoffFactor
	}

	if c.Email.SMTPServer == "" {
		return ErrNoSMTPServer
	}
	if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
		return ErrInvalidSMTPPort
	}
	if c.Email.Username == "" {
		return ErrNoSMTPUsername
	}
	if c.Email.Password == "" {
		return ErrNoSMTPPassword
	}
	if len(c.Email.Recipients) == 0 {
		return ErrNoRecipients
	}

	if c.Paths.ReportsDir == "" {
		return ErrNoReportsDir
	}
	if c.Paths.ProcessedFile == "" {
		return ErrNoProcessedFile
	}

	if c.Settings.ReportMaxRetries <= 0 {
		return ErrInvalidReportRetries
	}
	if c.Settings.ReportRetryDelay.Duration() < 0 {
		return ErrInvalidRetryDelay
	}
	if c.Settings.ScanMaxChecks <= 0 {
		return ErrInvalidScanChecks
	}
	if c.Settings.ScanCheckDelay.Duration() < 0 {
		return ErrInvalidScanDelay
	}
	ext := c.Settings.ReportFileExtension
	if ext == "" || strings.ContainsAny(ext, "./\\") {
		return ErrInvalidFileExtension
	}

	return nil
}
