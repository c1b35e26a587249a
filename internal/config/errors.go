package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoServiceURL is returned when the scanning service URL is missing.
	// Without it no API call can be made, so there is no useful fallback.
	ErrNoServiceURL = errors.New("no scanning service url: set acunetix.url in the config file")

	// ErrInvalidServiceURL is returned when the scanning service URL is not
	// an absolute http or https URL.
	ErrInvalidServiceURL = errors.New("invalid scanning service url: must be an absolute http(s) URL")

	// ErrNoAPIKey is returned when the scanning service API key is missing.
	ErrNoAPIKey = errors.New("no api key: set acunetix.api_key in the config file")

	// ErrNoReportTemplate is returned when the report template id is empty.
	ErrNoReportTemplate = errors.New("no report template: set acunetix.report_template_id in the config file")

	// ErrInvalidReportTemplate is returned when the report template id is
	// not a UUID. The service rejects non-UUID template ids with an opaque
	// 400, so this is caught upfront.
	ErrInvalidReportTemplate = errors.New("invalid report template: acunetix.report_template_id must be a UUID")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	// Zero disables retries; negative values are meaningless.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidBackoffFactor is returned when the backoff factor is negative.
	ErrInvalidBackoffFactor = errors.New("invalid backoff factor: must be non-negative")

	// ErrNoSMTPServer is returned when the mail server hostname is missing.
	ErrNoSMTPServer = errors.New("no smtp server: set email.smtp_server in the config file")

	// ErrInvalidSMTPPort is returned when the mail server port is out of range.
	ErrInvalidSMTPPort = errors.New("invalid smtp port: must be between 1 and 65535")

	// ErrNoSMTPUsername is returned when the mail account username is missing.
	ErrNoSMTPUsername = errors.New("no smtp username: set email.username in the config file")

	// ErrNoSMTPPassword is returned when the mail account password is missing.
	ErrNoSMTPPassword = errors.New("no smtp password: set email.password in the config file")

	// ErrNoRecipients is returned when no notification recipients are
	// configured. A run with nobody to notify would download reports and
	// then retry the same scans forever.
	ErrNoRecipients = errors.New("no recipients: set email.recipients in the config file")

	// ErrNoReportsDir is returned when the reports directory is empty.
	ErrNoReportsDir = errors.New("no reports directory: set paths.reports_dir in the config file")

	// ErrNoProcessedFile is returned when the processed-scans file path is empty.
	ErrNoProcessedFile = errors.New("no processed file: set paths.processed_file in the config file")

	// ErrInvalidReportRetries is returned when the report poll count is not positive.
	// At least one poll is needed to ever observe a completed report.
	ErrInvalidReportRetries = errors.New("invalid report_max_retries: must be positive")

	// ErrInvalidRetryDelay is returned when the report poll delay is negative.
	// Use 0 for no delay between polls.
	ErrInvalidRetryDelay = errors.New("invalid report_retry_delay: must be non-negative")

	// ErrInvalidScanChecks is returned when the scan check count is not positive.
	ErrInvalidScanChecks = errors.New("invalid scan_max_checks: must be positive")

	// ErrInvalidScanDelay is returned when the scan check delay is negative.
	ErrInvalidScanDelay = errors.New("invalid scan_check_delay: must be non-negative")

	// ErrInvalidFileExtension is returned when the report file extension is
	// empty or contains path characters. The extension lands in filenames,
	// so separators and dots are rejected outright.
	ErrInvalidFileExtension = errors.New("invalid report_file_extension: must be a bare extension without dots or separators")
)
