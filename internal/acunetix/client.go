package acunetix

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/scanherald/scanherald/internal/model"
)

// apiPrefix is the versioned path every Acunetix v1 endpoint lives under.
const apiPrefix = "/api/v1"

// Client defaults. These mirror the configuration defaults so a bare
// New() is usable; cmd wires the configured values through the options.
const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 3
	defaultBackoffFactor = 0.3
	defaultUserAgent     = "scanherald/1.0 (+https://github.com/scanherald/scanherald)"

	// maxBackoff caps a single retry wait regardless of the attempt count.
	maxBackoff = 30 * time.Second

	// errorBodyLimit bounds how much of an error response body is kept
	// for the APIError message.
	errorBodyLimit = 512
)

// retryStatusCodes are the transient HTTP statuses worth retrying:
// request timeout, rate limiting, and server-side failures that tend to
// clear on their own. Everything else is a real answer from the service.
var retryStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Client talks to one Acunetix-compatible service.
//
// Design decision: We hold the API key and template ID in the client
// rather than passing them on each call because:
//  1. Every request needs the same X-Auth header
//  2. One run talks to exactly one service with one template
//  3. Call sites stay small: GenerateReport(ctx, targetID)
type Client struct {
	// baseURL is the normalized service URL. It always ends with /api/v1
	// and never with a slash.
	baseURL string

	// apiKey is sent as the X-Auth header on every request.
	apiKey string

	// templateID selects the report template for GenerateReport.
	templateID string

	// userAgent identifies this tool to the service.
	userAgent string

	// timeout bounds a single HTTP attempt, not the whole retry sequence.
	timeout time.Duration

	// maxRetries is the number of retries after the first attempt.
	maxRetries int

	// backoffFactor scales the exponential retry backoff, in seconds.
	backoffFactor float64

	// backoffBase is backoffFactor converted to a duration at build time.
	backoffBase time.Duration

	// insecureSkipVerify disables TLS certificate verification.
	insecureSkipVerify bool

	// logger records request and download outcomes; retryablehttp logs
	// its own retry decisions through it as well.
	logger *slog.Logger

	// httpClient is the inner HTTP client retryablehttp drives.
	httpClient *http.Client

	// retry is the retrying wrapper every request goes through.
	retry *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt HTTP timeout. The whole retry
// sequence may take longer. Ignored when WithHTTPClient supplies a
// pre-built client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets how many times a failed request is retried after
// the first attempt. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoffFactor sets the exponential backoff scale in seconds: the
// n-th retry waits factor * 2^n, capped at 30 seconds. Zero makes
// retries immediate.
func WithBackoffFactor(factor float64) Option {
	return func(c *Client) {
		c.backoffFactor = factor
	}
}

// WithTemplateID sets the report template used by GenerateReport.
func WithTemplateID(id string) Option {
	return func(c *Client) {
		c.templateID = id
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. This
// maps from the verify_ssl setting: scanning appliances commonly serve
// self-signed certificates. Ignored when WithHTTPClient supplies a
// pre-built client.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecureSkipVerify = skip
	}
}

// WithLogger sets the logger for request and download outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the inner HTTP client entirely. The retry
// policy and standard headers still apply on top of it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a client for the service at baseURL, authenticating every
// request with apiKey.
//
// The base URL is accepted with or without the /api/v1 suffix; both
// forms configure the same client. No connection is made here: the
// first request is the first contact with the service, which keeps
// construction usable in tests and before the appliance is reachable.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL:       normalizeBaseURL(baseURL),
		apiKey:        apiKey,
		userAgent:     defaultUserAgent,
		timeout:       defaultTimeout,
		maxRetries:    defaultMaxRetries,
		backoffFactor: defaultBackoffFactor,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	// A negative factor would produce negative waits; treat it as zero.
	if c.backoffFactor < 0 {
		c.backoffFactor = 0
	}
	c.backoffBase = time.Duration(c.backoffFactor * float64(time.Second))

	if c.httpClient == nil {
		transport := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: c.insecureSkipVerify, //nolint:gosec // mirrors the verify_ssl setting for self-signed appliances
				MinVersion:         tls.VersionTLS12,
			},
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.httpClient
	rc.RetryMax = c.maxRetries
	rc.RetryWaitMin = c.backoffBase
	rc.RetryWaitMax = maxBackoff
	rc.CheckRetry = c.checkRetry
	rc.Backoff = c.backoff
	// *slog.Logger satisfies retryablehttp.LeveledLogger, so retry
	// decisions land in the same redacted log as everything else.
	rc.Logger = c.logger
	c.retry = rc

	return c, nil
}

// normalizeBaseURL trims trailing slashes and pins the versioned API
// prefix so "https://host" and "https://host/api/v1/" configure the
// same client.
func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(raw, "/")
	if !strings.HasSuffix(base, apiPrefix) {
		base += apiPrefix
	}
	return base
}

// BaseURL returns the normalized service URL, including the /api/v1 prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// checkRetry is the retry policy: connection-level failures and the
// statuses in retryStatusCodes are retried, everything else is handed
// back to the caller immediately.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// Never retry past a cancelled or expired context.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return retryStatusCodes[resp.StatusCode], nil
}

// backoff grows the wait as backoffFactor * 2^attempt and never exceeds
// maxWait. attemptNum is zero-based, so the first retry waits exactly
// one backoffFactor.
func (c *Client) backoff(_, maxWait time.Duration, attemptNum int, _ *http.Response) time.Duration {
	wait := c.backoffBase << uint(attemptNum)
	if wait > maxWait || wait < 0 {
		return maxWait
	}
	return wait
}

// do issues one API request with the standard headers and decodes the
// JSON response into out when out is non-nil. Non-2xx responses and
// exhausted retries both surface as *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body any
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &APIError{Method: method, Endpoint: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		// Hand retryablehttp the bytes so it can rewind between attempts.
		body = raw
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Method: method, Endpoint: path, Err: err}
	}
	req.Header.Set("X-Auth", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.retry.Do(req)
	if err != nil {
		return &APIError{Method: method, Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &APIError{
			Method:     method,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Method: method, Endpoint: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// scansEnvelope mirrors the list endpoint response shape.
type scansEnvelope struct {
	Scans []model.Scan `json:"scans"`
}

// ListScans returns every scan the service reports, in service order.
// Filtering out processed or incomplete scans is the caller's concern.
func (c *Client) ListScans(ctx context.Context) ([]model.Scan, error) {
	var envelope scansEnvelope
	if err := c.do(ctx, http.MethodGet, "/scans", nil, &envelope); err != nil {
		return nil, err
	}
	c.logger.Debug("listed scans", "count", len(envelope.Scans))
	return envelope.Scans, nil
}

// GetScan returns the current state of a single scan.
func (c *Client) GetScan(ctx context.Context, scanID string) (*model.Scan, error) {
	if scanID == "" {
		return nil, ErrEmptyScanID
	}

	var scan model.Scan
	if err := c.do(ctx, http.MethodGet, "/scans/"+scanID, nil, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// reportRequest is the report generation payload. The service expects
// the source expressed as a target list even for a single target.
type reportRequest struct {
	TemplateID string       `json:"template_id"`
	Source     reportSource `json:"source"`
}

// reportSource names the targets a report covers.
type reportSource struct {
	ListType string   `json:"list_type"`
	IDList   []string `json:"id_list"`
}

// reportCreated mirrors the generation response shape.
type reportCreated struct {
	ReportID string `json:"report_id"`
}

// GenerateReport asks the service to render a report for the given
// target using the configured template and returns the new report ID
// for polling.
func (c *Client) GenerateReport(ctx context.Context, targetID string) (string, error) {
	if targetID == "" {
		return "", ErrEmptyTargetID
	}

	payload := reportRequest{
		TemplateID: c.templateID,
		Source: reportSource{
			ListType: "targets",
			IDList:   []string{targetID},
		},
	}

	var created reportCreated
	if err := c.do(ctx, http.MethodPost, "/reports", payload, &created); err != nil {
		return "", err
	}
	if created.ReportID == "" {
		return "", &APIError{Method: http.MethodPost, Endpoint: "/reports", Err: ErrNoReportID}
	}

	c.logger.Info("report generation requested", "target_id", targetID, "report_id", created.ReportID)
	return created.ReportID, nil
}

// GetReport returns the current state of a report. This is a single
// point-in-time read; polling cadence belongs to the caller.
func (c *Client) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	if reportID == "" {
		return nil, ErrEmptyReportID
	}

	var report model.Report
	if err := c.do(ctx, http.MethodGet, "/reports/"+reportID, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// deleteRequest is the bulk report deletion payload.
type deleteRequest struct {
	ReportIDList []string `json:"report_id_list"`
}

// DeleteReports removes rendered reports from the service. An empty
// list is a no-op, not an error. Downloaded artifacts stay on local
// disk; only the remote copies go away.
func (c *Client) DeleteReports(ctx context.Context, reportIDs []string) error {
	if len(reportIDs) == 0 {
		return nil
	}

	if err := c.do(ctx, http.MethodPost, "/reports/delete", deleteRequest{ReportIDList: reportIDs}, nil); err != nil {
		return err
	}
	c.logger.Info("remote reports deleted", "count", len(reportIDs))
	return nil
}

// DownloadReport fetches the artifact behind locator and streams it to
// destPath. It reports success with a bool: any transport, HTTP, or
// filesystem failure is logged and yields false, and no partial file is
// left behind.
func (c *Client) DownloadReport(ctx context.Context, locator, destPath string) bool {
	if locator == "" {
		c.logger.Error("report download has no locator", "path", destPath)
		return false
	}

	url := c.downloadURL(locator)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("building download request failed", "url", url, "error", err)
		return false
	}
	req.Header.Set("X-Auth", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.retry.Do(req)
	if err != nil {
		c.logger.Error("report download failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("report download failed", "url", url, "status", resp.StatusCode)
		return false
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		c.logger.Error("creating report file failed", "path", destPath, "error", err)
		return false
	}

	// Stream rather than buffer: report artifacts can be arbitrarily large.
	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(destPath) // never leave a truncated artifact behind
		c.logger.Error("report download interrupted", "path", destPath, "error", err)
		return false
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(destPath)
		c.logger.Error("closing report file failed", "path", destPath, "error", err)
		return false
	}

	c.logger.Info("report downloaded", "path", destPath, "bytes", written)
	return true
}

// downloadURL resolves a download locator against the configured base.
// Absolute locators are used as-is. Relative locators are joined under
// <root>/api/v1/ after stripping a duplicated /api/v1 from the locator,
// so "reports/abc/download" and "/api/v1/reports/abc/download" resolve
// to the same URL.
func (c *Client) downloadURL(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}

	root := strings.TrimSuffix(c.baseURL, apiPrefix)
	suffix := locator
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	suffix = strings.TrimPrefix(suffix, apiPrefix)
	return root + apiPrefix + suffix
}
