package acunetix

import (
	"errors"
	"fmt"
)

// Client construction and argument errors.
//
// Design decision: We validate arguments before issuing any request and
// return specific sentinel errors rather than letting the service answer
// with a misleading 404. Callers can tell "nothing was passed" apart from
// "the service rejected the request" with errors.Is().
var (
	// ErrNoBaseURL is returned by New when the service URL is empty.
	ErrNoBaseURL = errors.New("no service url: the client needs the scanning service base URL")

	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("no api key: the client needs an X-Auth credential")

	// ErrEmptyScanID is returned when a scan lookup is requested without a scan ID.
	ErrEmptyScanID = errors.New("empty scan id")

	// ErrEmptyTargetID is returned when report generation is requested
	// without a target ID. The service would accept the request and
	// generate an empty report, which is worse than failing here.
	ErrEmptyTargetID = errors.New("empty target id")

	// ErrEmptyReportID is returned when a report lookup is requested without a report ID.
	ErrEmptyReportID = errors.New("empty report id")

	// ErrNoReportID is returned when report generation succeeds on the
	// wire but the response carries no report_id to poll afterwards.
	ErrNoReportID = errors.New("report generation response contains no report id")
)

// APIError describes a request the service refused, or a transport
// failure that survived every retry. StatusCode is zero when the failure
// never produced an HTTP response.
//
// Design decision: One error type for all request failures keeps the
// call sites uniform: the engine logs the failure and skips the scan
// regardless of whether the cause was a 401 or a dead connection. The
// fields exist so logs and tests can still tell the cases apart.
type APIError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// Endpoint is the API path of the failed request, without the base URL.
	Endpoint string

	// StatusCode is the final HTTP status, or zero for transport failures.
	StatusCode int

	// Body holds a snippet of the error response body, when one existed.
	Body string

	// Err is the underlying transport or decode error, when one existed.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("acunetix: %s %s returned %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("acunetix: %s %s returned %d", e.Method, e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("acunetix: %s %s failed: %v", e.Method, e.Endpoint, e.Err)
	}
}

// Unwrap returns the underlying error so errors.Is and errors.As can
// reach through APIError to the cause.
func (e *APIError) Unwrap() error { return e.Err }
