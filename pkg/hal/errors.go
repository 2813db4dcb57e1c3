package hal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Argument errors returned before any request is sent.
// Static errors for err113 compliance.
var (
	ErrMissingPositionalArgument  = errors.New("missing positional argument")
	ErrTooManyPositionalArguments = errors.New("too many positional arguments")
	ErrNotContainer               = errors.New("operand is not a container")
	ErrInvalidSlice               = errors.New("slice step cannot be zero")
	ErrIndexOutOfRange            = errors.New("index out of range")
	ErrNoMorePages                = errors.New("no more pages")
	ErrUnknownAffordance          = errors.New("unknown affordance")
	ErrUnknownResource            = errors.New("unknown resource")
	ErrNoInvoker                  = errors.New("affordance has no invoker")
)

// Configuration and authentication errors.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrEndpointRequired    = errors.New("endpoint or host is required")
	ErrCredentialsRequired = errors.New("private key, token or refresh function is required")
	ErrTokenRefreshFailed  = errors.New("token refresh failed")
	ErrNoTokenRefresher    = errors.New("token expired and no refresh function is configured")
	ErrSkipTLSOnlyInDev    = errors.New("skip TLS verification is only allowed in development mode")
)

// Transport error kinds. A TransportError unwraps to exactly one of these.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrNotAcceptable        = errors.New("not acceptable")
	ErrGone                 = errors.New("gone")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrTeapot               = errors.New("i'm a teapot")
	ErrAuthTimeout          = errors.New("authentication timeout")
	ErrServerError          = errors.New("internal server error")
	ErrTransport            = errors.New("transport error")
)

var statusKinds = map[int]error{
	http.StatusBadRequest:           ErrBadRequest,
	http.StatusUnauthorized:         ErrUnauthorized,
	http.StatusForbidden:            ErrForbidden,
	http.StatusNotFound:             ErrNotFound,
	http.StatusMethodNotAllowed:     ErrMethodNotAllowed,
	http.StatusNotAcceptable:        ErrNotAcceptable,
	http.StatusGone:                 ErrGone,
	http.StatusUnsupportedMediaType: ErrUnsupportedMediaType,
	http.StatusTeapot:               ErrTeapot,
	constants.StatusAuthTimeout:     ErrAuthTimeout,
	http.StatusInternalServerError:  ErrServerError,
}

// KindForStatus returns the error kind registered for an HTTP status code,
// or ErrTransport for codes without a dedicated kind.
func KindForStatus(status int) error {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}

	return ErrTransport
}

// ErrorPayload is the structured error body returned by the service.
type ErrorPayload struct {
	Code    int    `json:"code,omitempty"    yaml:"code,omitempty"`
	Title   string `json:"title,omitempty"   yaml:"title,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Error implements the error interface.
func (p *ErrorPayload) Error() string {
	switch {
	case p.Title != "" && p.Message != "":
		return fmt.Sprintf("%s: %s (code: %d)", p.Title, p.Message, p.Code)
	case p.Message != "":
		return fmt.Sprintf("%s (code: %d)", p.Message, p.Code)
	default:
		return fmt.Sprintf("%s (code: %d)", p.Title, p.Code)
	}
}

// ParseErrorPayload extracts an ErrorPayload from a response body. Both a
// bare object and one nested under "error" are accepted. It returns nil when
// the body carries no recognizable error fields.
func ParseErrorPayload(body []byte) *ErrorPayload {
	var envelope struct {
		ErrorPayload

		Nested *ErrorPayload `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	payload := envelope.ErrorPayload
	if envelope.Nested != nil {
		payload = *envelope.Nested
	}

	if payload.Code == 0 && payload.Title == "" && payload.Message == "" {
		return nil
	}

	return &payload
}

// TransportError describes a failed request. It unwraps to its Kind and, when
// present, to the underlying Cause.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Payload    *ErrorPayload
	Kind       error
	Cause      error
}

// NewTransportError builds a TransportError for a completed request with a
// non-success status.
func NewTransportError(method, url string, status int, body []byte) *TransportError {
	return &TransportError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Payload:    ParseErrorPayload(body),
		Kind:       KindForStatus(status),
	}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	var builder strings.Builder

	builder.WriteString(e.Method)
	builder.WriteString(" ")
	builder.WriteString(e.URL)

	if e.StatusCode != 0 {
		fmt.Fprintf(&builder, ": %d", e.StatusCode)

		if text := http.StatusText(e.StatusCode); text != "" {
			builder.WriteString(" ")
			builder.WriteString(text)
		}
	} else if e.Kind != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Kind.Error())
	}

	if e.Payload != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Payload.Error())
	}

	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the error kind and cause.
func (e *TransportError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// IsNotFound reports whether err is a 404 transport error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is an authentication failure, including
// a failed token refresh.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether err is a 403 transport error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsServerError reports whether err is a 500 transport error.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}

	return 0
}
