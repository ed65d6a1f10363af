package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/smartsport/internal/utils"
)

// Kind is the closed set of failure classes every backend call is reduced
// to. Pages branch on Kind, never on transport details.
type Kind int

const (
	KindBadRequest         Kind = iota + 1 // Validation failure, recoverable by re-displaying the form
	KindUnauthenticated                    // Missing, expired or invalid credential
	KindForbidden                          // Authenticated but not allowed
	KindNotFound                           // Resource absent
	KindServerError                        // Backend failure or unusable response
	KindNetworkUnreachable                 // No response received
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Safe-to-display messages used when the backend gives nothing better.
const (
	msgBadRequest      = "the submitted data is invalid"
	msgUnauthenticated = "your session has expired, please log in again"
	msgForbidden       = "you are not allowed to perform this action"
	msgNotFound        = "the requested resource was not found"
	msgServerError     = "the server encountered a problem, please try again later"
	msgNetwork         = "unable to reach the server, check your connection"
	msgTimeout         = "the server took too long to respond, check your connection and try again"
	msgBadResponse     = "the server sent an unexpected response, please try again later"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrBadRequest         = &Error{Kind: KindBadRequest, Message: msgBadRequest}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: msgUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: msgForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: msgNotFound}
	ErrServerError        = &Error{Kind: KindServerError, Message: msgServerError}
	ErrNetworkUnreachable = &Error{Kind: KindNetworkUnreachable, Message: msgNetwork}
)

// Error is the classified failure of a backend call. Message is always safe
// to show to the user; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind                `json:"kind"`
	Status  int                 `json:"status,omitempty"`  // HTTP status, 0 when no response was received
	Message string              `json:"message"`           // Human readable, safe to display
	Fields  map[string][]string `json:"fields,omitempty"`  // Field-level validation messages
	Method  string              `json:"-"`                 // Request method
	Path    string              `json:"-"`                 // Request path relative to the base URL
	Timeout bool                `json:"timeout,omitempty"` // The configured deadline expired
	Detail  string              `json:"-"`                 // Raw backend message when it was not displayed
	err     error
}

func (e *Error) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of a classified error, or 0 when err is not one.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// NewValidationError builds a BadRequest for checks done on the client
// before any request is sent, so callers handle local and remote
// validation the same way.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: firstFieldMessage(fields, msgBadRequest),
		Fields:  fields,
	}
}

// kindForStatus maps an HTTP status onto the taxonomy.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServerError
	case status >= 400:
		return KindBadRequest
	default:
		// 1xx and 3xx are not followed up by the client.
		return KindServerError
	}
}

// classify turns the outcome of one exchange into a classified error. A
// non-nil transport error means no response was received; a non-nil decode
// error means a 2xx body was unusable; otherwise status is not 2xx.
func classify(method, path string, status int, body []byte, transportErr, decodeErr error) *Error {
	switch {
	case transportErr != nil:
		return classifyTransport(method, path, transportErr)
	case decodeErr != nil:
		return classifyDecode(method, path, status, decodeErr)
	default:
		return classifyResponse(method, path, status, body)
	}
}

// classifyResponse normalizes a non-2xx response.
func classifyResponse(method, path string, status int, body []byte) *Error {
	kind := kindForStatus(status)
	message, fields := parseErrorBody(body)

	e := &Error{Kind: kind, Status: status, Method: method, Path: path, Fields: fields}
	switch kind {
	case KindBadRequest:
		e.Message = message
		if e.Message == "" {
			e.Message = firstFieldMessage(fields, msgBadRequest)
		}
	case KindUnauthenticated:
		e.Message = orDefault(message, msgUnauthenticated)
	case KindForbidden:
		e.Message = orDefault(message, msgForbidden)
	case KindNotFound:
		e.Message = orDefault(message, msgNotFound)
	default:
		// Backend exception text is not for end users.
		e.Message = msgServerError
		e.Detail = message
		e.Fields = nil
	}
	return e
}

// classifyTransport normalizes a failure where no response was received.
func classifyTransport(method, path string, err error) *Error {
	e := &Error{Kind: KindNetworkUnreachable, Method: method, Path: path, Message: msgNetwork, err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e.Timeout = true
		e.Message = msgTimeout
	}
	return e
}

// classifyDecode normalizes a 2xx response whose body could not be used.
func classifyDecode(method, path string, status int, err error) *Error {
	return &Error{Kind: KindServerError, Status: status, Method: method, Path: path, Message: msgBadResponse, err: err}
}

// parseErrorBody extracts a top-level message and field errors from the
// backend's loosely typed error bodies:
//
//	{"error": "..."} {"detail": "..."} {"message": "..."}
//	{"email": ["..."], "non_field_errors": ["..."]}
//	["..."]
func parseErrorBody(body []byte) (string, map[string][]string) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}

	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case []any:
		if msgs := utils.ToStringSlice(v); len(msgs) > 0 {
			return "", map[string][]string{"non_field_errors": msgs}
		}
		return "", nil
	case map[string]any:
		var message string
		for _, key := range []string{"error", "detail", "message"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				message = strings.TrimSpace(s)
				break
			}
		}
		fields := map[string][]string{}
		for key, value := range v {
			switch key {
			case "error", "detail", "message":
				continue
			}
			switch fv := value.(type) {
			case string:
				fields[key] = []string{fv}
			case []any:
				if msgs := utils.ToStringSlice(fv); len(msgs) > 0 {
					fields[key] = msgs
				}
			}
		}
		if len(fields) == 0 {
			fields = nil
		}
		return message, fields
	}
	return "", nil
}

// firstFieldMessage picks a deterministic field message for the summary.
// non_field_errors wins because it describes the whole form.
func firstFieldMessage(fields map[string][]string, fallback string) string {
	if msgs := fields["non_field_errors"]; len(msgs) > 0 {
		return msgs[0]
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return k + ": " + fields[k][0]
		}
	}
	return fallback
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
