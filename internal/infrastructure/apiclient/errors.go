package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// User-facing messages, bucketed by failure class.
const (
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgForbidden      = "You do not have permission to perform this action."
	MsgNotFound       = "The requested resource was not found."
	MsgInvalid        = "The submitted data is invalid."
	MsgServer         = "Something went wrong on our end. Please try again later."
	MsgNetwork        = "Unable to reach the server. Check your connection and try again."
	MsgUnexpected     = "The server returned an unexpected response."
)

// Error is the normalized failure returned by every Client call. Kind is one
// of the domain sentinels, so errors.Is(err, domain.ErrNotFound) works on it.
type Error struct {
	Op      string
	Kind    error
	Status  int // 0 when no response was received
	Message string
	Fields  map[string][]string

	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Status, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// IsAuthError reports whether the failure means the session is no longer
// authenticated.
func (e *Error) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized || errors.Is(e.Kind, domain.ErrAuthentication)
}

// ShouldRetry reports whether repeating the call may succeed: no response,
// a timeout, or a server-side failure.
func (e *Error) ShouldRetry() bool {
	return errors.Is(e.Kind, domain.ErrNetwork) || e.Status >= http.StatusInternalServerError
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserMessage returns the message to show for err, whatever its type.
func UserMessage(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return MsgUnexpected
}

// IsRetryable reports whether err is a *Error that should be retried.
func IsRetryable(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.ShouldRetry()
}

func networkError(op string, cause error) *Error {
	return &Error{Op: op, Kind: domain.ErrNetwork, Message: MsgNetwork, cause: cause}
}

func unexpectedError(op string, status int, cause error) *Error {
	return &Error{Op: op, Kind: domain.ErrUnexpectedResponse, Status: status, Message: MsgUnexpected, cause: cause}
}

// errorBody covers the shapes the backend uses for failures. errors is
// either a map of field to messages or a list of {field, message}.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// statusError builds the normalized error for a non-2xx response.
func statusError(op string, status int, body []byte) *Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	serverMsg := parsed.Message
	if serverMsg == "" {
		serverMsg = parsed.Error
	}

	e := &Error{Op: op, Status: status}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = domain.ErrAuthentication, MsgSessionExpired
	case status == http.StatusForbidden:
		e.Kind, e.Message = domain.ErrAuthorization, MsgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = domain.ErrNotFound, MsgNotFound
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		e.Kind = domain.ErrValidation
		e.Fields = parseFields(parsed.Errors)
		e.Message = joinFields(e.Fields)
		if e.Message == "" {
			e.Message = firstNonEmpty(serverMsg, MsgInvalid)
		}
	case status >= http.StatusInternalServerError:
		e.Kind, e.Message = domain.ErrServer, MsgServer
	default:
		e.Kind = domain.ErrUnexpectedResponse
		e.Message = firstNonEmpty(serverMsg, fmt.Sprintf("Request failed (status %d).", status))
	}
	return e
}

func parseFields(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}

	var byField map[string][]string
	if err := json.Unmarshal(raw, &byField); err == nil && len(byField) > 0 {
		return byField
	}

	var single map[string]string
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		out := make(map[string][]string, len(single))
		for k, v := range single {
			out[k] = []string{v}
		}
		return out
	}

	var list []fieldError
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		out := make(map[string][]string, len(list))
		for _, fe := range list {
			out[fe.Field] = append(out[fe.Field], fe.Message)
		}
		return out
	}
	return nil
}

func joinFields(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msgs := strings.Join(fields[name], ", ")
		if name == "" {
			parts = append(parts, msgs)
			continue
		}
		parts = append(parts, name+": "+msgs)
	}
	return strings.Join(parts, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// UserMessage returns the message safe to show to the end user.
func (e *Error) UserMessage() string { return e.Message }
