package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind discriminates the error cases every action normalizes into before
// anything is surfaced to the view layer.
type Kind string

const (
	// KindNetwork means no response was received at all.
	KindNetwork Kind = "network"
	// KindAPI is any 4xx/5xx that does not map to a more specific kind.
	KindAPI Kind = "api"
	// KindValidation is a 400 carrying field-level messages.
	KindValidation Kind = "validation"
	// KindUnauthorized covers a missing/expired token, detected locally
	// or via a 401 response.
	KindUnauthorized Kind = "unauthorized"
	// KindConflict is a 409, e.g. a duplicate like.
	KindConflict Kind = "conflict"
	// KindNotFound is a 404. Profile lookups treat it as a valid absence.
	KindNotFound Kind = "not_found"
)

// FieldError is one server-side validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// Error is the normalized form of every request failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a 404 result.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a 409 result.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// Messages flattens err into user-facing alert texts: one per validation
// message when the server returned a structured list, else the single
// fallback.
func Messages(err error, fallback string) []string {
	var apiErr *Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		msgs := make([]string, 0, len(apiErr.Fields))
		for _, f := range apiErr.Fields {
			msgs = append(msgs, f.Message)
		}
		return msgs
	}
	return []string{fallback}
}

// Unauthorized builds a local authorization failure that never hit the
// network, e.g. a mutation attempted without a persisted token.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// networkError wraps a transport failure where no response was received.
func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), cause: err}
}

// errorBody is the union of the error payload shapes the server produces:
// a bare message, a structured validation list, or (on register/login) a
// flat map of field name to message.
type errorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// normalizeError converts an HTTP error response into the taxonomy,
// preserving the server-provided message and validation details.
func normalizeError(status int, body []byte) *Error {
	e := &Error{Status: status, Message: http.StatusText(status)}

	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusConflict:
		e.Kind = KindConflict
	default:
		e.Kind = KindAPI
	}

	if len(body) == 0 {
		return e
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			e.Message = parsed.Message
		}
		if len(parsed.Errors) > 0 {
			e.Fields = parsed.Errors
		}
	}

	// Register/login validation failures arrive as {"field": "message"}.
	if status == http.StatusBadRequest && e.Fields == nil {
		var flat map[string]string
		if err := json.Unmarshal(body, &flat); err == nil {
			for field, msg := range flat {
				if msg != "" && field != "message" {
					e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
				}
			}
			sort.Slice(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
		}
	}

	if status == http.StatusBadRequest && len(e.Fields) > 0 {
		e.Kind = KindValidation
		if e.Message == http.StatusText(status) {
			msgs := make([]string, 0, len(e.Fields))
			for _, f := range e.Fields {
				msgs = append(msgs, f.Message)
			}
			e.Message = strings.Join(msgs, "; ")
		}
	}

	return e
}
