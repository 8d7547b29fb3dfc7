package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed set of error categories a page may see.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindNetwork
	KindServer
)

func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindServer:
		return "SERVER_ERROR"
	}
	return "UNKNOWN"
}

func (k Kind) String() string {
	return k.Code()
}

// Error carries a user-displayable message plus a machine code and status.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Details any
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() string {
	return e.Kind.Code()
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindNetwork}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

func NotFound(resource, id string) *Error {
	msg := resource + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s with id %s not found", resource, id)
	}
	return &Error{Kind: KindNotFound, Message: msg, Status: http.StatusNotFound}
}

func Validation(message string, details ...any) *Error {
	e := &Error{Kind: KindValidation, Message: message, Status: http.StatusBadRequest}
	if len(details) == 1 {
		e.Details = details[0]
	} else if len(details) > 1 {
		e.Details = details
	}
	return e
}

func Network(message string) *Error {
	if message == "" {
		message = "Network request failed"
	}
	return &Error{Kind: KindNetwork, Message: message, Status: 0}
}

func Server(message string, status int) *Error {
	if message == "" {
		message = "Internal server error"
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: KindServer, Message: message, Status: status}
}

// Wrap attaches a cause to e and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}

func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return 0
}

// IsNotFound reports a NotFound error or a 404 surfaced as a Validation error.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && (appErr.Kind == KindNotFound || appErr.Status == http.StatusNotFound)
}

var networkHints = []string{"fetch", "connection refused", "no such host", "timeout", "network"}

func looksLikeNetwork(msg string) bool {
	lower := strings.ToLower(msg)
	for _, hint := range networkHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// Translate applies the service-layer decision table. Validation and NotFound
// errors come back untouched; everything else is re-classified with the
// operation context attached to the message.
func Translate(err error, resource, context string) error {
	if err == nil {
		return nil
	}
	appErr, ok := As(err)
	if ok && (appErr.Kind == KindValidation || appErr.Kind == KindNotFound) {
		return err
	}

	msg := err.Error()
	if (ok && appErr.Kind == KindNetwork) || (!ok && looksLikeNetwork(msg)) {
		return Network(fmt.Sprintf("Failed to %s: %s", context, msg)).Wrap(err)
	}

	status := 0
	if ok {
		status = appErr.Status
	}
	switch {
	case status == http.StatusNotFound:
		return NotFound(resource, context).Wrap(err)
	case status >= 400 && status < 500:
		return Validation("Invalid request: " + msg).Wrap(err)
	case status >= 500:
		return Server(fmt.Sprintf("Server error while %s: %s", context, msg), status).Wrap(err)
	}
	return Server(fmt.Sprintf("Unexpected error while %s: %s", context, msg), http.StatusInternalServerError).Wrap(err)
}

// UserMessage returns the message to show on a page, or fallback when empty.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
