package httperr

import "errors"

// Kind classifies an error for boundary mapping. Kinds Validation,
// Conflict and InvalidState are expected business outcomes and are always
// returned to the caller. Busy is retried internally a bounded number of
// times before being surfaced.
type Kind int

const (
	KindAuthentication Kind = iota + 1 // no valid principal
	KindAuthorization                  // role not admitted
	KindValidation                     // structural violation
	KindConflict                       // scheduling conflict
	KindInvalidState                   // transition out of a terminal status
	KindBusy                           // lock or transaction contention
	KindNotFound                       // target record does not exist
	KindInternal                       // everything else
)

type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Field-scoped validation messages, keyed by input field.
	Fields map[string]string

	// Structured payload for the response body (e.g. the per-axis
	// conflict map). Never carries clinical content.
	Details any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotAuthenticated() *Error {
	return New(KindAuthentication, "not_authenticated", "Authentication required.")
}

// Denied deliberately carries a generic message: it must not reveal which
// roles would have been admitted.
func Denied() *Error {
	return New(KindAuthorization, "forbidden", "You do not have permission to perform this action.")
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func ValidationFields(code string, fields map[string]string) *Error {
	e := New(KindValidation, code, "Validation failed.")
	e.Fields = fields
	return e
}

func Conflict(code, message string, details any) *Error {
	e := New(KindConflict, code, message)
	e.Details = details
	return e
}

func InvalidState(message string) *Error {
	return New(KindInvalidState, "invalid_state", message)
}

func NotFoundErr(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Busy() *Error {
	return New(KindBusy, "busy", "Resource is busy, please retry.")
}

func Internal() *Error {
	return New(KindInternal, "internal_error", "An internal error occurred.")
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
