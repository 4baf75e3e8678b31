// Package errs defines the error kinds shared by the ingestion, search and HTTP layers
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for handling and for the HTTP status it maps to
type Kind uint8

const (
	// KindUnknown is for unclassified errors
	KindUnknown Kind = iota

	// KindValidation is for malformed input rejected before any I/O
	KindValidation

	// KindNotFound is for a missing corpus or record
	KindNotFound

	// KindUpstream is for failures of the comment source; fatal to one ingestion
	KindUpstream

	// KindEnrichment is for failures of the optional classification service
	KindEnrichment
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindEnrichment:
		return "enrichment"
	default:
		return "unknown"
	}
}

// Error carries a kind, the failing operation and an optional cause
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound reports an absent record
func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// Upstream wraps a comment source failure
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

// Enrichment wraps a classification service failure
func Enrichment(op string, err error) error {
	return &Error{Kind: KindEnrichment, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing part of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

// HTTPStatus maps err to a response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindEnrichment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
