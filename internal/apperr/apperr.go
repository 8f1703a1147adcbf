// Package apperr defines the error kinds a lead run can fail with.
// Components return *Error values; the orchestrator turns them into a
// failed ProcessingResult and the API maps kinds to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindMalformedLead means a required identity field is missing.
	KindMalformedLead
	// KindModelNotTrained means no model artifact is loaded.
	KindModelNotTrained
	// KindIntegration wraps transport or HTTP failures of a collaborator.
	KindIntegration
	// KindCampaignSubscriptionFailed tags a failed campaign subscription.
	KindCampaignSubscriptionFailed
	// KindEmailSequenceCreationFailed tags a failed email sequence creation.
	KindEmailSequenceCreationFailed
)

func (k Kind) String() string {
	switch k {
	case KindMalformedLead:
		return "MalformedLead"
	case KindModelNotTrained:
		return "ModelNotTrained"
	case KindIntegration:
		return "IntegrationError"
	case KindCampaignSubscriptionFailed:
		return "CampaignSubscriptionFailed"
	case KindEmailSequenceCreationFailed:
		return "EmailSequenceCreationFailed"
	default:
		return "Unknown"
	}
}

// HTTPStatus returns the status code the API answers with for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMalformedLead:
		return http.StatusBadRequest
	case KindModelNotTrained:
		return http.StatusServiceUnavailable
	case KindIntegration, KindCampaignSubscriptionFailed, KindEmailSequenceCreationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed failure.
type Error struct {
	Kind    Kind
	Op      string // operation that failed (optional)
	Message string
	Err     error // underlying error (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithOp sets the operation name and returns the same error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func MalformedLead(message string) *Error {
	return New(KindMalformedLead, message)
}

func ModelNotTrained(message string) *Error {
	return New(KindModelNotTrained, message)
}

func Integration(message string, err error) *Error {
	return Wrap(KindIntegration, message, err)
}

// GetKind returns the kind of the outermost *Error in the chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any *Error in the chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// ParseKind is the inverse of Kind.String; unrecognised tags map to KindUnknown.
func ParseKind(s string) Kind {
	for k := KindMalformedLead; k <= KindEmailSequenceCreationFailed; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}
