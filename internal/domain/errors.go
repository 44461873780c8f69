package domain

import "fmt"

// ErrorType categorizes pipeline failures so callers can distinguish
// "denied" from "errored" without string matching.
type ErrorType int

const (
	// ErrTypeUnauthenticated indicates a missing or malformed credential.
	ErrTypeUnauthenticated ErrorType = iota

	// ErrTypeInvalidToken indicates signature, issuer, or audience
	// verification failed.
	ErrTypeInvalidToken

	// ErrTypeMalformedClaims indicates a verified token missing a
	// required claim.
	ErrTypeMalformedClaims

	// ErrTypeRepoNotAllowed indicates an authorization policy denial.
	ErrTypeRepoNotAllowed

	// ErrTypeQuotaExceeded indicates the per-repo daily quota is spent.
	ErrTypeQuotaExceeded

	// ErrTypeNoFilesToReview indicates nothing survived filtering.
	ErrTypeNoFilesToReview

	// ErrTypeRemoteReview indicates a non-success response from the
	// review service.
	ErrTypeRemoteReview

	// ErrTypeMalformedResponse indicates the review service responded
	// with something that is not parseable or not schema-conformant.
	ErrTypeMalformedResponse

	// ErrTypeConfigParse indicates the repo config could not be parsed.
	// Non-fatal: defaults are substituted and the pipeline continues.
	ErrTypeConfigParse

	// ErrTypeSourceControlAPI indicates a failed call to the
	// source-control host's API.
	ErrTypeSourceControlAPI

	// ErrTypeIdentityUnavailable indicates the execution environment does
	// not expose an identity token endpoint.
	ErrTypeIdentityUnavailable
)

// String returns a stable machine-readable code for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnauthenticated:
		return "unauthenticated"
	case ErrTypeInvalidToken:
		return "invalid_token"
	case ErrTypeMalformedClaims:
		return "malformed_claims"
	case ErrTypeRepoNotAllowed:
		return "repo_not_allowed"
	case ErrTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrTypeNoFilesToReview:
		return "no_files"
	case ErrTypeRemoteReview:
		return "remote_review_error"
	case ErrTypeMalformedResponse:
		return "malformed_response"
	case ErrTypeConfigParse:
		return "config_parse_error"
	case ErrTypeSourceControlAPI:
		return "source_control_api_error"
	case ErrTypeIdentityUnavailable:
		return "identity_unavailable"
	default:
		return "unknown"
	}
}

// Error is the pipeline's error currency. StatusCode and Detail carry
// the HTTP status and a body excerpt for remote failures.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Is matches errors of the same type, enabling errors.Is against a
// bare &Error{Type: ...} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewError creates an error of the given type.
func NewError(t ErrorType, format string, args ...any) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewRemoteError creates an error carrying an HTTP status and a truncated
// response body excerpt.
func NewRemoteError(t ErrorType, statusCode int, detail, format string, args ...any) *Error {
	const maxDetail = 2000
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}
	return &Error{
		Type:       t,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// IsFatal reports whether an error of this type aborts the invocation.
// Config parse errors are absorbed with defaults; everything else in the
// taxonomy is fatal to the current run.
func (e *Error) IsFatal() bool {
	return e.Type != ErrTypeConfigParse
}
