package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/livepeer/catalyst-api/log"
	"github.com/xeipuuv/gojsonschema"
)

type APIError struct {
	Msg    string `json:"message"`
	Status int    `json:"status"`
	Err    error  `json:"-"`
}

func writeHttpError(w http.ResponseWriter, msg string, status int, err error) APIError {
	w.WriteHeader(status)

	var errorDetail string
	if err != nil {
		errorDetail = err.Error()
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg, "error_detail": errorDetail}); err != nil {
		log.LogNoRequestID("error writing HTTP error", "http_error_msg", msg, "error", err)
	}
	return APIError{msg, status, err}
}

// HTTP Errors
func WriteHTTPUnauthorized(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusUnauthorized, err)
}

func WriteHTTPBadRequest(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusBadRequest, err)
}

func WriteHTTPNotFound(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusNotFound, err)
}

func WriteHTTPConflict(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusConflict, err)
}

func WriteHTTPInternalServerError(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusInternalServerError, err)
}

func WriteHTTPBadBodySchema(where string, w http.ResponseWriter, errs []gojsonschema.ResultError) APIError {
	sb := strings.Builder{}
	sb.WriteString("Body validation error in ")
	sb.WriteString(where)
	sb.WriteString(" ")
	for i := 0; i < len(errs); i++ {
		sb.WriteString(errs[i].String())
		sb.WriteString(" ")
	}
	return writeHttpError(w, sb.String(), http.StatusBadRequest, nil)
}

// WriteHTTPForKind maps a classified Kind to the appropriate HTTP status and
// writes the error response; used by the thin handlers in cmd/server.
func WriteHTTPForKind(w http.ResponseWriter, msg string, err error) APIError {
	switch {
	case IsNotFound(err):
		return WriteHTTPNotFound(w, msg, err)
	case IsInvalidStatus(err):
		return WriteHTTPConflict(w, msg, err)
	case errors.As(err, &validationError{}):
		return WriteHTTPBadRequest(w, msg, err)
	default:
		return WriteHTTPInternalServerError(w, msg, err)
	}
}

// Kind is one of the stable error-kind identifiers from the error taxonomy.
// Every provider adapter, storage gateway, and engine boundary classifies
// its failures into one of these before the error crosses a stage boundary.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindProviderTransient Kind = "provider_transient"
	KindProviderAuth      Kind = "provider_auth"
	KindProviderQuota     Kind = "provider_quota"
	KindContentPolicy     Kind = "content_policy"
	KindBadOutput         Kind = "bad_output"
	KindUploadFailed      Kind = "upload_failed"
	KindObjectNotVisible  Kind = "object_not_visible"
	KindTranscoderFailed  Kind = "transcoder_failed"
	KindInvalidStatus     Kind = "invalid_status"
	KindNotFound          Kind = "not_found"
	KindCancelled         Kind = "cancelled"
)

// KindedError carries a classified Kind alongside the underlying cause.
// Engines read Kind() off a returned error to decide retry/fallback/failure
// behavior without string-matching messages.
type KindedError struct {
	kind  Kind
	cause error
}

func New(kind Kind, cause error) error {
	if cause == nil {
		cause = errors.New(string(kind))
	}
	return &KindedError{kind: kind, cause: cause}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, fmt.Errorf(format, args...))
}

func (e *KindedError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *KindedError) Unwrap() error {
	return e.cause
}

func (e *KindedError) Kind() Kind {
	return e.kind
}

// KindOf extracts the Kind of err, defaulting to "" if err was never
// classified.
func KindOf(err error) Kind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool      { return Is(err, KindNotFound) }
func IsInvalidStatus(err error) bool { return Is(err, KindInvalidStatus) }
func IsContentPolicy(err error) bool { return Is(err, KindContentPolicy) }
func IsTimeout(err error) bool       { return Is(err, KindTimeout) }
func IsProviderQuota(err error) bool { return Is(err, KindProviderQuota) }
func IsBadOutput(err error) bool     { return Is(err, KindBadOutput) }
func IsCancelled(err error) bool     { return Is(err, KindCancelled) }

// Retriable reports whether an error of this kind should be retried by the
// kernel's with_retry, per spec.md §4.4: content_policy and bad_output are
// never retried here (higher layers handle them with prompt mutation);
// provider_quota is the caller's responsibility to retry at most once.
func Retriable(err error) bool {
	switch KindOf(err) {
	case KindContentPolicy, KindBadOutput, KindInvalidStatus, KindNotFound, KindCancelled, KindProviderAuth:
		return false
	default:
		return true
	}
}

// validationError marks a Kind-less error as a caller-input validation
// failure for the HTTP mapping in WriteHTTPForKind.
type validationError struct{ error }

func Validation(err error) error { return validationError{err} }

func (e validationError) Unwrap() error { return e.error }

// Special wrapper for errors that should never be retried regardless of
// kind classification, mirroring the teacher's UnretriableError wrapper.
type UnretriableError struct{ error }

func Unretriable(err error) error {
	return UnretriableError{err}
}

func (e UnretriableError) Unwrap() error {
	return e.error
}

func IsUnretriable(err error) bool {
	return errors.As(err, &UnretriableError{})
}

var ErrEmptyInput = New(KindBadOutput, errors.New("empty_input"))
