package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how the engine must react to it.
type Kind string

const (
	KindValidation            Kind = "VALIDATION"
	KindInsufficientLiquidity Kind = "INSUFFICIENT_LIQUIDITY"
	KindConfiguration         Kind = "CONFIGURATION"
	KindSubmission            Kind = "SUBMISSION"
	KindTimeout               Kind = "TIMEOUT"
	KindRace                  Kind = "RACE"
	KindStorage               Kind = "STORAGE"
	KindNotFound              Kind = "NOT_FOUND"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindInternal              Kind = "INTERNAL"
)

// AppError is a structured error carrying its kind and an HTTP mapping for the admin API.
type AppError struct {
	Code       string `json:"error_code"`
	Kind       Kind   `json:"-"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, kind Kind, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must abort the enclosing cycle.
// Only configuration and storage failures qualify.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindConfiguration, KindStorage:
		return true
	default:
		return false
	}
}

// ---- Invoice eligibility (INV) ----

func ErrInvalidInvoice(reason string) *AppError {
	return New("INV_001", KindValidation, reason, http.StatusBadRequest)
}

func ErrInsufficientLiquidity(ticker, domain string) *AppError {
	return New("INV_002", KindInsufficientLiquidity,
		fmt.Sprintf("insufficient liquidity for %s on domain %s", ticker, domain), http.StatusConflict)
}

// ---- Configuration (CFG) ----

func ErrMissingAsset(ticker, domain string) *AppError {
	return New("CFG_001", KindConfiguration,
		fmt.Sprintf("no asset address configured for ticker %s on domain %s", ticker, domain), http.StatusInternalServerError)
}

func ErrUnknownBridge(kind string) *AppError {
	return New("CFG_002", KindConfiguration,
		fmt.Sprintf("no bridge adapter registered for %q", kind), http.StatusInternalServerError)
}

func ErrMissingChain(domain string) *AppError {
	return New("CFG_003", KindConfiguration,
		fmt.Sprintf("no chain client configured for domain %s", domain), http.StatusInternalServerError)
}

// ---- Submission (SUB) ----

func ErrSubmissionFailed(err error) *AppError {
	return Wrap("SUB_001", KindSubmission, "Transaction submission failed", http.StatusBadGateway, err)
}

func ErrUpstream(service string, err error) *AppError {
	return Wrap("SUB_002", KindSubmission, fmt.Sprintf("%s request failed", service), http.StatusBadGateway, err)
}

// ---- Earmarks & operations (REB) ----

func ErrDuplicateEarmark(invoiceID string) *AppError {
	return New("REB_001", KindRace,
		fmt.Sprintf("active earmark already exists for invoice %s", invoiceID), http.StatusConflict)
}

func ErrInvalidTransition(from, to string) *AppError {
	return New("REB_002", KindValidation,
		fmt.Sprintf("invalid status transition %s -> %s", from, to), http.StatusConflict)
}

func ErrTimeout(message string) *AppError {
	return New("REB_003", KindTimeout, message, http.StatusGatewayTimeout)
}

// ErrEarmarkChanged reports that an earmark left the expected status
// before a transition could be applied.
func ErrEarmarkChanged(id, expected string) *AppError {
	return New("REB_005", KindRace,
		fmt.Sprintf("earmark %s is no longer %s", id, expected), http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("REB_004", KindNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", KindUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", KindStorage, "Storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps an unexpected error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", KindInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SYS_003", KindValidation, message, http.StatusBadRequest)
}

// ErrRateLimitExceeded rejects an admin request over its window budget.
func ErrRateLimitExceeded() *AppError {
	return New("SYS_004", KindValidation, "Rate limit exceeded", http.StatusTooManyRequests)
}
