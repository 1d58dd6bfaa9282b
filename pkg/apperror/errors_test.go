package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("INV_001", KindValidation, "bad invoice", http.StatusBadRequest),
			expected: "[INV_001] bad invoice",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", KindStorage, "Storage failure", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] Storage failure: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := ErrStorage(inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, ErrInvalidToken().Unwrap())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("cycle: %w", ErrMissingAsset("0xabc", "10"))

	assert.Equal(t, KindConfiguration, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.True(t, IsKind(ErrDuplicateEarmark("inv-1"), KindRace))
	assert.False(t, IsKind(nil, KindRace))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"missing asset", ErrMissingAsset("0xabc", "1"), true},
		{"unknown bridge", ErrUnknownBridge("across"), true},
		{"storage", ErrStorage(errors.New("tx aborted")), true},
		{"wrapped storage", fmt.Errorf("sweep: %w", ErrStorage(errors.New("x"))), true},
		{"submission", ErrSubmissionFailed(errors.New("nonce too low")), false},
		{"race", ErrDuplicateEarmark("inv-1"), false},
		{"lost status race", ErrEarmarkChanged("e-1", "PENDING"), false},
		{"validation", ErrInvalidInvoice("owned by solver"), false},
		{"liquidity", ErrInsufficientLiquidity("0xabc", "1"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		kind       Kind
		httpStatus int
	}{
		{"InvalidInvoice", ErrInvalidInvoice("x"), "INV_001", KindValidation, 400},
		{"InsufficientLiquidity", ErrInsufficientLiquidity("t", "1"), "INV_002", KindInsufficientLiquidity, 409},
		{"MissingAsset", ErrMissingAsset("t", "1"), "CFG_001", KindConfiguration, 500},
		{"UnknownBridge", ErrUnknownBridge("b"), "CFG_002", KindConfiguration, 500},
		{"MissingChain", ErrMissingChain("1"), "CFG_003", KindConfiguration, 500},
		{"SubmissionFailed", ErrSubmissionFailed(nil), "SUB_001", KindSubmission, 502},
		{"Upstream", ErrUpstream("hub", nil), "SUB_002", KindSubmission, 502},
		{"DuplicateEarmark", ErrDuplicateEarmark("i"), "REB_001", KindRace, 409},
		{"InvalidTransition", ErrInvalidTransition("READY", "PENDING"), "REB_002", KindValidation, 409},
		{"Timeout", ErrTimeout("x"), "REB_003", KindTimeout, 504},
		{"NotFound", ErrNotFound("Earmark"), "REB_004", KindNotFound, 404},
		{"EarmarkChanged", ErrEarmarkChanged("e", "PENDING"), "REB_005", KindRace, 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_001", KindUnauthorized, 401},
		{"Storage", ErrStorage(nil), "SYS_001", KindStorage, 500},
		{"Internal", InternalError(nil), "SYS_002", KindInternal, 500},
		{"Validation", Validation("bad"), "SYS_003", KindValidation, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}
