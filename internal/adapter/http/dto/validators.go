package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"solver-rebalancer/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("earmark_status", validateEarmarkStatus)
		_ = v.RegisterValidation("operation_status", validateOperationStatus)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

func validateEarmarkStatus(fl validator.FieldLevel) bool {
	for _, s := range SplitList(fl.Field().String()) {
		switch domain.EarmarkStatus(s) {
		case domain.EarmarkStatusInitiating, domain.EarmarkStatusPending, domain.EarmarkStatusReady,
			domain.EarmarkStatusCompleted, domain.EarmarkStatusCancelled, domain.EarmarkStatusExpired:
		default:
			return false
		}
	}
	return true
}

func validateOperationStatus(fl validator.FieldLevel) bool {
	for _, s := range SplitList(fl.Field().String()) {
		switch domain.OperationStatus(s) {
		case domain.OperationStatusPending, domain.OperationStatusAwaitingCallback,
			domain.OperationStatusCompleted, domain.OperationStatusFailed, domain.OperationStatusExpired:
		default:
			return false
		}
	}
	return true
}

// SplitList splits a comma-separated query value, upper-casing and dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			if elem := f.Elem(); elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
