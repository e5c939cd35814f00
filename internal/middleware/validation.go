package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/Candide-27/credit-risk-modeling/internal/errors"
)

// Validator decodes and validates request bodies using struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// ValidateStruct validates v and returns the validator errors unchanged so
// that the error handler can report every failing field
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// DecodeJSON decodes the request body into dst and validates it. Malformed
// JSON is reported as an invalid request; oversized bodies keep their
// *http.MaxBytesError.
func (v *Validator) DecodeJSON(r *http.Request, dst interface{}) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request body is empty")
		}
		return apierrors.InvalidRequestWithError(err)
	}
	return v.ValidateStruct(dst)
}

// ContentTypeValidator ensures requests with a body have an allowed content type
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				writeProblem(w, http.StatusBadRequest, apierrors.TypeValidation,
					"Missing Content-Type", "Content-Type header is required", traceIDOf(r.Context()))
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeProblem(w, http.StatusUnsupportedMediaType, apierrors.TypeUnsupportedMedia,
				"Unsupported Media Type",
				fmt.Sprintf("Unsupported content type %q, expected one of %s", contentType, strings.Join(contentTypes, ", ")),
				traceIDOf(r.Context()))
		})
	}
}
