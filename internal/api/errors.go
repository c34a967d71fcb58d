package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

// RegisterErrorHandler makes huma build domain errors for its own failures
// (request validation, unknown routes, panics), so every error body carries
// a domain code. Domain errors passed through keep their code and details.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		details := make(map[string]string)
		for _, err := range errs {
			if err == nil {
				continue
			}
			var de *domainerrors.Error
			if errors.As(err, &de) {
				return de
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return domainerrors.Unavailable(err)
			}
			var detailer huma.ErrorDetailer
			if errors.As(err, &detailer) {
				if d := detailer.ErrorDetail(); d != nil {
					details[d.Location] = d.Message
				}
			}
		}

		e := &domainerrors.Error{Code: statusToCode(status), Message: message}
		if len(details) > 0 {
			e.Details = details
		}
		return e
	}
}

// statusToCode maps the statuses huma raises on its own to domain codes.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	case http.StatusServiceUnavailable:
		return domainerrors.CodeUnavailable
	default:
		return domainerrors.CodeInternal
	}
}
