package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

// EnvelopeVersion is bumped whenever the envelope shape changes.
const EnvelopeVersion = 1

// Envelope wraps every JSON response body.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps handler output and
// errors in an Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if _, ok := v.(*Envelope); ok {
		return v, nil
	}

	var de *domainerrors.Error
	if err, ok := v.(error); ok {
		if errors.As(err, &de) {
			return &Envelope{
				V:       EnvelopeVersion,
				Error:   de.Message,
				Code:    string(de.Code),
				Message: de.Message,
				Details: de.Details,
			}, nil
		}
		return &Envelope{
			V:       EnvelopeVersion,
			Error:   err.Error(),
			Code:    string(domainerrors.CodeInternal),
			Message: err.Error(),
		}, nil
	}

	return &Envelope{V: EnvelopeVersion, Success: true, Data: v}, nil
}
