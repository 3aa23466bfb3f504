package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped only when the envelope shape itself changes.
const envelopeVersion = 1

// envelope is the uniform JSON wrapper around every API response body.
// Success responses carry data; failures carry a flat error string plus
// optional machine-readable code and details.
type envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the shared
// envelope so clients parse one shape regardless of endpoint.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}, nil
	}

	return &envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
