package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/http/response"
)

// successEnvelope wraps every successful huma response body.
type successEnvelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// errorEnvelope wraps APIError bodies. Error duplicates Message for clients
// that only read the short form.
type errorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma.Transformer that puts every response body in
// the same {v, success, data|error} shape that package response writes.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return errorEnvelope{
			Version: response.Version,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}
	return successEnvelope{Version: response.Version, Success: true, Data: v}, nil
}
