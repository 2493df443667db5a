package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/validator"
)

const defaultSuccessMessage = "Request processed successfully"

type errorResponse struct {
	Message string            `json:"message" example:"Wrong OTP"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"OTP sent"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// Response payloads may implement these to shape the envelope.
type (
	messager interface{ Message() string }
	metaer   interface{ Meta() map[string]any }
	statuser interface{ StatusCode() int }
)

// writeError renders err as {message,error}. Errors that are not a
// *goerror.Error never leak their text.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}

	var verr validator.V10ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Values()
	case len(gerr.Fields()) > 0:
		resp.Error = gerr.Fields()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

// writeSuccess renders resp as {message,data,meta}. A nil payload is 204.
func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if s, ok := resp.(statuser); ok {
		code = s.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(messager); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(metaer); ok {
		out.Meta = m.Meta()
	}

	writeJSON(w, out, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
