package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/catalog"
	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/project"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// writeFailure maps an error to its response. Unclassified errors are
// backend failures: logged, then answered with 500 and the message.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *project.ValidationError
		ue *factor.UnresolvedError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "Validation failed", ve.Error())
	case errors.As(err, &ue):
		writeError(w, http.StatusBadRequest, "Unknown factor names", ue.Error())
	case eris.Is(err, project.ErrNotFound):
		writeError(w, http.StatusNotFound, "Project not found", "")
	case eris.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found", "")
	default:
		zap.L().Error("api: request failed",
			zap.String("request_id", requestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
