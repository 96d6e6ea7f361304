// Package httptransport is the thin HTTP layer. Handlers decode and validate
// request bodies, delegate to the domain services, and render the response
// envelope; no business logic lives here.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "researchmatch/pkg/domain-errors"
)

// writeSuccess renders {"success":{"status":...,"message":...,<payload>}}.
func writeSuccess(w http.ResponseWriter, status int, message string, payload map[string]any) {
	body := map[string]any{"status": status, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": body})
}

// writeError renders {"error":{"status":...,"message":...}} from a domain
// error. Validation detail is the only internal information echoed back.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "SERVER_ERROR"
	var details []string

	var de *dErrors.Error
	if errors.As(err, &de) {
		status = dErrors.ToHTTPStatus(de.Code)
		message = de.Message
		details = de.Details
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	body := map[string]any{"status": status, "message": message}
	if len(details) > 0 {
		body["details"] = details
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": body})
}

// decodeJSON parses the request body into dst, reporting malformed input as a
// bad request.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "BAD_REQUEST")
	}
	return nil
}
