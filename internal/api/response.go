package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/drazba/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response failed", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathInt parses a numeric path value.
func pathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// writeStoreError maps the store's error kinds to HTTP statuses. Anything
// else is logged and reported as a failure to do what.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	var (
		notFound *store.NotFoundError
		conflict *store.ConflictError
		invalid  *store.InvalidInputError
		pre      *store.PreconditionError
		tooLow   *store.BidTooLowError
	)
	switch {
	case errors.As(err, &tooLow):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   tooLow.Error(),
			"minimum": tooLow.Minimum,
		})
	case errors.As(err, &pre):
		jsonResponse(w, http.StatusPreconditionFailed, map[string]any{
			"error": pre.Error(),
			"code":  pre.Code,
		})
	case errors.As(err, &conflict):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     conflict.Error(),
			"conflicts": conflict.Conflicts,
		})
	case errors.As(err, &notFound):
		body := map[string]any{"error": notFound.Error()}
		if len(notFound.IDs) > 0 {
			body["missing"] = notFound.IDs
		}
		jsonResponse(w, http.StatusNotFound, body)
	case errors.As(err, &invalid):
		jsonError(w, http.StatusBadRequest, invalid.Error())
	default:
		slog.Error("failed to "+what, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+what)
	}
}
