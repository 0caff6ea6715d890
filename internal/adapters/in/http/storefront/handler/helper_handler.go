// internal/adapters/in/http/storefront/handler/helper_handler.go
package storefrontHandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/middleware"
	sfquery "storefront/internal/application/query/storefront"
	usecase "storefront/internal/application/usecase"
	categorydom "storefront/internal/domain/category"
	productdom "storefront/internal/domain/product"
)

const maxBodyBytes = 1 << 16

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg)
}

// statusOf maps application errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, sfquery.ErrNotFound),
		errors.Is(err, productdom.ErrNotFound),
		errors.Is(err, categorydom.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrCartInvalidArgument),
		errors.Is(err, productdom.ErrInvalidID),
		errors.Is(err, categorydom.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, sfquery.ErrStale):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeAppErr writes err with its mapped status. Nothing is written when the
// client has already gone away.
func writeAppErr(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if r.Context().Err() != nil {
		log.Debug("client gone", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}
	code := statusOf(err)
	switch code {
	case http.StatusNotFound:
		writeErr(w, code, "not_found")
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeErr(w, code, err.Error())
	default:
		writeErr(w, code, err.Error())
	}
}

// decodeJSON reads a small JSON body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid json: " + err.Error())
	}
	return nil
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(middleware.SessionIDFromContext(r.Context()))
}
