// Package rest serves the JSON endpoints of the post and the user service.
package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

const maxBody = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

type messageBody struct {
	Message string `json:"message"`
}

type statusBody struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return &model.ValidationError{Reason: "malformed JSON body"}
	}
	return nil
}

// pathID reads a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// errorMapper translates service errors into HTTP answers. notFound is the
// detail used for model.ErrNotFound on a given route.
type errorMapper struct {
	logger *slog.Logger
}

func (m errorMapper) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeDetail(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, model.ErrNotFound):
		writeDetail(w, http.StatusNotFound, notFound)
	case errors.Is(err, model.ErrConflict):
		writeDetail(w, http.StatusBadRequest, conflictDetail(err))
	case errors.Is(err, model.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, model.ErrTaskTimeout):
		writeDetail(w, http.StatusRequestTimeout, "Task Timeout: The request took too long to process.")
	case errors.Is(err, model.ErrUpstreamTimeout):
		writeDetail(w, http.StatusGatewayTimeout, "Post service request timed out")
	case errors.Is(err, model.ErrUpstreamUnavailable):
		writeDetail(w, http.StatusServiceUnavailable, "Post service unavailable")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the answer.
	default:
		m.logger.Error("HTTP_REQUEST_FAILED",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// conflictDetail keeps the service's wording, e.g. "email already
// registered" becomes "Email already registered".
func conflictDetail(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+model.ErrConflict.Error())
	if msg == "" || msg == model.ErrConflict.Error() {
		return "Already exists"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
