package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-todo-client/internal/middleware"
	"go-todo-client/internal/model"
	"go-todo-client/internal/service"
	"go-todo-client/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, model.ErrorResponse{Detail: detail})
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeDetail(w, http.StatusUnprocessableEntity, validationErr.Issues)
		return
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus != 0 {
		if apiErr.HTTPStatus == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeDetail(w, apiErr.HTTPStatus, apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, model.ErrTaskNotFound):
		writeDetail(w, http.StatusNotFound, "Todo not found")
	case errors.Is(err, model.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, model.ErrUserAlreadyExists):
		writeDetail(w, http.StatusConflict, "Username already registered")
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate user.")
	case errors.Is(err, model.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Authentication Failed")
	case errors.Is(err, model.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, "Invalid input")
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
		writeDetail(w, http.StatusInternalServerError, "Unexpected server error")
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeDetail(w, http.StatusBadRequest, message)
}

// decodeJSON reads a JSON body into dst, reporting malformed input as a 422
// issue on the body itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []model.ValidationIssue{{
			Loc:  []any{"body"},
			Msg:  "JSON decode error",
			Type: "json_invalid",
		}})
		return false
	}
	return true
}

func claimsFrom(w http.ResponseWriter, r *http.Request) (*model.AuthClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, []model.ValidationIssue{{
			Loc:  []any{"path", "todo_id"},
			Msg:  "Input should be greater than 0",
			Type: "greater_than",
		}})
		return 0, false
	}
	return id, true
}
