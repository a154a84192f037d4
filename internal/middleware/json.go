package middleware

import (
	"encoding/json"
	"net/http"

	"go-todo-client/internal/model"
)

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Detail: detail})
}
