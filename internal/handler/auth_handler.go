package handler

import (
	"net/http"
	"strings"

	"go-todo-client/internal/model"
	"go-todo-client/internal/service"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login exchanges OAuth2 password-form credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		var issues []model.ValidationIssue
		for _, field := range [][2]string{{"username", username}, {"password", password}} {
			if field[1] == "" {
				issues = append(issues, model.ValidationIssue{Loc: []any{"body", field[0]}, Msg: "Field required", Type: "missing"})
			}
		}
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	tokens, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.SignupRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	tokens, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokens)
}
