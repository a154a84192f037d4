package handler

import (
	"net/http"

	"go-todo-client/internal/service"
)

// AdminHandler serves the moderation endpoints. Routes are expected to sit
// behind RequireRoles(admin).
type AdminHandler struct {
	service *service.TodoService
}

func NewAdminHandler(service *service.TodoService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *AdminHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAny(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
