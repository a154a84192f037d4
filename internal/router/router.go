package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-todo-client/internal/config"
	"go-todo-client/internal/handler"
	"go-todo-client/internal/middleware"
	"go-todo-client/internal/model"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Todo  *handler.TodoHandler
	Admin *handler.AdminHandler
	// Health reports backing store readiness. Nil means always healthy.
	Health func(ctx context.Context) error
}

func New(cfg *config.ServerConfig, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if h.Health != nil {
			if err := h.Health(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/token", h.Auth.Login)
			auth.Post("/", h.Auth.Register)
		})

		api.Route("/user", func(user chi.Router) {
			user.Use(authMiddleware.RequireAuth)
			user.Get("/", h.User.Me)
			user.Put("/password", h.User.ChangePassword)
		})

		api.Route("/todos", func(todos chi.Router) {
			todos.Use(authMiddleware.RequireAuth)
			todos.Get("/", h.Todo.List)
			todos.Post("/todo", h.Todo.Create)
			todos.Put("/todo/{id}", h.Todo.Update)
			todos.Delete("/todo/{id}", h.Todo.Delete)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin))
			admin.Get("/todo", h.Admin.ListTodos)
			admin.Delete("/todo/{id}", h.Admin.DeleteTodo)
		})
	})

	return r
}
