package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go-todo-client/internal/model"
)

func (c *Client) Login(ctx context.Context, username string, password string) (model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	body, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/token", Form: form})
	if err != nil {
		return model.TokenResponse{}, err
	}

	return decode[model.TokenResponse](body, "login response")
}

// Signup registers an account. Servers that do not log the new account in
// answer with the created user; the returned TokenResponse is then empty.
func (c *Client) Signup(ctx context.Context, request model.SignupRequest) (model.TokenResponse, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/", Body: request})
	if err != nil {
		return model.TokenResponse{}, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return model.TokenResponse{}, nil
	}

	return decode[model.TokenResponse](body, "signup response")
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/user/", Auth: true})
	if err != nil {
		return model.User{}, err
	}

	return decode[model.User](body, "user")
}

// ChangePassword leaves the session alone on a 401: the server uses that
// status for a wrong current password as well as for a dead token.
func (c *Client) ChangePassword(ctx context.Context, request model.PasswordChangeRequest) error {
	_, err := c.Do(ctx, Request{
		Method:                    http.MethodPut,
		Path:                      "/user/password",
		Body:                      request,
		Auth:                      true,
		KeepSessionOnUnauthorized: true,
	})
	return err
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/todos/", Auth: true})
	if err != nil {
		return nil, err
	}

	return decodeTasks(body)
}

func (c *Client) CreateTask(ctx context.Context, request model.TaskRequest) (model.Task, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/todos/todo", Body: request, Auth: true})
	if err != nil {
		return model.Task{}, err
	}

	return decode[model.Task](body, "created task")
}

// UpdateTask sends the full record. It returns the server's copy when the
// response carries one, nil when the server answers with an empty body.
func (c *Client) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodPut, Path: taskPath("/todos/todo", task.ID), Body: task, Auth: true})
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	updated, err := decode[model.Task](body, "updated task")
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: taskPath("/todos/todo", id), Auth: true})
	return err
}

func (c *Client) ListAllTasks(ctx context.Context) ([]model.Task, error) {
	body, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/todo", Auth: true})
	if err != nil {
		return nil, err
	}

	return decodeTasks(body)
}

func (c *Client) DeleteAnyTask(ctx context.Context, id int64) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: taskPath("/admin/todo", id), Auth: true})
	return err
}

func decodeTasks(body []byte) ([]model.Task, error) {
	tasks, err := decode[[]model.Task](body, "task list")
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func taskPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
