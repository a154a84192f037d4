package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-todo-client/internal/model"
	"go-todo-client/pkg/apierror"
)

const (
	MinPasswordLength = 6

	changedMessage  = "Password changed successfully"
	rejectedMessage = "Password change failed. Please check your current password."
)

type API interface {
	CurrentUser(ctx context.Context) (model.User, error)
	ChangePassword(ctx context.Context, request model.PasswordChangeRequest) error
}

type Outcome int

const (
	Changed Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	if o == Changed {
		return "changed"
	}
	return "rejected"
}

// Field names the form input a rejection points at.
type Field int

const (
	FieldNone Field = iota
	FieldCurrent
	FieldNew
)

// PasswordResult is what a password change attempt produced when the
// server could be asked. Rejected means the input named by Field should be
// corrected and resubmitted.
type PasswordResult struct {
	Outcome Outcome
	Message string
	Field   Field
}

type Flow struct {
	api    API
	logger *slog.Logger
}

func NewFlow(api API, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{api: api, logger: logger}
}

// FetchSelf returns the identity behind the active credential. The result
// is not cached.
func (f *Flow) FetchSelf(ctx context.Context) (model.User, error) {
	return f.api.CurrentUser(ctx)
}

// ChangePassword asks the server to replace the password. The active
// credential stays valid either way. A returned error means the attempt could
// not be judged (no session, server unreachable); a Rejected result means the
// server judged it and said no.
func (f *Flow) ChangePassword(ctx context.Context, current string, next string) (PasswordResult, error) {
	if current == "" {
		return PasswordResult{Outcome: Rejected, Message: "Current password is required", Field: FieldCurrent}, nil
	}
	if len(next) < MinPasswordLength {
		return PasswordResult{Outcome: Rejected, Message: "New password must be at least 6 characters", Field: FieldNew}, nil
	}

	err := f.api.ChangePassword(ctx, model.PasswordChangeRequest{Password: current, NewPassword: next})
	if err == nil {
		f.logger.Info("password changed")
		return PasswordResult{Outcome: Changed, Message: changedMessage}, nil
	}

	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		return PasswordResult{}, err
	}

	switch {
	case apiErr.Code == apierror.CodeValidationRejected:
		field := FieldCurrent
		if strings.Contains(apiErr.Details, "new_password") {
			field = FieldNew
		}
		return PasswordResult{Outcome: Rejected, Message: rejectedWith(apiErr.Details), Field: field}, nil
	case apiErr.Code == apierror.CodeUnauthenticated && apiErr.HTTPStatus == http.StatusUnauthorized:
		return f.disambiguate(ctx, apiErr)
	default:
		return PasswordResult{}, err
	}
}

// disambiguate decides what a 401 from the password endpoint meant. The
// server answers a wrong current password with the same status as a dead
// token, so the token is checked on its own; a failed check ends the session.
func (f *Flow) disambiguate(ctx context.Context, original *apierror.APIError) (PasswordResult, error) {
	if _, err := f.api.CurrentUser(ctx); err != nil {
		f.logger.Debug("token check after password rejection failed", "error", err)
		return PasswordResult{}, err
	}

	return PasswordResult{Outcome: Rejected, Message: rejectedWith(original.Details), Field: FieldCurrent}, nil
}

func rejectedWith(detail string) string {
	if detail == "" || detail == "Error on password change" {
		return rejectedMessage
	}
	return rejectedMessage + " (" + detail + ")"
}
