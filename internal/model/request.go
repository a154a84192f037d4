package model

type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

type PasswordChangeRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// TaskRequest is the body accepted by the create and update endpoints.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
}

func (d TaskDraft) Request() TaskRequest {
	return TaskRequest{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Completed:   false,
	}
}
