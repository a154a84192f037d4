package model

// ErrorResponse is the error body spoken by the remote API: detail is either a
// plain message or a list of ValidationIssue.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

type ValidationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}
