package session

import "go-todo-client/internal/model"

type Verdict int

const (
	Allow Verdict = iota
	Redirect
)

func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "redirect"
}

// Destinations a guard can send the caller to.
const (
	DestinationLogin = "login"
	DestinationTodos = "todos"
)

type Decision struct {
	Verdict     Verdict
	Destination string
}

func (d Decision) Allowed() bool {
	return d.Verdict == Allow
}

// Guard decides whether a view needing the given role may be shown. An empty
// required role means any authenticated session. The decision is advisory;
// the server enforces access on every request.
func (m *Manager) Guard(required model.Role) Decision {
	credential, ok := m.credentials.Get()
	return Evaluate(credential, ok, required)
}

// Evaluate is Guard as a pure function of the session.
func Evaluate(credential model.Credential, present bool, required model.Role) Decision {
	if !present || !credential.Present() {
		return Decision{Verdict: Redirect, Destination: DestinationLogin}
	}

	if required == model.RoleAdmin && !credential.Privileged() {
		return Decision{Verdict: Redirect, Destination: DestinationTodos}
	}

	return Decision{Verdict: Allow}
}
