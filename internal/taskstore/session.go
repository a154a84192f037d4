package taskstore

import (
	"go-todo-client/internal/storage"
	"go-todo-client/pkg/apierror"
)

const staleCredentialMessage = "The server refused the request. Please try again."

// SessionEnded reports whether err left the client signed out. A 401 for a
// token that has since been replaced keeps the newer credential, and the
// session with it.
func SessionEnded(credentials storage.CredentialStore, err error) bool {
	if !apierror.Is(err, apierror.CodeUnauthenticated) {
		return false
	}
	if credentials == nil {
		return true
	}

	_, ok := credentials.Get()
	return !ok
}
