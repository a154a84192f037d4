package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Task related errors
	ErrTaskNotFound = errors.New("task not found")
	ErrInFlight     = errors.New("a request for this task is already in progress")
	ErrCancelled    = errors.New("cancelled")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
