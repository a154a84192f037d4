package storage

import (
	"github.com/stretchr/testify/mock"

	"go-todo-client/internal/model"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Set(credential model.Credential) error {
	args := m.Called(credential)
	return args.Error(0)
}

func (m *MockCredentialStore) Get() (model.Credential, bool) {
	args := m.Called()
	return args.Get(0).(model.Credential), args.Bool(1)
}

func (m *MockCredentialStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}
