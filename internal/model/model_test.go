package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, Role("auditor"), ParseRole("auditor"))
}

func TestCredentialPrivileged(t *testing.T) {
	t.Parallel()

	assert.False(t, Credential{}.Present())
	assert.False(t, Credential{AccessToken: "   ", Role: RoleAdmin}.Privileged())
	assert.False(t, Credential{AccessToken: "t1", Role: RoleUser}.Privileged())
	assert.True(t, Credential{AccessToken: "t1", Role: RoleAdmin}.Privileged())
}

func TestUrgency(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Low", Urgency(1))
	assert.Equal(t, "Low", Urgency(2))
	assert.Equal(t, "Medium", Urgency(3))
	assert.Equal(t, "Very High", Urgency(4))
	assert.Equal(t, "Very High", Urgency(5))
}

func TestDraftRequestStartsIncomplete(t *testing.T) {
	t.Parallel()

	req := TaskDraft{Title: "Buy milk", Priority: 2}.Request()
	assert.False(t, req.Completed)
	assert.Equal(t, 2, req.Priority)
	assert.False(t, ValidPriority(0))
	assert.False(t, ValidPriority(6))
	assert.True(t, ValidPriority(5))
}
