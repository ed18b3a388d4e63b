package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoles(t *testing.T) {
	assert.Equal(t, "admin", Normalize("  Admin "))
	assert.True(t, IsValidRole(Investor))
	assert.False(t, IsValidRole("manager"))
	assert.False(t, IsValidRole("Admin"))
}
