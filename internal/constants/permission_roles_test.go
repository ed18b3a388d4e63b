package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(Trade, "investor"))
	assert.False(t, AllowedRole(ReviewFunding, "investor"))
	assert.True(t, AllowedRole(ReviewFunding, "admin"))
	assert.False(t, AllowedRole(RunMaintenance, "admin"))
	assert.True(t, AllowedRole(RunMaintenance, "superadmin"))
	assert.False(t, AllowedRole("unknown", "superadmin"))
}
