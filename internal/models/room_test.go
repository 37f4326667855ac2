package models_test

import (
	"testing"

	"screencast/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCode(t *testing.T) {
	cases := map[string]bool{
		"AB12C3":  true,
		"000000":  true,
		"ZZZZZZ":  true,
		"ab12c3":  false,
		"AB12C":   false,
		"AB12C34": false,
		"AB-2C3":  false,
		"":        false,
	}
	for code, want := range cases {
		assert.Equal(t, want, models.IsValidCode(code), "code %q", code)
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB12C3", models.NormalizeCode(" ab12c3\n"))
	assert.Equal(t, "AB12C3", models.NormalizeCode("AB12C3"))
	assert.Equal(t, "", models.NormalizeCode("  "))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, models.RoleHost.Valid())
	assert.True(t, models.RoleViewer.Valid())
	assert.False(t, models.Role("admin").Valid())
	assert.False(t, models.Role("").Valid())
}
