package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodya/foodya-backend/pkg/errorbank"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	p := Principal{UserID: uuid.New(), Role: RoleMerchant}

	assert.NoError(t, Require(p, RoleMerchant, RoleAdmin))

	err := Require(p, RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindForbidden, errorbank.From(err).Kind())
}
