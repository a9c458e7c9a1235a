package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/user"
)

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	u := &user.User{Model: gorm.Model{ID: 7}, Role: user.RoleAdmin}
	token, err := IssueToken(u)
	require.NoError(t, err)

	userID, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	Init("test-secret")

	u := &user.User{Model: gorm.Model{ID: 7}, Role: user.RoleAdmin}
	token, err := IssueToken(u)
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	Init("test-secret")
	u := &user.User{Model: gorm.Model{ID: 7}}
	token, err := IssueToken(u)
	require.NoError(t, err)

	Init("another-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	Init("test-secret")
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}
