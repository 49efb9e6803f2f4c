package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
)

func TestRequire(t *testing.T) {
	student := Identity{UserID: 7, Username: "stu", Role: models.RoleStudent}

	assert.NoError(t, student.Require(models.RoleStudent))
	assert.ErrorIs(t, student.Require(models.RoleHomeowner), apperr.ErrForbidden)
	assert.ErrorIs(t, Identity{}.Require(models.RoleStudent), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, Identity{}.Authenticated(), apperr.ErrUnauthenticated)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id := FromUser(&models.User{ID: 3, Username: "owner", Role: models.RoleHomeowner})
	got, ok := FromContext(WithIdentity(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
