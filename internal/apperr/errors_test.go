package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Precondition("event is full")
	wrapped := fmt.Errorf("accept request: %w", err)

	assert.True(t, errors.Is(wrapped, ErrPrecondition))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, KindPrecondition, KindOf(wrapped))
	assert.Equal(t, "event is full", Reason(wrapped))
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5432: connection refused")
	err := Storage("insert lease", cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "something went wrong, please try again", Reason(err))
	assert.Contains(t, err.Error(), "insert lease")
}

func TestStorageKeepsClassifiedErrors(t *testing.T) {
	err := Constraint("username is already taken")
	assert.Same(t, err, Storage("insert user", err))
	assert.Nil(t, Storage("noop", nil))
}

func TestReasonForForeignErrors(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, "something went wrong, please try again", Reason(errors.New("boom")))
}

func TestIllegalTransitionReason(t *testing.T) {
	err := IllegalTransition("carpool request", "accepted", "rejected")
	assert.True(t, errors.Is(err, ErrIllegalTransition))
	assert.Equal(t, "carpool request is already accepted and cannot become rejected", Reason(err))
}
