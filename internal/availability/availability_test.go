package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository/memory"
)

func TestRoomsAvailable(t *testing.T) {
	tests := []struct {
		bedrooms, active int
		rooms            int
		visible          bool
	}{
		{2, 0, 2, true},
		{2, 1, 1, true},
		{2, 2, 0, false},
		{0, 0, 0, false},
		{1, 2, -1, false},
	}
	for _, tt := range tests {
		rooms, visible := RoomsAvailable(tt.bedrooms, tt.active)
		assert.Equal(t, tt.rooms, rooms, "bedrooms=%d active=%d", tt.bedrooms, tt.active)
		assert.Equal(t, tt.visible, visible, "bedrooms=%d active=%d", tt.bedrooms, tt.active)
	}
}

func TestRecomputeProperty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := store.Repos()

	p, err := r.Properties.Create(ctx, models.Property{HomeownerID: 1, Bedrooms: 1, RoomsAvailable: 1, Visible: true})
	require.NoError(t, err)

	change, err := RecomputeProperty(ctx, r, p.ID)
	require.NoError(t, err)
	assert.False(t, change.VisibilityFlipped())

	_, err = r.Leases.Create(ctx, models.Lease{PropertyID: p.ID, TenantID: 2, RentAmount: 700})
	require.NoError(t, err)

	change, err = RecomputeProperty(ctx, r, p.ID)
	require.NoError(t, err)
	assert.True(t, change.VisibilityFlipped())
	assert.Equal(t, 1, change.RoomsBefore)

	got, err := r.Properties.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RoomsAvailable)
	assert.False(t, got.Visible)

	_, err = RecomputeProperty(ctx, r, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReserveEventSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := store.Repos()

	e, err := r.Events.Create(ctx, models.Event{OrganizerID: 1, Name: "Study group", MaxParticipants: 1})
	require.NoError(t, err)

	n, err := ReserveEventSlot(ctx, r, e)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = r.Participants.Create(ctx, models.EventParticipant{EventID: e.ID, StudentID: 2, Status: models.StatusAccepted})
	require.NoError(t, err)

	_, err = ReserveEventSlot(ctx, r, e)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestTakeCarpoolSeat(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := store.Repos()

	c, err := r.Carpools.Create(ctx, models.Carpool{DriverID: 1, Seats: 1})
	require.NoError(t, err)

	require.NoError(t, TakeCarpoolSeat(ctx, r, c.ID))
	err = TakeCarpoolSeat(ctx, r, c.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	got, err := r.Carpools.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Seats)
}
