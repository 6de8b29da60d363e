package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
)

var (
	t0 = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
)

func entry(first, last string, start, end time.Time) UnavailableUser {
	userID := uuid.New()
	return UnavailableUser{
		Period: models.UserUnavailablePeriod{ID: uuid.New(), UserID: userID, StartsAt: start, EndsAt: end},
		User:   models.User{ID: userID, FirstName: first, LastName: last},
	}
}

func TestOverlaps_HalfOpenBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"ends exactly at event start", t0.Add(-time.Hour), t0, false},
		{"identical range", t0, t1, true},
		{"starts exactly at event end", t1, t1.Add(time.Hour), false},
		{"partial overlap at start", t0.Add(-time.Hour), t0.Add(time.Hour), true},
		{"partial overlap at end", t1.Add(-time.Minute), t1.Add(time.Hour), true},
		{"contained", t0.Add(time.Hour), t0.Add(2 * time.Hour), true},
		{"covers event", t0.Add(-24 * time.Hour), t1.Add(24 * time.Hour), true},
		{"entirely before", t0.Add(-3 * time.Hour), t0.Add(-2 * time.Hour), false},
		{"one nanosecond into event", t0.Add(-time.Hour), t0.Add(time.Nanosecond), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.start, tt.end, t0, t1))
			assert.Equal(t, tt.want, Overlaps(t0, t1, tt.start, tt.end), "overlap must be symmetric")
		})
	}
}

func TestForEvent_FiltersSortsAndDeduplicates(t *testing.T) {
	event := models.Event{ID: uuid.New(), StartsAt: t0, EndsAt: t1}

	touching := entry("Ann", "Before", t0.Add(-time.Hour), t0)
	same := entry("Zed", "Baker", t0, t1)
	partial := entry("Amy", "Baker", t0.Add(-time.Hour), t0.Add(time.Hour))
	after := entry("Bob", "After", t1, t1.Add(time.Hour))

	got := ForEvent([]UnavailableUser{touching, same, partial, after, same}, event)

	require.Len(t, got, 2)
	assert.Equal(t, "Amy", got[0].User.FirstName)
	assert.Equal(t, "Zed", got[1].User.FirstName)
}

func TestForWindow_EmptyInput(t *testing.T) {
	got := ForWindow(nil, t0, t1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPatchRequest_ApplyTo(t *testing.T) {
	reason := "holiday"
	p := models.UserUnavailablePeriod{StartsAt: t0, EndsAt: t1, Reason: &reason}

	req := PatchRequest{EndsAt: patch.Of(t1.Add(time.Hour))}
	require.NoError(t, req.ApplyTo(&p))
	assert.Equal(t, t0, p.StartsAt)
	assert.Equal(t, t1.Add(time.Hour), p.EndsAt)
	require.NotNil(t, p.Reason)

	req = PatchRequest{Reason: patch.Null[string]()}
	require.NoError(t, req.ApplyTo(&p))
	assert.Nil(t, p.Reason)

	req = PatchRequest{StartsAt: patch.Null[time.Time]()}
	assert.Error(t, req.ApplyTo(&p))
}
