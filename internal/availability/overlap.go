// Package availability answers which users are unavailable during an event's time window.
package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) share time.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// UnavailableUser pairs an unavailability period with the user it belongs to.
type UnavailableUser struct {
	Period models.UserUnavailablePeriod
	User   models.User
}

// ForWindow returns the entries whose period overlaps [start, end), without duplicate periods,
// ordered by user last name, first name, then period start.
func ForWindow(entries []UnavailableUser, start, end time.Time) []UnavailableUser {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	out := make([]UnavailableUser, 0)
	for _, e := range entries {
		if !Overlaps(e.Period.StartsAt, e.Period.EndsAt, start, end) {
			continue
		}
		if _, dup := seen[e.Period.ID]; dup {
			continue
		}
		seen[e.Period.ID] = struct{}{}
		out = append(out, e)
	}
	Sort(out)
	return out
}

// ForEvent is ForWindow over the event's [starts_at, ends_at).
func ForEvent(entries []UnavailableUser, event models.Event) []UnavailableUser {
	return ForWindow(entries, event.StartsAt, event.EndsAt)
}

// Sort orders entries by user last name, first name, then period start.
func Sort(entries []UnavailableUser) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.User.LastName != b.User.LastName {
			return a.User.LastName < b.User.LastName
		}
		if a.User.FirstName != b.User.FirstName {
			return a.User.FirstName < b.User.FirstName
		}
		return a.Period.StartsAt.Before(b.Period.StartsAt)
	})
}
