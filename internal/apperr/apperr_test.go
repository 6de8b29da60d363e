package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDB_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       Kind
		status     int
		message    string
		constraint string
	}{
		{
			name:    "no rows",
			err:     pgx.ErrNoRows,
			kind:    KindNotFound,
			status:  http.StatusNotFound,
			message: "event not found",
		},
		{
			name:       "duplicate slot",
			err:        &pgconn.PgError{Code: "23505", ConstraintName: "event_assignments_event_id_role_id_key"},
			kind:       KindUniqueConflict,
			status:     http.StatusConflict,
			message:    "event already has a slot for this role",
			constraint: "event_assignments_event_id_role_id_key",
		},
		{
			name:       "duplicate user role",
			err:        fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "user_roles_user_id_role_id_key"}),
			kind:       KindUniqueConflict,
			status:     http.StatusConflict,
			message:    "user already has this role",
			constraint: "user_roles_user_id_role_id_key",
		},
		{
			name:       "event time range",
			err:        &pgconn.PgError{Code: "23514", ConstraintName: "events_time_range_check"},
			kind:       KindCheckViolation,
			status:     http.StatusUnprocessableEntity,
			message:    "event must start before it ends",
			constraint: "events_time_range_check",
		},
		{
			name:       "schedule month",
			err:        &pgconn.PgError{Code: "23514", ConstraintName: "schedules_month_check"},
			kind:       KindCheckViolation,
			status:     http.StatusUnprocessableEntity,
			message:    "month must be between 1 and 12",
			constraint: "schedules_month_check",
		},
		{
			name:       "foreign key",
			err:        &pgconn.PgError{Code: "23503", ConstraintName: "events_schedule_id_fkey"},
			kind:       KindCheckViolation,
			status:     http.StatusUnprocessableEntity,
			message:    "schedule does not exist",
			constraint: "events_schedule_id_fkey",
		},
		{
			name:       "unknown unique constraint",
			err:        &pgconn.PgError{Code: "23505", ConstraintName: "something_key"},
			kind:       KindUniqueConflict,
			status:     http.StatusConflict,
			message:    "unique constraint violated (something_key)",
			constraint: "something_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDB(tt.err, "event")

			var appErr *Error
			require.ErrorAs(t, got, &appErr)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.constraint, appErr.Constraint)
			assert.Equal(t, tt.status, HTTPStatus(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromDB_PassThrough(t *testing.T) {
	assert.NoError(t, FromDB(nil, "event"))

	raw := errors.New("connection reset")
	got := FromDB(raw, "event")
	assert.Same(t, raw, got)
	assert.Equal(t, KindUnknown, KindOf(got))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(got))
	assert.Equal(t, "internal server error", PublicMessage(got))

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, KindUnknown, KindOf(FromDB(other, "event")))
}

func TestErrorIs_MatchesByKind(t *testing.T) {
	err := FromDB(&pgconn.PgError{Code: "23505", ConstraintName: "roles_code_key"}, "role")
	assert.ErrorIs(t, err, ErrUniqueConflict)
	assert.NotErrorIs(t, err, ErrCheckViolation)

	assert.ErrorIs(t, NotFound("user"), ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", ErrEmptyUpdatePayload), ErrEmptyUpdatePayload)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrEmptyUpdatePayload))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Invalid("bad %s", "field")))
	assert.Equal(t, "bad field", PublicMessage(Invalid("bad %s", "field")))
}
