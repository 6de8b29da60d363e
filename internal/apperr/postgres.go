package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidDatetime     = "22008"
)

var uniqueReasons = map[string]string{
	"event_assignments_event_id_role_id_key": "event already has a slot for this role",
	"user_roles_user_id_role_id_key":         "user already has this role",
	"team_users_team_id_user_id_key":         "user is already a member of this team",
	"roles_code_key":                         "role code already exists",
	"proficiency_levels_code_key":            "proficiency level code already exists",
	"event_types_code_key":                   "event type code already exists",
	"teams_code_key":                         "team code already exists",
	"users_email_key":                        "email already registered",
}

var checkReasons = map[string]string{
	"schedules_month_check":                     "month must be between 1 and 12",
	"events_time_range_check":                   "event must start before it ends",
	"user_unavailable_periods_time_range_check": "unavailable period must start before it ends",
	"event_assignments_requirement_level_check": "requirement level must be required, preferred or optional",
	"events_schedule_id_fkey":                   "schedule does not exist",
	"events_team_id_fkey":                       "team does not exist",
	"events_event_type_id_fkey":                 "event type does not exist or is still used by events",
	"event_assignments_event_id_fkey":           "event does not exist",
	"event_assignments_role_id_fkey":            "role does not exist",
	"event_assignments_assigned_user_id_fkey":   "assigned user does not exist",
	"user_roles_user_id_fkey":                   "user does not exist",
	"user_roles_role_id_fkey":                   "role does not exist",
	"user_roles_proficiency_level_id_fkey":      "proficiency level does not exist or is still held by user roles",
	"team_users_team_id_fkey":                   "team does not exist",
	"team_users_user_id_fkey":                   "user does not exist",
	"user_unavailable_periods_user_id_fkey":     "user does not exist",
}

// FromDB classifies a storage error into a domain error. Nil stays nil; errors that are
// neither "no rows" nor a known constraint class are returned unchanged.
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Message: entity + " not found", Err: err}
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &Error{
			Kind:       KindUniqueConflict,
			Constraint: pgErr.ConstraintName,
			Message:    reason(uniqueReasons, pgErr.ConstraintName, "unique constraint violated"),
			Err:        err,
		}
	case codeCheckViolation, codeForeignKeyViolation:
		return &Error{
			Kind:       KindCheckViolation,
			Constraint: pgErr.ConstraintName,
			Message:    reason(checkReasons, pgErr.ConstraintName, "constraint violated"),
			Err:        err,
		}
	case codeNotNullViolation:
		return &Error{
			Kind:       KindCheckViolation,
			Constraint: pgErr.ColumnName,
			Message:    fmt.Sprintf("%s is required", pgErr.ColumnName),
			Err:        err,
		}
	case codeInvalidDatetime:
		return &Error{Kind: KindCheckViolation, Message: "invalid date or time value", Err: err}
	}
	return err
}

func reason(table map[string]string, constraint, fallback string) string {
	if msg, ok := table[constraint]; ok {
		return msg
	}
	if constraint != "" {
		return fmt.Sprintf("%s (%s)", fallback, constraint)
	}
	return fallback
}
