package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_schema.sql", "002_reference_data.sql"}, names)
}

func TestMigrations_DeclareNamedConstraints(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	require.NoError(t, err)
	schema := string(raw)

	for _, name := range []string{
		"schedules_month_check",
		"events_time_range_check",
		"user_unavailable_periods_time_range_check",
		"event_assignments_event_id_role_id_key",
		"user_roles_user_id_role_id_key",
		"event_assignments_requirement_level_check",
	} {
		assert.Contains(t, schema, "CONSTRAINT "+name, name)
	}
}
