package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

var repColumns = []string{
	"id", "name", "email", "phone", "color",
	"street", "city", "state", "zip", "latitude", "longitude",
}

var appointmentColumns = []string{
	"id", "rep_id", "date", "time_slot", "status",
	"street", "city", "state", "zip", "latitude", "longitude",
	"created_at", "updated_at",
}

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_GetRep(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, .+ FROM reps WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows(repColumns).AddRow(
			"r1", "Alice Ray", "alice@sellsgroup.com", "404-555-0101", "#1f77b4",
			"100 Main St", "Atlanta", "GA", "30303", ptr(33.75), ptr(-84.39),
		))

	rep, err := s.GetRep(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Ray", rep.Name)
	require.NotNil(t, rep.HomeAddress.Latitude)
	assert.Equal(t, 33.75, *rep.HomeAddress.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRep_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, .+ FROM reps WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRep(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertRep(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rep := testRep("r1")
	mock.ExpectExec(`INSERT INTO reps .+ ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(rep.ID, rep.Name, rep.Email, rep.Phone, rep.Color,
			rep.HomeAddress.Street, rep.HomeAddress.City, rep.HomeAddress.State, rep.HomeAddress.Zip,
			rep.HomeAddress.Latitude, rep.HomeAddress.Longitude).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.UpsertRep(context.Background(), rep))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReps(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, .+ FROM reps ORDER BY name, id`).
		WillReturnRows(pgxmock.NewRows(repColumns).
			AddRow("r1", "Alice Ray", "", "", "", "", "Atlanta", "GA", "", ptr(33.75), ptr(-84.39)).
			AddRow("r2", "Ben Cho", "", "", "", "", "Macon", "GA", "", nil, nil))

	reps, err := s.ListReps(context.Background())
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.False(t, reps[1].HomeAddress.HasCoordinates())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAppointment_SlotTaken(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO appointments`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_slot"})

	_, err := s.CreateAppointment(context.Background(), model.Appointment{
		RepID: "r1",
		Date:  mustDate(t, "2026-08-03"),
		Slot:  model.SlotMorning,
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT days::text FROM templates WHERE rep_id = \$1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"days"}).
			AddRow(`{"monday":["10am","7pm"],"thursday":["2pm"]}`))

	tpl, err := s.GetTemplate(context.Background(), "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.TimeSlot{model.SlotMorning, model.SlotEvening}, tpl.Days[time.Monday])
	assert.Equal(t, []model.TimeSlot{model.SlotMidday}, tpl.Days[time.Thursday])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAppointments_FilterArgs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM appointments WHERE 1=1 AND rep_id = \$1 AND date >= \$2 AND date <= \$3 AND status = \$4`).
		WithArgs("r1", "2026-08-03", "2026-08-07", "scheduled").
		WillReturnRows(pgxmock.NewRows(appointmentColumns).AddRow(
			"a1", "r1", "2026-08-03", "10am", "scheduled",
			"", "", "", "", ptr(33.76), ptr(-84.40),
			time.Now().UTC(), time.Now().UTC(),
		))

	appts, err := s.ListAppointments(context.Background(), AppointmentFilter{
		RepID:  "r1",
		From:   mustDate(t, "2026-08-03"),
		To:     mustDate(t, "2026-08-07"),
		Status: model.StatusScheduled,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, model.SlotMorning, appts[0].Slot)
	assert.Equal(t, mustDate(t, "2026-08-03"), appts[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateAppointmentStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE appointments SET status = \$1`).
		WithArgs("cancelled", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateAppointmentStatus(context.Background(), "missing", model.StatusCancelled)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AssignRep_SlotTaken(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE appointments SET rep_id = \$1`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.AssignRep(context.Background(), "a1", "r1")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}
