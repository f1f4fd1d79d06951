package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/territory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reps (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT,
	phone      TEXT,
	color      TEXT,
	street     TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT,
	latitude   REAL,
	longitude  REAL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS templates (
	rep_id     TEXT PRIMARY KEY REFERENCES reps(id),
	days       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS appointments (
	id         TEXT PRIMARY KEY,
	rep_id     TEXT,
	date       TEXT NOT NULL,
	time_slot  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'scheduled',
	street     TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT,
	latitude   REAL,
	longitude  REAL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot
	ON appointments(rep_id, date, time_slot)
	WHERE status = 'scheduled' AND rep_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);
CREATE INDEX IF NOT EXISTS idx_appointments_rep ON appointments(rep_id);
CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRep(ctx context.Context, rep model.SalesRep) error {
	if rep.ID == "" {
		return eris.New("sqlite: rep id is required")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reps (id, name, email, phone, color, street, city, state, zip, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			color = excluded.color,
			street = excluded.street,
			city = excluded.city,
			state = excluded.state,
			zip = excluded.zip,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at`,
		rep.ID, rep.Name, rep.Email, rep.Phone, rep.Color,
		rep.HomeAddress.Street, rep.HomeAddress.City, rep.HomeAddress.State, rep.HomeAddress.Zip,
		nullableFloat(rep.HomeAddress.Latitude), nullableFloat(rep.HomeAddress.Longitude),
		now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert rep %s", rep.ID)
}

func (s *SQLiteStore) GetRep(ctx context.Context, id string) (*model.SalesRep, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, color, street, city, state, zip, latitude, longitude
		FROM reps WHERE id = ?`, id)

	rep, err := scanRep(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: rep %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get rep %s", id)
	}
	return rep, nil
}

func (s *SQLiteStore) ListReps(ctx context.Context) ([]model.SalesRep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, color, street, city, state, zip, latitude, longitude
		FROM reps ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reps")
	}
	defer rows.Close()

	var reps []model.SalesRep
	for rows.Next() {
		rep, err := scanRep(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rep")
		}
		reps = append(reps, *rep)
	}
	return reps, eris.Wrap(rows.Err(), "sqlite: iterate reps")
}

func (s *SQLiteStore) UpsertTemplate(ctx context.Context, tpl model.WeeklyTemplate) error {
	if tpl.RepID == "" {
		return eris.New("sqlite: template rep id is required")
	}
	daysJSON, err := json.Marshal(encodeTemplateDays(tpl.Days))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal template days")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (rep_id, days, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (rep_id) DO UPDATE SET days = excluded.days, updated_at = excluded.updated_at`,
		tpl.RepID, string(daysJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert template %s", tpl.RepID)
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, repID string) (*model.WeeklyTemplate, error) {
	var daysJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT days FROM templates WHERE rep_id = ?`, repID,
	).Scan(&daysJSON)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: template %s", repID)
		}
		return nil, eris.Wrapf(err, "sqlite: get template %s", repID)
	}
	return decodeTemplate(repID, daysJSON)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) (map[string]model.WeeklyTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rep_id, days FROM templates`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close()

	templates := make(map[string]model.WeeklyTemplate)
	for rows.Next() {
		var repID, daysJSON string
		if err := rows.Scan(&repID, &daysJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan template")
		}
		tpl, err := decodeTemplate(repID, daysJSON)
		if err != nil {
			return nil, err
		}
		templates[repID] = *tpl
	}
	return templates, eris.Wrap(rows.Err(), "sqlite: iterate templates")
}

func (s *SQLiteStore) CreateAppointment(ctx context.Context, appt model.Appointment) (*model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = model.StatusScheduled
	}
	if !appt.Slot.Valid() {
		return nil, eris.Errorf("sqlite: invalid time slot %q", appt.Slot)
	}
	now := time.Now().UTC()
	appt.Date = model.Day(appt.Date)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (id, rep_id, date, time_slot, status, street, city, state, zip, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID, nullableString(appt.RepID), model.FormatDate(appt.Date), string(appt.Slot), string(appt.Status),
		appt.Address.Street, appt.Address.City, appt.Address.State, appt.Address.Zip,
		nullableFloat(appt.Address.Latitude), nullableFloat(appt.Address.Longitude),
		now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, eris.Wrapf(ErrSlotTaken, "sqlite: rep %s %s %s", appt.RepID, model.FormatDate(appt.Date), appt.Slot)
		}
		return nil, eris.Wrap(err, "sqlite: insert appointment")
	}
	return &appt, nil
}

func (s *SQLiteStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, rep_id, date, time_slot, status, street, city, state, zip, latitude, longitude, created_at, updated_at
		FROM appointments WHERE id = ?`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: appointment %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get appointment %s", id)
	}
	return appt, nil
}

func (s *SQLiteStore) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	query := `
		SELECT id, rep_id, date, time_slot, status, street, city, state, zip, latitude, longitude, created_at, updated_at
		FROM appointments WHERE 1=1`
	var args []any

	if filter.RepID != "" {
		query += ` AND rep_id = ?`
		args = append(args, filter.RepID)
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, model.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, model.FormatDate(filter.To))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY date, time_slot, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list appointments")
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan appointment")
		}
		appts = append(appts, *appt)
	}
	return appts, eris.Wrap(rows.Err(), "sqlite: iterate appointments")
}

func (s *SQLiteStore) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update appointment status %s", id)
	}
	return checkRowsAffectedSQL(res, "appointment", id)
}

func (s *SQLiteStore) AssignRep(ctx context.Context, apptID, repID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET rep_id = ?, updated_at = ? WHERE id = ?`,
		nullableString(repID), time.Now().UTC(), apptID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrSlotTaken, "sqlite: assign rep %s to %s", repID, apptID)
		}
		return eris.Wrapf(err, "sqlite: assign rep on %s", apptID)
	}
	return checkRowsAffectedSQL(res, "appointment", apptID)
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRep(row scanner) (*model.SalesRep, error) {
	var rep model.SalesRep
	var email, phone, color, street, city, state, zip sql.NullString
	var lat, lng sql.NullFloat64

	if err := row.Scan(&rep.ID, &rep.Name, &email, &phone, &color,
		&street, &city, &state, &zip, &lat, &lng); err != nil {
		return nil, err
	}
	rep.Email = email.String
	rep.Phone = phone.String
	rep.Color = color.String
	rep.HomeAddress = model.Address{
		Street: street.String,
		City:   city.String,
		State:  state.String,
		Zip:    zip.String,
	}
	if lat.Valid {
		rep.HomeAddress.Latitude = &lat.Float64
	}
	if lng.Valid {
		rep.HomeAddress.Longitude = &lng.Float64
	}
	return &rep, nil
}

func scanAppointment(row scanner) (*model.Appointment, error) {
	var appt model.Appointment
	var repID, street, city, state, zip sql.NullString
	var lat, lng sql.NullFloat64
	var date, slot, status string

	if err := row.Scan(&appt.ID, &repID, &date, &slot, &status,
		&street, &city, &state, &zip, &lat, &lng,
		&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, err
	}
	appt.RepID = repID.String
	appt.Slot = model.TimeSlot(slot)
	appt.Status = model.AppointmentStatus(status)

	parsed, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	appt.Date = parsed

	appt.Address = model.Address{
		Street: street.String,
		City:   city.String,
		State:  state.String,
		Zip:    zip.String,
	}
	if lat.Valid {
		appt.Address.Latitude = &lat.Float64
	}
	if lng.Valid {
		appt.Address.Longitude = &lng.Float64
	}
	return &appt, nil
}

func checkRowsAffectedSQL(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", kind, id)
	}
	return nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decodeTemplate(repID, daysJSON string) (*model.WeeklyTemplate, error) {
	var raw templateDaysJSON
	if err := json.Unmarshal([]byte(daysJSON), &raw); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal template days for %s", repID)
	}
	days, err := decodeTemplateDays(raw)
	if err != nil {
		return nil, err
	}
	return &model.WeeklyTemplate{RepID: repID, Days: days}, nil
}
