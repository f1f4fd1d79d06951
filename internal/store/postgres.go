package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/db"
	"github.com/sells-group/territory-cli/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS templates (
	rep_id     TEXT PRIMARY KEY REFERENCES reps(id),
	days       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id         TEXT PRIMARY KEY,
	rep_id     TEXT,
	date       DATE NOT NULL,
	time_slot  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'scheduled',
	street     TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT,
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot
	ON appointments(rep_id, date, time_slot)
	WHERE status = 'scheduled' AND rep_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);
CREATE INDEX IF NOT EXISTS idx_appointments_rep ON appointments(rep_id);
CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertRep(ctx context.Context, rep model.SalesRep) error {
	if rep.ID == "" {
		return eris.New("postgres: rep id is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reps (id, name, email, phone, color, street, city, state, zip, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			color = EXCLUDED.color,
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = now()`,
		rep.ID, rep.Name, rep.Email, rep.Phone, rep.Color,
		rep.HomeAddress.Street, rep.HomeAddress.City, rep.HomeAddress.State, rep.HomeAddress.Zip,
		rep.HomeAddress.Latitude, rep.HomeAddress.Longitude,
	)
	return eris.Wrapf(err, "postgres: upsert rep %s", rep.ID)
}

func (s *PostgresStore) GetRep(ctx context.Context, id string) (*model.SalesRep, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(color, ''),
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''),
		       latitude, longitude
		FROM reps WHERE id = $1`, id)

	rep, err := scanRepPG(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: rep %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get rep %s", id)
	}
	return rep, nil
}

func (s *PostgresStore) ListReps(ctx context.Context) ([]model.SalesRep, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(color, ''),
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''),
		       latitude, longitude
		FROM reps ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reps")
	}
	defer rows.Close()

	var reps []model.SalesRep
	for rows.Next() {
		rep, err := scanRepPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan rep")
		}
		reps = append(reps, *rep)
	}
	return reps, eris.Wrap(rows.Err(), "postgres: iterate reps")
}

func (s *PostgresStore) UpsertTemplate(ctx context.Context, tpl model.WeeklyTemplate) error {
	if tpl.RepID == "" {
		return eris.New("postgres: template rep id is required")
	}
	daysJSON, err := json.Marshal(encodeTemplateDays(tpl.Days))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal template days")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO templates (rep_id, days, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (rep_id) DO UPDATE SET days = EXCLUDED.days, updated_at = now()`,
		tpl.RepID, string(daysJSON),
	)
	return eris.Wrapf(err, "postgres: upsert template %s", tpl.RepID)
}

func (s *PostgresStore) GetTemplate(ctx context.Context, repID string) (*model.WeeklyTemplate, error) {
	var daysJSON string
	err := s.pool.QueryRow(ctx,
		`SELECT days::text FROM templates WHERE rep_id = $1`, repID,
	).Scan(&daysJSON)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: template %s", repID)
		}
		return nil, eris.Wrapf(err, "postgres: get template %s", repID)
	}
	return decodeTemplate(repID, daysJSON)
}

func (s *PostgresStore) ListTemplates(ctx context.Context) (map[string]model.WeeklyTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT rep_id, days::text FROM templates`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	templates := make(map[string]model.WeeklyTemplate)
	for rows.Next() {
		var repID, daysJSON string
		if err := rows.Scan(&repID, &daysJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		tpl, err := decodeTemplate(repID, daysJSON)
		if err != nil {
			return nil, err
		}
		templates[repID] = *tpl
	}
	return templates, eris.Wrap(rows.Err(), "postgres: iterate templates")
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, appt model.Appointment) (*model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = model.StatusScheduled
	}
	if !appt.Slot.Valid() {
		return nil, eris.Errorf("postgres: invalid time slot %q", appt.Slot)
	}
	now := time.Now().UTC()
	appt.Date = model.Day(appt.Date)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (id, rep_id, date, time_slot, status, street, city, state, zip, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		appt.ID, pgNullString(appt.RepID), model.FormatDate(appt.Date), string(appt.Slot), string(appt.Status),
		appt.Address.Street, appt.Address.City, appt.Address.State, appt.Address.Zip,
		appt.Address.Latitude, appt.Address.Longitude,
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrSlotTaken, "postgres: rep %s %s %s", appt.RepID, model.FormatDate(appt.Date), appt.Slot)
		}
		return nil, eris.Wrap(err, "postgres: insert appointment")
	}
	return &appt, nil
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(rep_id, ''), date::text, time_slot, status,
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''),
		       latitude, longitude, created_at, updated_at
		FROM appointments WHERE id = $1`, id)

	appt, err := scanAppointmentPG(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: appointment %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get appointment %s", id)
	}
	return appt, nil
}

func (s *PostgresStore) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	query := `
		SELECT id, COALESCE(rep_id, ''), date::text, time_slot, status,
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''),
		       latitude, longitude, created_at, updated_at
		FROM appointments WHERE 1=1`
	var args []any

	if filter.RepID != "" {
		args = append(args, filter.RepID)
		query += ` AND rep_id = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, model.FormatDate(filter.From))
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, model.FormatDate(filter.To))
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date, time_slot, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list appointments")
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointmentPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan appointment")
		}
		appts = append(appts, *appt)
	}
	return appts, eris.Wrap(rows.Err(), "postgres: iterate appointments")
}

func (s *PostgresStore) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update appointment status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: appointment %s", id)
	}
	return nil
}

func (s *PostgresStore) AssignRep(ctx context.Context, apptID, repID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET rep_id = $1, updated_at = now() WHERE id = $2`,
		pgNullString(repID), apptID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrSlotTaken, "postgres: assign rep %s to %s", repID, apptID)
		}
		return eris.Wrapf(err, "postgres: assign rep on %s", apptID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: appointment %s", apptID)
	}
	return nil
}

func scanRepPG(row pgx.Row) (*model.SalesRep, error) {
	var rep model.SalesRep
	var lat, lng *float64

	if err := row.Scan(&rep.ID, &rep.Name, &rep.Email, &rep.Phone, &rep.Color,
		&rep.HomeAddress.Street, &rep.HomeAddress.City, &rep.HomeAddress.State, &rep.HomeAddress.Zip,
		&lat, &lng); err != nil {
		return nil, err
	}
	rep.HomeAddress.Latitude = lat
	rep.HomeAddress.Longitude = lng
	return &rep, nil
}

func scanAppointmentPG(row pgx.Row) (*model.Appointment, error) {
	var appt model.Appointment
	var date, slot, status string
	var lat, lng *float64

	if err := row.Scan(&appt.ID, &appt.RepID, &date, &slot, &status,
		&appt.Address.Street, &appt.Address.City, &appt.Address.State, &appt.Address.Zip,
		&lat, &lng, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, err
	}
	appt.Slot = model.TimeSlot(slot)
	appt.Status = model.AppointmentStatus(status)
	appt.Address.Latitude = lat
	appt.Address.Longitude = lng

	parsed, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	appt.Date = parsed
	return &appt, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func pgNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
