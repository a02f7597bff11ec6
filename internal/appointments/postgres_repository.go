package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Partial unique indexes on active appointments. Violations are how the
// database reports a lost booking race.
const (
	slotConstraint      = "idx_appointments_slot_active"
	phoneDateConstraint = "idx_appointments_phone_date_active"
)

// PgxPool is the subset of pgxpool.Pool the repository uses. pgxmock
// implements it for tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database. The
// partial unique indexes make Insert and Update atomic check-and-write
// operations: a conflicting write fails with a unique violation instead of
// silently double-booking.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const apptColumns = `id, owner_name, pet_name, pet_type, phone,
		COALESCE(email, ''), service_type, COALESCE(reason, ''), COALESCE(notes, ''),
		scheduled_date, time_slot, preferred_datetime,
		COALESCE(session_id, ''), COALESCE(user_id, ''), COALESCE(source, ''),
		status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a    Appointment
		date time.Time
	)
	err := row.Scan(
		&a.ID,
		&a.OwnerName,
		&a.PetName,
		&a.PetType,
		&a.Phone,
		&a.Email,
		&a.ServiceType,
		&a.Reason,
		&a.Notes,
		&date,
		&a.TimeSlot,
		&a.PreferredDateTime,
		&a.SessionID,
		&a.UserID,
		&a.Source,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ScheduledDate = date.Format(DateLayout)
	return &a, nil
}

func conflictError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case phoneDateConstraint:
		return ErrDuplicateBooking
	default:
		return ErrSlotTaken
	}
}

// Insert writes a new row. A unique violation on the active-slot index maps
// to ErrSlotTaken, on the phone/date index to ErrDuplicateBooking.
func (r *PostgresRepository) Insert(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, owner_name, pet_name, pet_type, phone, email, service_type,
			reason, notes, scheduled_date, time_slot, preferred_datetime,
			session_id, user_id, source, status
		)
		VALUES (
			$1, $2, $3, $4, $5, NULLIF($6, ''), $7,
			NULLIF($8, ''), NULLIF($9, ''), $10::date, $11, $12,
			NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''), $16
		)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.OwnerName,
		appt.PetName,
		appt.PetType,
		appt.Phone,
		appt.Email,
		appt.ServiceType,
		appt.Reason,
		appt.Notes,
		appt.ScheduledDate,
		appt.TimeSlot,
		appt.PreferredDateTime,
		appt.SessionID,
		appt.UserID,
		appt.Source,
		appt.Status,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// Update rewrites every editable column. Moving onto an occupied slot fails
// the same way Insert does.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET owner_name = $2, pet_name = $3, pet_type = $4, phone = $5,
			email = NULLIF($6, ''), service_type = $7, reason = NULLIF($8, ''),
			notes = NULLIF($9, ''), scheduled_date = $10::date, time_slot = $11,
			preferred_datetime = $12, status = $13, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.OwnerName,
		appt.PetName,
		appt.PetType,
		appt.Phone,
		appt.Email,
		appt.ServiceType,
		appt.Reason,
		appt.Notes,
		appt.ScheduledDate,
		appt.TimeSlot,
		appt.PreferredDateTime,
		appt.Status,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if conflict := conflictError(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("appointments: update: %w", err)
	}
	return nil
}

// UpdateStatus advances the lifecycle status and returns the updated row.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

// Delete removes a row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// FindByID fetches one appointment.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return appt, nil
}

// FindBySession lists the appointments booked from one conversation session.
func (r *PostgresRepository) FindBySession(ctx context.Context, sessionID string) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE session_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("appointments: select by session: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// FindConflicting reports whether an active appointment other than excludeID
// occupies the slot.
func (r *PostgresRepository) FindConflicting(ctx context.Context, date time.Time, slot, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE scheduled_date = $1::date
			  AND time_slot = $2
			  AND status NOT IN ('cancelled', 'no_show')
			  AND ($3 = '' OR id::text <> $3)
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, date.Format(DateLayout), slot, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("appointments: conflict check: %w", err)
	}
	return exists, nil
}

// HasActiveBooking reports whether the phone already holds an active
// appointment on the date.
func (r *PostgresRepository) HasActiveBooking(ctx context.Context, phone string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE phone = $1
			  AND scheduled_date = $2::date
			  AND status NOT IN ('cancelled', 'no_show')
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, phone, date.Format(DateLayout)).Scan(&exists); err != nil {
		return false, fmt.Errorf("appointments: duplicate check: %w", err)
	}
	return exists, nil
}

// List returns appointments matching the filter ordered by date then slot.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments`
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, f.From.Format(DateLayout))
		where = append(where, fmt.Sprintf("scheduled_date >= $%d::date", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.Format(DateLayout))
		where = append(where, fmt.Sprintf("scheduled_date <= $%d::date", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Phone != "" {
		args = append(args, NormalizePhone(f.Phone))
		where = append(where, fmt.Sprintf("phone = $%d", len(args)))
	}
	if f.SessionID != "" {
		args = append(args, f.SessionID)
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_date, time_slot"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListBookedSlots returns the slots occupied by active appointments on the
// date. It satisfies the availability engine's store interface.
func (r *PostgresRepository) ListBookedSlots(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	query := `
		SELECT time_slot FROM appointments
		WHERE scheduled_date = $1::date
		  AND status NOT IN ('cancelled', 'no_show')
	`
	rows, err := r.pool.Query(ctx, query, date.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("appointments: booked slots: %w", err)
	}
	defer rows.Close()

	slots := make(map[string]struct{})
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("appointments: booked slots scan: %w", err)
		}
		slots[slot] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked slots rows: %w", err)
	}
	return slots, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan row: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate rows: %w", err)
	}
	return out, nil
}
