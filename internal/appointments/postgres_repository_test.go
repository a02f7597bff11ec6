package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func TestPostgresInsert(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	appt := testAppointment("09:30", "+15551234567")
	appt.ID = "5a7d3e5c-0b1f-4c5e-9a39-df1b4f2a9c01"

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(
			appt.ID, appt.OwnerName, appt.PetName, appt.PetType, appt.Phone,
			appt.Email, appt.ServiceType, appt.Reason, appt.Notes,
			appt.ScheduledDate, appt.TimeSlot, appt.PreferredDateTime,
			appt.SessionID, appt.UserID, appt.Source, appt.Status,
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := repo.Insert(context.Background(), appt); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !appt.CreatedAt.Equal(now) {
		t.Errorf("expected created_at backfilled, got %v", appt.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresInsertUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"slot taken", slotConstraint, ErrSlotTaken},
		{"duplicate phone", phoneDateConstraint, ErrDuplicateBooking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)

			args := make([]any, 16)
			for i := range args {
				args[i] = pgxmock.AnyArg()
			}
			mock.ExpectQuery("INSERT INTO appointments").
				WithArgs(args...).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.Insert(context.Background(), testAppointment("09:30", "+15551234567"))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func apptRow(appt *Appointment, date time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "owner_name", "pet_name", "pet_type", "phone",
		"email", "service_type", "reason", "notes",
		"scheduled_date", "time_slot", "preferred_datetime",
		"session_id", "user_id", "source",
		"status", "created_at", "updated_at",
	}).AddRow(
		appt.ID, appt.OwnerName, appt.PetName, appt.PetType, appt.Phone,
		appt.Email, appt.ServiceType, appt.Reason, appt.Notes,
		date, appt.TimeSlot, appt.PreferredDateTime,
		appt.SessionID, appt.UserID, appt.Source,
		appt.Status, appt.CreatedAt, appt.UpdatedAt,
	)
}

func TestPostgresFindByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	appt := testAppointment("09:30", "+15551234567")
	appt.ID = "5a7d3e5c-0b1f-4c5e-9a39-df1b4f2a9c01"
	appt.CreatedAt = time.Now().UTC()
	appt.UpdatedAt = appt.CreatedAt
	date := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs(appt.ID).
		WillReturnRows(apptRow(appt, date))

	got, err := repo.FindByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ScheduledDate != "2026-01-30" {
		t.Errorf("expected date formatted from the DATE column, got %q", got.ScheduledDate)
	}
	if got.OwnerName != appt.OwnerName || got.Status != StatusPending {
		t.Errorf("unexpected appointment: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresFindByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestPostgresUpdateStatusNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("UPDATE appointments").
		WithArgs("missing", StatusConfirmed).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.UpdateStatus(context.Background(), "missing", StatusConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestPostgresFindConflicting(t *testing.T) {
	mock, repo := newMockRepo(t)
	date := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("2026-01-30", "09:30", "").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.FindConflicting(context.Background(), date, "09:30", "")
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	if !taken {
		t.Error("expected slot to be reported taken")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListBookedSlots(t *testing.T) {
	mock, repo := newMockRepo(t)
	date := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT time_slot FROM appointments").
		WithArgs("2026-01-30").
		WillReturnRows(pgxmock.NewRows([]string{"time_slot"}).AddRow("09:30").AddRow("14:00"))

	slots, err := repo.ListBookedSlots(context.Background(), date)
	if err != nil {
		t.Fatalf("booked slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %v", slots)
	}
	if _, ok := slots["09:30"]; !ok {
		t.Error("expected 09:30 in booked set")
	}
}

func TestPostgresDelete(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("some-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("gone-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "some-id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(context.Background(), "gone-id"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListBuildsFilters(t *testing.T) {
	mock, repo := newMockRepo(t)
	day := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	appt := testAppointment("09:30", "+15551234567")
	appt.ID = "5a7d3e5c-0b1f-4c5e-9a39-df1b4f2a9c01"

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE scheduled_date >= .+ AND scheduled_date <= .+ AND status =").
		WithArgs("2026-01-30", "2026-01-30", StatusPending).
		WillReturnRows(apptRow(appt, day))

	got, err := repo.List(context.Background(), Filter{From: day, To: day, Status: StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != appt.ID {
		t.Errorf("unexpected listing: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
