package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	eventsQuery = `
SELECT e.id, e.titulo, e.igreja_id, e.created_at, e.data_inicio, COALESCE(e.limit_maximo_inscritos, 0)
FROM eventos e
WHERE e.igreja_id = $1`

	fieldsQuery = `
SELECT f.id, f.evento_id, f.label
FROM event_dynamic_fields f
JOIN eventos e ON e.id = f.evento_id
WHERE e.igreja_id = $1
ORDER BY f.evento_id, f.id`

	enrollmentsQuery = `
SELECT i.id, i.evento_id, COALESCE(i.status, ''), COALESCE(i.canceled, false), i.created_at,
       COALESCE(i.serial_event_dynamic_fields, '')
FROM inscricaos i
JOIN eventos e ON e.id = i.evento_id
WHERE e.igreja_id = $1`

	// amount is read as text so no precision is lost on the way to decimal.
	transactionsQuery = `
SELECT t.id, t.enrollment_id, COALESCE(t.counts_for, ''), t.amount::text, t.credit, t.created_at
FROM transactions t
JOIN inscricaos i ON i.id = t.enrollment_id
JOIN eventos e ON e.id = i.evento_id
WHERE e.igreja_id = $1`
)

// PostgresSource loads the records of one organization from the operational database.
type PostgresSource struct {
	db    Querier
	orgID int64
	now   func() time.Time
}

// NewPostgresSource creates a source reading through db.
func NewPostgresSource(db Querier, orgID int64) *PostgresSource {
	return &PostgresSource{db: db, orgID: orgID, now: time.Now}
}

// OpenPool connects to databaseURL and verifies the connection.
func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string { return "postgres" }

// Load runs one query per table and assembles a snapshot.
func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	b := newBuilder(s.orgID)
	if err := s.loadEvents(ctx, b); err != nil {
		return nil, err
	}
	if err := s.loadFields(ctx, b); err != nil {
		return nil, err
	}
	if err := s.loadEnrollments(ctx, b); err != nil {
		return nil, err
	}
	if err := s.loadTransactions(ctx, b); err != nil {
		return nil, err
	}
	return b.build(s.Name(), s.now()), nil
}

func (s *PostgresSource) each(ctx context.Context, table, query string, scans []any, fn func() error) error {
	rows, err := s.db.Query(ctx, query, s.orgID)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	if _, err := pgx.ForEachRow(rows, scans, fn); err != nil {
		return fmt.Errorf("scan %s: %w", table, err)
	}
	return nil
}

func (s *PostgresSource) loadEvents(ctx context.Context, b *builder) error {
	var (
		ev             event.Event
		name           *string
		opening, start *time.Time
		target         int64
	)
	skipped := 0
	err := s.each(ctx, "eventos", eventsQuery, []any{&ev.ID, &name, &ev.OrgID, &opening, &start, &target}, func() error {
		if opening == nil || start == nil {
			skipped++
			return nil
		}
		e := ev
		if name != nil {
			e.Name = *name
		}
		e.OpeningDate, e.StartDate = opening.UTC(), start.UTC()
		e.TargetEnrollments = int(target)
		b.addEvent(e)
		return nil
	})
	if skipped > 0 {
		slog.Warn("events without dates skipped", "count", skipped)
	}
	return err
}

func (s *PostgresSource) loadFields(ctx context.Context, b *builder) error {
	var (
		f     event.FieldDefinition
		label *string
	)
	return s.each(ctx, "event_dynamic_fields", fieldsQuery, []any{&f.ID, &f.EventID, &label}, func() error {
		def := f
		if label != nil {
			def.Label = *label
		}
		b.addField(def)
		return nil
	})
}

func (s *PostgresSource) loadEnrollments(ctx context.Context, b *builder) error {
	var (
		e       event.Enrollment
		status  string
		created *time.Time
		answers string
	)
	skipped := 0
	err := s.each(ctx, "inscricaos", enrollmentsQuery, []any{&e.ID, &e.EventID, &status, &e.Canceled, &created, &answers}, func() error {
		if created == nil {
			skipped++
			return nil
		}
		en := e
		en.Status = event.ParseStatus(status)
		en.CreatedAt = created.UTC()
		b.addEnrollment(en, answers)
		return nil
	})
	if skipped > 0 {
		slog.Warn("enrollments without creation time skipped", "count", skipped)
	}
	return err
}

func (s *PostgresSource) loadTransactions(ctx context.Context, b *builder) error {
	var (
		id, enrollmentID int64
		scope            string
		amount           *string
		credit           *bool
		date             *time.Time
	)
	return s.each(ctx, "transactions", transactionsQuery, []any{&id, &enrollmentID, &scope, &amount, &credit, &date}, func() error {
		t := event.Transaction{
			ID:           id,
			EnrollmentID: enrollmentID,
			CountsFor:    event.Scope(strings.ToLower(strings.TrimSpace(scope))),
		}
		if amount != nil {
			if a, err := event.ParseAmount(*amount); err == nil {
				t.Amount = &a
			}
		}
		if credit != nil {
			c := *credit
			t.Credit = &c
		}
		if date != nil {
			d := date.UTC()
			t.Date = &d
		}
		b.addTransaction(t)
		return nil
	})
}
