package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Export file names inside the data directory.
const (
	EventsFile       = "events.csv"
	EnrollmentsFile  = "enrollments.csv"
	TransactionsFile = "transactions.csv"
	FieldsFile       = "event_dynamic_fields.csv"
)

// CSVSource reads periodic table exports from a directory.
type CSVSource struct {
	dir   string
	orgID int64
	now   func() time.Time
}

// NewCSVSource creates a source over dir, keeping only events of orgID.
func NewCSVSource(dir string, orgID int64) *CSVSource {
	return &CSVSource{dir: dir, orgID: orgID, now: time.Now}
}

// Name identifies the source in logs.
func (s *CSVSource) Name() string { return "csv:" + s.dir }

// Load parses every export file into a snapshot. The dynamic fields file is optional.
func (s *CSVSource) Load(ctx context.Context) (*Snapshot, error) {
	b := newBuilder(s.orgID)
	files := []struct {
		name     string
		optional bool
		parse    func(row) error
	}{
		{EventsFile, false, func(r row) error { return readEvent(b, r) }},
		{FieldsFile, true, func(r row) error { return readField(b, r) }},
		{EnrollmentsFile, false, func(r row) error { return readEnrollment(b, r) }},
		{TransactionsFile, false, func(r row) error { return readTransaction(b, r) }},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := s.readFile(f.name, f.parse)
		if f.optional && errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return b.build(s.Name(), s.now()), nil
}

func (s *CSVSource) readFile(name string, fn func(row) error) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read %s header: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	line := 1
	skipped := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		if err := fn(row{cols: cols, values: rec}); err != nil {
			skipped++
			slog.Debug("skipping malformed row", "file", name, "line", line, "err", err)
		}
	}
	if skipped > 0 {
		slog.Warn("malformed rows skipped", "file", name, "count", skipped)
	}
	return nil
}

// row gives access to a CSV record by column name.
type row struct {
	cols   map[string]int
	values []string
}

// get returns the trimmed value of col, or "" when the column is absent.
func (r row) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r row) integer(col string) (int64, error) {
	v := r.get(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// pandas writes integer columns with NaNs as floats ("12.0").
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		return int64(f), nil
	}
	return n, nil
}

func (r row) timestamp(col string) (time.Time, error) {
	t, err := event.ParseTimestamp(r.get(col))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", col, err)
	}
	return t, nil
}

func readEvent(b *builder, r row) error {
	id, err := r.integer("id")
	if err != nil {
		return err
	}
	org, err := r.integer("org_id")
	if err != nil {
		return err
	}
	opening, err := r.timestamp("created_at")
	if err != nil {
		return err
	}
	start, err := r.timestamp("start_date")
	if err != nil {
		return err
	}
	target, _ := r.integer("target_enrollments")
	b.addEvent(event.Event{
		ID:                id,
		Name:              r.get("name"),
		OrgID:             org,
		OpeningDate:       opening,
		StartDate:         start,
		TargetEnrollments: int(target),
	})
	return nil
}

func readField(b *builder, r row) error {
	id, err := r.integer("id")
	if err != nil {
		return err
	}
	evID, err := r.integer("event_id")
	if err != nil {
		return err
	}
	b.addField(event.FieldDefinition{ID: id, EventID: evID, Label: r.get("label")})
	return nil
}

func readEnrollment(b *builder, r row) error {
	id, err := r.integer("id")
	if err != nil {
		return err
	}
	evID, err := r.integer("event_id")
	if err != nil {
		return err
	}
	created, err := r.timestamp("created_at")
	if err != nil {
		return err
	}
	canceled := false
	if v := r.get("canceled"); v != "" {
		if canceled, err = event.ParseBool(v); err != nil {
			return fmt.Errorf("canceled: %w", err)
		}
	}
	b.addEnrollment(event.Enrollment{
		ID:        id,
		EventID:   evID,
		Status:    event.ParseStatus(r.get("status")),
		Canceled:  canceled,
		CreatedAt: created,
	}, r.get("dynamic_fields"))
	return nil
}

// readTransaction keeps rows with unreadable amount, credit or date; those
// values are left nil so the validity filter excludes and counts them.
func readTransaction(b *builder, r row) error {
	id, err := r.integer("id")
	if err != nil {
		return err
	}
	enrollmentID, err := r.integer("enrollment_id")
	if err != nil {
		return err
	}
	t := event.Transaction{
		ID:           id,
		EnrollmentID: enrollmentID,
		CountsFor:    event.Scope(strings.ToLower(r.get("counts_for"))),
	}
	if v := r.get("amount"); v != "" {
		if a, err := event.ParseAmount(v); err == nil {
			t.Amount = &a
		}
	}
	if v := r.get("credit"); v != "" {
		if c, err := event.ParseBool(v); err == nil {
			t.Credit = &c
		}
	}
	if v := r.get("transaction_date"); v != "" {
		if d, err := event.ParseTimestamp(v); err == nil {
			t.Date = &d
		}
	}
	b.addTransaction(t)
	return nil
}
