package store

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Snapshot is an immutable in-memory copy of the records of one organization.
type Snapshot struct {
	LoadedAt time.Time
	Source   string

	events       []event.Event // ordered by name
	byID         map[int64]int
	enrollments  map[int64][]event.Enrollment
	transactions map[int64][]event.Transaction
	fields       map[int64][]event.FieldDefinition
}

// Events returns every event, ordered case-insensitively by name.
func (s *Snapshot) Events() []event.Event { return s.events }

// Event looks up a single event.
func (s *Snapshot) Event(id int64) (event.Event, bool) {
	i, ok := s.byID[id]
	if !ok {
		return event.Event{}, false
	}
	return s.events[i], true
}

// Dataset returns the records of one event. The slices are shared with the
// snapshot and must not be modified.
func (s *Snapshot) Dataset(id int64) (event.Dataset, bool) {
	ev, ok := s.Event(id)
	if !ok {
		return event.Dataset{}, false
	}
	return event.Dataset{
		Event:        ev,
		Enrollments:  s.enrollments[id],
		Transactions: s.transactions[id],
		Fields:       s.fields[id],
	}, true
}

// Counts reports how many records of each kind the snapshot holds.
func (s *Snapshot) Counts() map[string]int {
	c := map[string]int{"events": len(s.events)}
	for _, v := range s.enrollments {
		c["enrollments"] += len(v)
	}
	for _, v := range s.transactions {
		c["transactions"] += len(v)
	}
	for _, v := range s.fields {
		c["fields"] += len(v)
	}
	return c
}

type pendingEnrollment struct {
	enrollment event.Enrollment
	rawAnswers string
}

// builder assembles a Snapshot from rows in any order. Rows belonging to
// events outside the organization are discarded.
type builder struct {
	orgID        int64
	events       map[int64]event.Event
	enrollments  []pendingEnrollment
	transactions []event.Transaction
	fields       []event.FieldDefinition
}

func newBuilder(orgID int64) *builder {
	return &builder{orgID: orgID, events: make(map[int64]event.Event)}
}

func (b *builder) addEvent(ev event.Event) {
	if ev.OrgID != b.orgID {
		return
	}
	b.events[ev.ID] = ev
}

func (b *builder) addEnrollment(e event.Enrollment, rawAnswers string) {
	b.enrollments = append(b.enrollments, pendingEnrollment{enrollment: e, rawAnswers: rawAnswers})
}

func (b *builder) addTransaction(t event.Transaction) {
	b.transactions = append(b.transactions, t)
}

func (b *builder) addField(f event.FieldDefinition) {
	b.fields = append(b.fields, f)
}

func (b *builder) build(source string, now time.Time) *Snapshot {
	s := &Snapshot{
		LoadedAt:     now,
		Source:       source,
		byID:         make(map[int64]int, len(b.events)),
		enrollments:  make(map[int64][]event.Enrollment),
		transactions: make(map[int64][]event.Transaction),
		fields:       make(map[int64][]event.FieldDefinition),
	}

	for _, ev := range b.events {
		s.events = append(s.events, ev)
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		a, c := strings.ToLower(s.events[i].Name), strings.ToLower(s.events[j].Name)
		if a != c {
			return a < c
		}
		return s.events[i].ID < s.events[j].ID
	})
	for i, ev := range s.events {
		s.byID[ev.ID] = i
	}

	for _, f := range b.fields {
		if _, ok := s.byID[f.EventID]; ok {
			s.fields[f.EventID] = append(s.fields[f.EventID], f)
		}
	}
	catalogs := make(map[int64]event.Catalog, len(s.fields))
	for id, defs := range s.fields {
		catalogs[id] = event.NewCatalog(defs)
	}

	eventOf := make(map[int64]int64, len(b.enrollments))
	for _, p := range b.enrollments {
		e := p.enrollment
		if _, ok := s.byID[e.EventID]; !ok {
			continue
		}
		answers, n, err := event.DecodeAnswers(p.rawAnswers, catalogs[e.EventID])
		if err != nil {
			slog.Debug("enrollment answers unreadable, treating as unanswered", "enrollment_id", e.ID, "err", err)
		}
		e.Answers = answers
		e.DroppedAnswers = n
		eventOf[e.ID] = e.EventID
		s.enrollments[e.EventID] = append(s.enrollments[e.EventID], e)
	}

	for _, t := range b.transactions {
		evID, ok := eventOf[t.EnrollmentID]
		if !ok {
			continue
		}
		s.transactions[evID] = append(s.transactions[evID], t)
	}
	return s
}
