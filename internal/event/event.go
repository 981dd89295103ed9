package event

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is the reference every lead-time offset is computed against.
type Event struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	OrgID             int64     `json:"org_id"`
	OpeningDate       time.Time `json:"opening_date"` // registrations open
	StartDate         time.Time `json:"start_date"`
	TargetEnrollments int       `json:"target_enrollments"`
}

// EnrollmentStatus is the registration state reported by the data store.
type EnrollmentStatus string

const (
	StatusOk      EnrollmentStatus = "Ok"
	StatusPending EnrollmentStatus = "Pending"
)

// ParseStatus normalises raw status strings ("OK", "ok", "pending").
// Unknown values are kept verbatim so they can be reported.
func ParseStatus(raw string) EnrollmentStatus {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "ok":
		return StatusOk
	case "pending":
		return StatusPending
	}
	return EnrollmentStatus(s)
}

// Enrollment is one person's registration for an event.
type Enrollment struct {
	ID        int64            `json:"id"`
	EventID   int64            `json:"event_id"`
	Status    EnrollmentStatus `json:"status"`
	Canceled  bool             `json:"canceled"`
	CreatedAt time.Time        `json:"created_at"`
	Answers   Answers          `json:"answers,omitempty"`

	// DroppedAnswers counts answers discarded while decoding because their
	// field is not in the event catalog.
	DroppedAnswers int `json:"-"`
}

// Scope says whose balance a transaction counts for.
type Scope string

const (
	ScopeBoth             Scope = "both"
	ScopeOrganizationOnly Scope = "organization_only"
	ScopeParticipantOnly  Scope = "participant_only"
)

// Transaction is a money movement attached to an enrollment.
// Amount, Credit and Date are nil when the upstream row did not carry them.
type Transaction struct {
	ID           int64            `json:"id"`
	EnrollmentID int64            `json:"enrollment_id"`
	CountsFor    Scope            `json:"counts_for"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Credit       *bool            `json:"credit,omitempty"`
	Date         *time.Time       `json:"transaction_date,omitempty"`
}

// FieldDefinition is a custom form field configured for an event.
type FieldDefinition struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	Label   string `json:"label"`
}

// Dataset is everything known about a single event.
type Dataset struct {
	Event        Event
	Enrollments  []Enrollment
	Transactions []Transaction
	Fields       []FieldDefinition
}
