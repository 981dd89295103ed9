// Package storetest provides a small CSV data set for tests of packages that
// consume snapshots.
package storetest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
)

// OrgID is the organization every fixture event belongs to.
const OrgID = 17881

// Fixture events.
const (
	// RetreatID opens 2024-01-01 and starts 2024-01-11 with a target of 50.
	// Enrollments 100 and 101 are eligible (102 is refused, 103 canceled).
	// Net revenue is 180: 1003 belongs to the refused enrollment and 1004
	// counts for the participant only.
	RetreatID = 1

	// CampID opens and starts on the same day.
	CampID = 2
)

var files = map[string]string{
	store.EventsFile: `id,name,org_id,created_at,start_date,target_enrollments
1,Retiro,17881,2024-01-01 00:00:00,2024-01-11 00:00:00,50
2,Acampamento,17881,2024-02-01 00:00:00,2024-02-01 00:00:00,10
`,
	store.FieldsFile: `id,event_id,label
10,1,Camiseta
11,1,Igreja
`,
	store.EnrollmentsFile: `id,event_id,status,canceled,created_at,dynamic_fields
100,1,Ok,False,2024-01-02 09:00:00,"10: M
11: Central"
101,1,Ok,False,2024-01-09 09:00:00,10: G
102,1,Refused,False,2024-01-05 00:00:00,
103,1,Ok,True,2024-01-05 00:00:00,
200,2,Ok,False,2024-01-20 00:00:00,
`,
	store.TransactionsFile: `id,enrollment_id,amount,credit,counts_for,transaction_date
1000,100,100.00,True,both,2024-01-02 09:00:00
1001,101,100.00,True,both,2024-01-09 09:00:00
1002,101,20.00,False,both,2024-01-10 09:00:00
1003,102,100,True,both,2024-01-05 00:00:00
1004,100,5,True,participant_only,2024-01-03 00:00:00
`,
}

// WriteCSV writes the fixture export files into a fresh temp dir.
func WriteCSV(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// Store returns a store already refreshed from the fixture.
func Store(t testing.TB) *store.Store {
	t.Helper()
	s := store.New(store.NewCSVSource(WriteCSV(t), OrgID))
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh fixture store: %v", err)
	}
	return s
}
