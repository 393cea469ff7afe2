package store_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/seed"
	"github.com/derickschaefer/workwatch/internal/store"
	"github.com/derickschaefer/workwatch/internal/view"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seededDB opens a test database and writes the default dataset into it.
func seededDB(t *testing.T) *store.Store {
	t.Helper()
	s := testDB(t)
	ds, err := seed.Default(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("seed.Default: %v", err)
	}
	if err := s.Seed(ds); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func countOf(t *testing.T, s *store.Store, bucket string) int {
	t.Helper()
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	for _, st := range stats {
		if st.Name == bucket {
			return st.Count
		}
	}
	t.Fatalf("bucket %s missing from stats", bucket)
	return 0
}

// ─── Open & Seed ──────────────────────────────────────────────────────────────

func TestOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "workwatch.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %s, got %s", path, s.Path())
	}
	seeded, err := s.Seeded()
	if err != nil || seeded {
		t.Errorf("fresh store: expected not seeded, got %v (%v)", seeded, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.PutEmployee(model.Employee{ID: 5, Name: "Дмитрий"}); err != nil {
		t.Fatalf("PutEmployee: %v", err)
	}
	s.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	e, ok, err := s.GetEmployee(5)
	if err != nil || !ok || e.Name != "Дмитрий" {
		t.Errorf("after reopen: got %+v ok=%v err=%v", e, ok, err)
	}
}

func TestSeedPopulatesEveryBucket(t *testing.T) {
	s := seededDB(t)
	want := map[string]int{
		"employees": 8, "departments": 5, "activities": 10,
		"stats": 1, "reports": 4, "templates": 3, "views": 0,
	}
	for bucket, n := range want {
		if got := countOf(t, s, bucket); got != n {
			t.Errorf("%s: expected %d rows, got %d", bucket, n, got)
		}
	}
	seeded, _ := s.Seeded()
	if !seeded {
		t.Error("expected store to be marked seeded")
	}
	at, err := s.SeededAt()
	if err != nil || at.IsZero() {
		t.Errorf("SeededAt: got %v (%v)", at, err)
	}
}

// ─── Employees ────────────────────────────────────────────────────────────────

func TestListEmployeesInIDOrder(t *testing.T) {
	s := seededDB(t)
	emps, err := s.ListEmployees()
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	for i, e := range emps {
		if e.ID != i+1 {
			t.Fatalf("position %d: expected id %d, got %d", i, i+1, e.ID)
		}
	}
}

func TestGetEmployeeMissing(t *testing.T) {
	s := seededDB(t)
	_, ok, err := s.GetEmployee(99)
	if err != nil || ok {
		t.Errorf("expected not found, got ok=%v err=%v", ok, err)
	}
}

func TestUpdateEmployee(t *testing.T) {
	s := seededDB(t)
	ok, err := s.UpdateEmployee(3, func(e model.Employee) model.Employee {
		e.Status = model.StatusBusy
		return e
	})
	if err != nil || !ok {
		t.Fatalf("UpdateEmployee: ok=%v err=%v", ok, err)
	}
	e, _, _ := s.GetEmployee(3)
	if e.Status != model.StatusBusy || e.Name != "Алексей Иванов" {
		t.Errorf("after update: got %+v", e)
	}

	ok, err = s.UpdateEmployee(99, func(e model.Employee) model.Employee { return e })
	if err != nil || ok {
		t.Errorf("unknown id: expected ok=false, got ok=%v err=%v", ok, err)
	}
}

// ─── Activities & Stats ───────────────────────────────────────────────────────

func TestListActivitiesByEmployee(t *testing.T) {
	s := seededDB(t)
	acts, err := s.ListActivities(1)
	if err != nil || len(acts) != 10 {
		t.Fatalf("employee 1: expected 10 activities, got %d (%v)", len(acts), err)
	}
	acts, _ = s.ListActivities(2)
	if len(acts) != 0 {
		t.Errorf("employee 2: expected none, got %d", len(acts))
	}
}

func TestGetStats(t *testing.T) {
	s := seededDB(t)
	st, ok, err := s.GetStats(1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil || !ok {
		t.Fatalf("GetStats: ok=%v err=%v", ok, err)
	}
	if st.ProductivityScore != 85 || len(st.TopApplications) != 3 {
		t.Errorf("stats: got %+v", st)
	}
	all, _ := s.ListStats(1)
	if len(all) != 1 {
		t.Errorf("ListStats: expected 1, got %d", len(all))
	}
}

// ─── Reports ──────────────────────────────────────────────────────────────────

func TestCreateReportAssignsNextID(t *testing.T) {
	s := seededDB(t)
	r, err := s.CreateReport(func(id int) model.Report {
		return model.Report{Title: fmt.Sprintf("Отчет %d", id), Type: model.ReportCustom, Status: model.ReportPending}
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if r.ID != 5 || r.Title != "Отчет 5" {
		t.Errorf("expected id 5, got %d (%s)", r.ID, r.Title)
	}

	empty := testDB(t)
	r, err = empty.CreateReport(func(int) model.Report { return model.Report{Title: "Первый"} })
	if err != nil || r.ID != 1 {
		t.Errorf("empty bucket: expected id 1, got %d (%v)", r.ID, err)
	}
}

func TestCreateReportNeverReusesDeletedID(t *testing.T) {
	s := seededDB(t)
	build := func(int) model.Report { return model.Report{Title: "Новый", Status: model.ReportPending} }

	first, err := s.CreateReport(build)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if ok, err := s.DeleteReport(first.ID); err != nil || !ok {
		t.Fatalf("DeleteReport(%d): ok=%v err=%v", first.ID, ok, err)
	}
	second, err := s.CreateReport(build)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("deleted id reused: first %d, after delete %d", first.ID, second.ID)
	}

	if err := s.ClearBucket("reports"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	third, err := s.CreateReport(build)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if third.ID <= second.ID {
		t.Errorf("id reused after clear: before %d, after %d", second.ID, third.ID)
	}
}

func TestDeleteReport(t *testing.T) {
	s := seededDB(t)
	ok, err := s.DeleteReport(2)
	if err != nil || !ok {
		t.Fatalf("DeleteReport: ok=%v err=%v", ok, err)
	}
	if _, found, _ := s.GetReport(2); found {
		t.Error("report 2 still present")
	}
	ok, _ = s.DeleteReport(2)
	if ok {
		t.Error("second delete should report not found")
	}
}

func TestUpdateReport(t *testing.T) {
	s := seededDB(t)
	ok, err := s.UpdateReport(3, func(r model.Report) model.Report {
		r.Status = model.ReportGenerated
		return r
	})
	if err != nil || !ok {
		t.Fatalf("UpdateReport: ok=%v err=%v", ok, err)
	}
	r, _, _ := s.GetReport(3)
	if r.Status != model.ReportGenerated {
		t.Errorf("status: got %s", r.Status)
	}
}

// ─── Views ────────────────────────────────────────────────────────────────────

func TestViewRoundTripAndFind(t *testing.T) {
	s := testDB(t)
	st := view.NewState(entity.Employees).WithStatuses("online").ToggleSort(entity.KeyProductivity)
	v := store.View{ID: "a1b2", Name: "online-by-score", Entity: "employees", State: st, CreatedAt: time.Now().UTC()}
	if err := s.PutView(v); err != nil {
		t.Fatalf("PutView: %v", err)
	}

	got, ok, err := s.FindView("online-by-score")
	if err != nil || !ok {
		t.Fatalf("FindView by name: ok=%v err=%v", ok, err)
	}
	if got.State.Key() != st.Key() {
		t.Errorf("state: expected %s, got %s", st.Key(), got.State.Key())
	}
	if _, ok, _ := s.FindView("a1b2"); !ok {
		t.Error("FindView by id failed")
	}

	if err := s.DeleteView("a1b2"); err != nil {
		t.Fatalf("DeleteView: %v", err)
	}
	views, _ := s.ListViews()
	if len(views) != 0 {
		t.Errorf("expected no views, got %d", len(views))
	}
}

// ─── Maintenance ──────────────────────────────────────────────────────────────

func TestResetKeepsViews(t *testing.T) {
	s := seededDB(t)
	_ = s.PutView(store.View{ID: "v1", Name: "keep", Entity: "employees"})
	_, _ = s.DeleteReport(1)
	_ = s.PutEmployee(model.Employee{ID: 42, Name: "Лишний"})

	ds, _ := seed.Default(time.Now())
	if err := s.Reset(ds); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := countOf(t, s, "employees"); got != 8 {
		t.Errorf("employees after reset: expected 8, got %d", got)
	}
	if got := countOf(t, s, "reports"); got != 4 {
		t.Errorf("reports after reset: expected 4, got %d", got)
	}
	if got := countOf(t, s, "views"); got != 1 {
		t.Errorf("views after reset: expected 1, got %d", got)
	}
}

func TestClearBucket(t *testing.T) {
	s := seededDB(t)
	if err := s.ClearBucket("activities"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	if got := countOf(t, s, "activities"); got != 0 {
		t.Errorf("expected 0 activities, got %d", got)
	}
	if err := s.ClearBucket("_meta"); !errors.Is(err, store.ErrUnknownBucket) {
		t.Errorf("expected ErrUnknownBucket, got %v", err)
	}
}

func TestClearAllForgetsSeed(t *testing.T) {
	s := seededDB(t)
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	for _, b := range store.AllBuckets {
		if got := countOf(t, s, b); got != 0 {
			t.Errorf("%s: expected empty, got %d", b, got)
		}
	}
	if seeded, _ := s.Seeded(); seeded {
		t.Error("expected store to be unseeded after ClearAll")
	}
}
