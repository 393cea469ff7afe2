// Package store provides a thin bbolt wrapper for workwatch's local data store.
//
// The store plays the part of the monitoring backend: the provider reads and
// writes whole records here, and the store is seeded from the built-in
// dataset on first use. Values are JSON; keys are zero-padded ids so bucket
// iteration returns records in id order.
//
// Buckets:
//
//	employees    employee records keyed by id
//	reports      report records keyed by id
//	departments  department names and colours keyed by id
//	activities   activity intervals keyed by id
//	stats        daily employee rollups keyed by employee id and date
//	templates    report templates keyed by id
//	views        saved filter/sort states keyed by uuid
//	_meta        internal: schema version, created_at, seeded_at
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/seed"
	"github.com/derickschaefer/workwatch/internal/util"
	"github.com/derickschaefer/workwatch/internal/view"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketEmployees   = []byte("employees")
	bucketReports     = []byte("reports")
	bucketDepartments = []byte("departments")
	bucketActivities  = []byte("activities")
	bucketStats       = []byte("stats")
	bucketTemplates   = []byte("templates")
	bucketViews       = []byte("views")
	bucketInternal    = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"employees", "reports", "departments", "activities", "stats", "templates", "views"}

// DataBuckets are the buckets a dataset reset replaces. Saved views survive.
var DataBuckets = []string{"employees", "reports", "departments", "activities", "stats", "templates"}

// ErrUnknownBucket is returned by ClearBucket for a name not in AllBuckets.
var ErrUnknownBucket = errors.New("store: unknown bucket")

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range append(bucketNames(AllBuckets), bucketInternal) {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

func bucketNames(names []string) [][]byte {
	out := make([][]byte, len(names))
	for i, n := range names {
		out[i] = []byte(n)
	}
	return out
}

// ─── Encoding Helpers ─────────────────────────────────────────────────────────

func idKey(id int) []byte {
	return []byte(fmt.Sprintf("%08d", id))
}

func statsKey(employeeID int, date time.Time) []byte {
	return []byte(fmt.Sprintf("%08d|%s", employeeID, util.FormatDate(date)))
}

func putJSON(tx *bolt.Tx, bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", bucket, err)
	}
	return tx.Bucket(bucket).Put(key, data)
}

// getJSON decodes the value under key into a T.
// Returns (v, true, nil) if found, (zero, false, nil) if not found.
func getJSON[T any](db *bolt.DB, bucket, key []byte) (T, bool, error) {
	var v T
	var found bool
	err := db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get(key)
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &v)
	})
	if err != nil {
		return v, false, fmt.Errorf("decoding %s/%s: %w", bucket, key, err)
	}
	return v, found, nil
}

// listJSON decodes every value in bucket in key order. keep, if non-nil,
// filters decoded values.
func listJSON[T any](db *bolt.DB, bucket []byte, keep func(T) bool) ([]T, error) {
	out := []T{}
	err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, raw []byte) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decoding %s/%s: %w", bucket, k, err)
			}
			if keep == nil || keep(v) {
				out = append(out, v)
			}
			return nil
		})
	})
	return out, err
}

// ─── Seeding ──────────────────────────────────────────────────────────────────

// Seeded reports whether a dataset has been written to the store.
func (s *Store) Seeded() (bool, error) {
	var seeded bool
	err := s.db.View(func(tx *bolt.Tx) error {
		seeded = tx.Bucket(bucketInternal).Get([]byte("seeded_at")) != nil
		return nil
	})
	return seeded, err
}

// SeededAt returns when the current dataset was written.
func (s *Store) SeededAt() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketInternal).Get([]byte("seeded_at"))
		if raw == nil {
			return nil
		}
		var perr error
		t, perr = time.Parse(time.RFC3339, string(raw))
		return perr
	})
	return t, err
}

// Seed writes ds into the data buckets in a single transaction and records
// the seed time. Existing records with the same ids are overwritten.
func (s *Store) Seed(ds *seed.Dataset) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return writeDataset(tx, ds)
	})
}

// Reset replaces the contents of every data bucket with ds atomically.
// Saved views are kept.
func (s *Store) Reset(ds *seed.Dataset) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range DataBuckets {
			if err := recreate(tx, []byte(name)); err != nil {
				return err
			}
		}
		return writeDataset(tx, ds)
	})
}

func writeDataset(tx *bolt.Tx, ds *seed.Dataset) error {
	for _, e := range ds.Employees {
		if err := putJSON(tx, bucketEmployees, idKey(e.ID), e); err != nil {
			return err
		}
	}
	for _, d := range ds.Departments {
		if err := putJSON(tx, bucketDepartments, idKey(d.ID), d); err != nil {
			return err
		}
	}
	for _, a := range ds.Activities {
		if err := putJSON(tx, bucketActivities, idKey(a.ID), a); err != nil {
			return err
		}
	}
	for _, st := range ds.Stats {
		if err := putJSON(tx, bucketStats, statsKey(st.EmployeeID, st.Date), st); err != nil {
			return err
		}
	}
	for _, r := range ds.Reports {
		if err := putJSON(tx, bucketReports, idKey(r.ID), r); err != nil {
			return err
		}
	}
	if err := raiseSequence(tx.Bucket(bucketReports)); err != nil {
		return err
	}
	for _, t := range ds.Templates {
		if err := putJSON(tx, bucketTemplates, idKey(t.ID), t); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketInternal).Put([]byte("seeded_at"), []byte(time.Now().UTC().Format(time.RFC3339)))
}

// ─── Employees ────────────────────────────────────────────────────────────────

// ListEmployees returns all employees in id order.
func (s *Store) ListEmployees() ([]model.Employee, error) {
	return listJSON[model.Employee](s.db, bucketEmployees, nil)
}

// GetEmployee retrieves an employee by id.
func (s *Store) GetEmployee(id int) (model.Employee, bool, error) {
	return getJSON[model.Employee](s.db, bucketEmployees, idKey(id))
}

// PutEmployee stores e, replacing any record with the same id.
func (s *Store) PutEmployee(e model.Employee) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, bucketEmployees, idKey(e.ID), e)
	})
}

// UpdateEmployee applies fn to the stored employee with id inside one
// transaction. It returns false if no such employee exists.
func (s *Store) UpdateEmployee(id int, fn func(model.Employee) model.Employee) (bool, error) {
	return update(s.db, bucketEmployees, idKey(id), fn)
}

// ─── Departments ──────────────────────────────────────────────────────────────

// ListDepartments returns all departments in id order.
func (s *Store) ListDepartments() ([]model.Department, error) {
	return listJSON[model.Department](s.db, bucketDepartments, nil)
}

// ─── Activities & Stats ───────────────────────────────────────────────────────

// ListActivities returns the activities of one employee in id order.
// employeeID 0 returns every activity.
func (s *Store) ListActivities(employeeID int) ([]model.Activity, error) {
	return listJSON(s.db, bucketActivities, func(a model.Activity) bool {
		return employeeID == 0 || a.EmployeeID == employeeID
	})
}

// ListStats returns every daily rollup of one employee in date order.
func (s *Store) ListStats(employeeID int) ([]model.EmployeeStats, error) {
	return listJSON(s.db, bucketStats, func(st model.EmployeeStats) bool {
		return st.EmployeeID == employeeID
	})
}

// GetStats retrieves the rollup for one employee on one day.
func (s *Store) GetStats(employeeID int, date time.Time) (model.EmployeeStats, bool, error) {
	return getJSON[model.EmployeeStats](s.db, bucketStats, statsKey(employeeID, date))
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// ListReports returns all reports in id order.
func (s *Store) ListReports() ([]model.Report, error) {
	return listJSON[model.Report](s.db, bucketReports, nil)
}

// GetReport retrieves a report by id.
func (s *Store) GetReport(id int) (model.Report, bool, error) {
	return getJSON[model.Report](s.db, bucketReports, idKey(id))
}

// UpdateReport applies fn to the stored report with id inside one
// transaction. It returns false if no such report exists.
func (s *Store) UpdateReport(id int, fn func(model.Report) model.Report) (bool, error) {
	return update(s.db, bucketReports, idKey(id), fn)
}

// CreateReport stores the report build returns under the next id from the
// bucket sequence and returns it. Ids of deleted reports are never handed
// out again.
func (s *Store) CreateReport(build func(id int) model.Report) (model.Report, error) {
	var r model.Report
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if err := raiseSequence(b); err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating report id: %w", err)
		}
		next := int(seq)
		r = build(next)
		r.ID = next
		return putJSON(tx, bucketReports, idKey(r.ID), r)
	})
	return r, err
}

// raiseSequence lifts b's sequence to its highest stored id, so records
// written with explicit ids are never shadowed by a new one.
func raiseSequence(b *bolt.Bucket) error {
	k, _ := b.Cursor().Last()
	if k == nil {
		return nil
	}
	var last uint64
	if _, err := fmt.Sscanf(string(k), "%d", &last); err != nil {
		return fmt.Errorf("parsing key %q: %w", k, err)
	}
	if last > b.Sequence() {
		return b.SetSequence(last)
	}
	return nil
}

// DeleteReport removes a report. It returns false if no such report exists.
func (s *Store) DeleteReport(id int) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b.Get(idKey(id)) == nil {
			return nil
		}
		found = true
		return b.Delete(idKey(id))
	})
	return found, err
}

// ─── Templates ────────────────────────────────────────────────────────────────

// ListTemplates returns all report templates in id order.
func (s *Store) ListTemplates() ([]model.ReportTemplate, error) {
	return listJSON[model.ReportTemplate](s.db, bucketTemplates, nil)
}

// GetTemplate retrieves a template by id.
func (s *Store) GetTemplate(id int) (model.ReportTemplate, bool, error) {
	return getJSON[model.ReportTemplate](s.db, bucketTemplates, idKey(id))
}

// ─── Saved Views ──────────────────────────────────────────────────────────────

// View is a named filter and sort state for one entity kind.
type View struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Entity    string     `json:"entity"`
	State     view.State `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
}

// PutView saves a view under its id.
func (s *Store) PutView(v View) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, bucketViews, []byte(v.ID), v)
	})
}

// GetView retrieves a view by id.
func (s *Store) GetView(id string) (View, bool, error) {
	return getJSON[View](s.db, bucketViews, []byte(id))
}

// FindView retrieves a view by id or, failing that, by exact name.
func (s *Store) FindView(ref string) (View, bool, error) {
	if v, ok, err := s.GetView(ref); err != nil || ok {
		return v, ok, err
	}
	views, err := s.ListViews()
	if err != nil {
		return View{}, false, err
	}
	for _, v := range views {
		if v.Name == ref {
			return v, true, nil
		}
	}
	return View{}, false, nil
}

// ListViews returns all saved views.
func (s *Store) ListViews() ([]View, error) {
	return listJSON[View](s.db, bucketViews, nil)
}

// DeleteView removes a view by id.
func (s *Store) DeleteView(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketViews).Delete([]byte(id))
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	known := false
	for _, b := range AllBuckets {
		if b == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, name)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return recreate(tx, []byte(name))
	})
}

// ClearAll deletes all entries from every user-facing bucket and forgets
// the seed time, so the next open reseeds.
func (s *Store) ClearAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			if err := recreate(tx, []byte(name)); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketInternal).Delete([]byte("seeded_at"))
	})
}

// recreate empties a bucket. The bucket sequence survives, so ids handed
// out before the clear stay retired.
func recreate(tx *bolt.Tx, name []byte) error {
	var seq uint64
	if old := tx.Bucket(name); old != nil {
		seq = old.Sequence()
		if err := tx.DeleteBucket(name); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	return b.SetSequence(seq)
}

func update[T any](db *bolt.DB, bucket, key []byte, fn func(T) T) (bool, error) {
	var found bool
	err := db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		raw := b.Get(key)
		if raw == nil {
			return nil
		}
		found = true
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decoding %s/%s: %w", bucket, key, err)
		}
		return putJSON(tx, bucket, key, fn(v))
	})
	return found, err
}
