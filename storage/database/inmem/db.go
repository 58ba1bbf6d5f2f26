package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

type (
	assignmentKey struct {
		instructorID int
		subjectID    int
	}

	tables struct {
		pkCount     int
		accounts    map[int]account.Account
		admins      map[int]academic.Administrator
		instructors map[int]academic.Instructor
		students    map[int]academic.Student
		courses     map[int]academic.Course
		subjects    map[int]academic.Subject
		groups      map[int]academic.ClassGroup
		attendance  map[int]academic.Attendance
		marks       map[int]academic.Mark
		assignments map[assignmentKey]academic.Assignment
	}

	// DB holds the tables behind a single mutex. Transactions hold it for their whole duration.
	DB struct {
		mutex sync.Mutex
		t     *tables
	}
)

func NewDB() *DB {
	return &DB{t: newTables()}
}

func newTables() *tables {
	return &tables{
		accounts:    make(map[int]account.Account),
		admins:      make(map[int]academic.Administrator),
		instructors: make(map[int]academic.Instructor),
		students:    make(map[int]academic.Student),
		courses:     make(map[int]academic.Course),
		subjects:    make(map[int]academic.Subject),
		groups:      make(map[int]academic.ClassGroup),
		attendance:  make(map[int]academic.Attendance),
		marks:       make(map[int]academic.Mark),
		assignments: make(map[assignmentKey]academic.Assignment),
	}
}

func copyTable[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	c.pkCount = t.pkCount
	copyTable(c.accounts, t.accounts)
	copyTable(c.admins, t.admins)
	copyTable(c.instructors, t.instructors)
	copyTable(c.students, t.students)
	copyTable(c.courses, t.courses)
	copyTable(c.subjects, t.subjects)
	copyTable(c.groups, t.groups)
	copyTable(c.attendance, t.attendance)
	copyTable(c.marks, t.marks)
	copyTable(c.assignments, t.assignments)
	return c
}

func (t *tables) nextID() int {
	t.pkCount++
	return t.pkCount
}

// store implements academic.Store on a DB. Within a transaction, the DB mutex is already held by WithinTx.
type store struct {
	db   *DB
	inTx bool
}

var _ academic.Store = (*store)(nil)

func NewStore(db *DB) academic.Store {
	return &store{db: db}
}

func (s *store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mutex.Lock()
	return s.db.mutex.Unlock
}

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo academic.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return core.NewUnavailableError(err)
	}

	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	snapshot := s.db.t.clone()
	if err := fn(ctx, &store{db: s.db, inTx: true}); err != nil {
		s.db.t = snapshot // rollback
		return err
	}
	return nil
}

// Helpers

// matches reports whether v passes an id filter: nil matches all, empty matches nothing.
func matches(filter []int, v int) bool {
	if filter == nil {
		return true
	}
	for _, id := range filter {
		if id == v {
			return true
		}
	}
	return false
}

func matchesNull(filter []int, v int, valid bool) bool {
	if filter == nil {
		return true
	}
	return valid && matches(filter, v)
}

// selectRows returns the rows of `table` kept by `keep`, ordered by id.
func selectRows[T any](table map[int]T, keep func(T) bool) []T {
	keys := make([]int, 0, len(table))
	for id, row := range table {
		if keep(row) {
			keys = append(keys, id)
		}
	}
	sort.Ints(keys)
	res := make([]T, 0, len(keys))
	for _, id := range keys {
		res = append(res, table[id])
	}
	return res
}

func getRow[T any](table map[int]T, entity string, id int) (T, error) {
	if row, ok := table[id]; ok {
		return row, nil
	}
	var zero T
	return zero, core.NewNotFoundError(entity, id)
}

func uniqueErr(format string, args ...interface{}) error {
	return errors.Wrapf(core.ErrUniqueViolation, format, args...)
}

func fkErr(format string, args ...interface{}) error {
	return errors.Wrapf(core.ErrForeignKeyViolation, format, args...)
}

func sameDay(a, b time.Time) bool {
	return academic.Day(a).Equal(academic.Day(b))
}
