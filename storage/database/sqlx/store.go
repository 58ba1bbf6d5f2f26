package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

// store implements academic.Store on PostgreSQL. Within a transaction, `ex` is the *sqlx.Tx.
type store struct {
	db core.DB
	ex core.DBExecutor
}

var _ academic.Store = (*store)(nil)

func NewStore(db core.DB) academic.Store {
	return &store{db: db, ex: db}
}

func (s *store) inTx() bool {
	_, ok := s.ex.(core.DBTransactor)
	return ok
}

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo academic.Repository) error) (err error) {
	if s.inTx() {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, &store{db: s.db, ex: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return translate(err, "committing transaction")
	}
	return nil
}

// insert runs the named `query`, which must return the new row id.
func (s *store) insert(ctx context.Context, query string, arg interface{}) (int, error) {
	q, args, err := s.ex.BindNamed(query, arg)
	if err != nil {
		return 0, errors.Wrap(err, "binding query")
	}
	var id int
	if err = s.ex.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// update runs the named `query` and fails with a core.KindNotFound error if no row was changed.
func (s *store) update(ctx context.Context, query string, arg interface{}, entity string, id interface{}) error {
	q, args, err := s.ex.BindNamed(query, arg)
	if err != nil {
		return errors.Wrap(err, "binding query")
	}
	res, err := s.ex.ExecContext(ctx, q, args...)
	if err != nil {
		return translate(err, "updating %s %v", entity, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, "updating %s %v", entity, id)
	}
	if n == 0 {
		return core.NewNotFoundError(entity, id)
	}
	return nil
}

func (s *store) get(ctx context.Context, dest interface{}, entity string, key interface{}, query string, args ...interface{}) error {
	err := s.ex.GetContext(ctx, dest, s.ex.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFoundError(entity, key)
	}
	return translate(err, "getting %s %v", entity, key)
}

// psql builds the statements of list and delete queries, with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// list selects the rows of `from` kept by `w`, ordered by `orderBy`.
func (s *store) list(ctx context.Context, dest interface{}, from string, w *where, orderBy string) error {
	query, args, err := w.selectFrom(from, orderBy).ToSql()
	if err != nil {
		return errors.Wrapf(err, "building %s query", from)
	}
	return translate(s.ex.SelectContext(ctx, dest, query, args...), "listing %s", from)
}

// delete removes the rows of `from` kept by `w` and returns how many were removed.
func (s *store) delete(ctx context.Context, from string, w *where) (int, error) {
	query, args, err := w.deleteFrom(from).ToSql()
	if err != nil {
		return 0, errors.Wrapf(err, "building %s delete", from)
	}
	res, err := s.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(err, "deleting %s", from)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(err, "deleting %s", from)
	}
	return int(n), nil
}

// where accumulates AND-ed conditions.
type where struct {
	conds sq.And
}

func (w *where) and(pred sq.Sqlizer) *where {
	w.conds = append(w.conds, pred)
	return w
}

// in filters `col` on ids: nil leaves it unfiltered, empty matches nothing.
func (w *where) in(col string, ids []int) *where {
	if ids == nil {
		return w
	}
	return w.and(sq.Eq{col: ids})
}

func (w *where) selectFrom(from, orderBy string) sq.SelectBuilder {
	b := psql.Select("*").From(from).OrderBy(orderBy)
	if len(w.conds) > 0 {
		b = b.Where(w.conds)
	}
	return b
}

func (w *where) deleteFrom(from string) sq.DeleteBuilder {
	b := psql.Delete(from)
	if len(w.conds) > 0 {
		b = b.Where(w.conds)
	}
	return b
}

// PostgreSQL error classes and codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	pqClassConnection           = "08"
	pqClassInsufficientResource = "53"
	pqClassOperatorIntervention = "57"
)

// translate maps driver errors onto the storage signals of the core package.
// Unique and foreign key violations wrap core.ErrUniqueViolation and core.ErrForeignKeyViolation,
// connectivity failures become core.KindUnavailable errors.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqUniqueViolation:
			return errors.Wrapf(core.ErrUniqueViolation, "%s (%s)", pqErr.Constraint, pqErr.Detail)
		case pqErr.Code == pqForeignKeyViolation:
			return errors.Wrapf(core.ErrForeignKeyViolation, "%s (%s)", pqErr.Constraint, pqErr.Detail)
		}
		switch pqErr.Code.Class() {
		case pqClassConnection, pqClassInsufficientResource, pqClassOperatorIntervention:
			return core.NewUnavailableError(err)
		}
		return errors.Wrapf(err, format, args...)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return core.NewUnavailableError(err)
	}
	return errors.Wrapf(err, format, args...)
}

// day formats a calendar date for a DATE column.
func day(t time.Time) string {
	return academic.Day(t).Format("2006-01-02")
}
