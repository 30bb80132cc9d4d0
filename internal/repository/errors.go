// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios without
// looking at driver error text.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id matches zero rows.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConstraint is returned when MySQL rejects a write because of a unique or
// foreign-key constraint: duplicate phone, duplicate review, or a reference
// to a row that does not exist.  Handlers translate it into HTTP 409.
var ErrConstraint = errors.New("constraint violation")

// ErrStaleStatus is returned by RequestRepo.TransitionStatus when the
// conditional UPDATE matched no row, i.e. the request left the expected
// status between the read and the write.
var ErrStaleStatus = errors.New("request status changed concurrently")

// ErrValueTooLong is returned when a string does not fit its column.  Input
// validation should catch this first; handlers answer 400 if it does not.
var ErrValueTooLong = errors.New("value too long")

// MySQL server error numbers mapped onto the sentinels above.
const (
	mysqlDataTooLong     = 1406
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// classify maps driver errors onto the sentinels above.  Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry, mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrConstraint, me.Message)
		case mysqlDataTooLong:
			return fmt.Errorf("%w: %s", ErrValueTooLong, me.Message)
		}
	}
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// rollback is deferred by every transactional method.  It is a no-op once the
// transaction has been committed.
func rollback(tx *sql.Tx) { _ = tx.Rollback() }
