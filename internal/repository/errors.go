// Package repository contains the MySQL persistence layer. Repositories
// translate driver-level failures into the sentinel errors defined by the
// booking package so that handlers never inspect SQL errors directly.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for a violated unique key.
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a unique-constraint violation.
// The payments.transaction_id unique key relies on this to surface webhook
// replays as booking.ErrDuplicateTransaction.
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
