package dbutil

import (
	"github.com/jmoiron/sqlx"
)

// Finalize rebinds builder output to the placeholder style of the sqlite driver.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.BindType("sqlite3"), query), args
}
