// Package sqlrender renders golem conditions and query options to SQL for
// the SQL drivers. Rendering is pure: it returns the statement and its
// arguments and never touches a connection.
package sqlrender

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect holds what differs between SQL databases.
type Dialect struct {
	Name string
	// Placeholder returns the n-th (1-based) parameter marker.
	Placeholder func(n int) string
	// QuoteChar wraps identifiers.
	QuoteChar string
	// LikeOperator renders the case-insensitive-by-default LIKE of the database.
	LikeOperator string
	// NoLimit is the LIMIT value used when only an offset is requested, for
	// databases that cannot OFFSET without LIMIT. Empty when not needed.
	NoLimit string
}

var (
	Postgres = Dialect{
		Name:         "postgres",
		Placeholder:  func(n int) string { return "$" + strconv.Itoa(n) },
		QuoteChar:    `"`,
		LikeOperator: "ILIKE",
	}
	MySQL = Dialect{
		Name:         "mysql",
		Placeholder:  func(int) string { return "?" },
		QuoteChar:    "`",
		LikeOperator: "LIKE",
		NoLimit:      "18446744073709551615",
	}
	SQLite = Dialect{
		Name:         "sqlite",
		Placeholder:  func(int) string { return "?" },
		QuoteChar:    `"`,
		LikeOperator: "LIKE",
		NoLimit:      "-1",
	}
)

// ByName returns the dialect registered under name. "postgres", "pgx" and
// "postgresql" all map to Postgres; "sqlite3" maps to SQLite.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("golem: unknown sql dialect %q", name)
}

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	q := d.QuoteChar
	return q + strings.ReplaceAll(ident, q, q+q) + q
}
