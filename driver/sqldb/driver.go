// Package sqldb implements core.Driver on database/sql, for PostgreSQL
// (lib/pq), MySQL and SQLite.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/driver/sqlrender"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlTransaction adapts *sql.Tx to core.Transaction.
type sqlTransaction struct {
	tx *sql.Tx
}

func (transaction *sqlTransaction) Commit(context.Context) error {
	return transaction.tx.Commit()
}

func (transaction *sqlTransaction) Rollback(context.Context) error {
	return transaction.tx.Rollback()
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Driver runs golem operations on a *sql.DB.
type Driver struct {
	db      *sql.DB
	dialect sqlrender.Dialect
}

var _ core.Driver = (*Driver)(nil)

// Open opens a database with a registered database/sql driver ("postgres",
// "mysql" or "sqlite") and picks the matching dialect.
func Open(driverName, dsn string) (*Driver, error) {
	dialect, err := sqlrender.ByName(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("golem: open %s: %w", driverName, err)
	}
	return New(db, dialect), nil
}

// New wraps an open database.
func New(db *sql.DB, dialect sqlrender.Dialect) *Driver {
	return &Driver{db: db, dialect: dialect}
}

// DB returns the underlying database.
func (driver *Driver) DB() *sql.DB { return driver.db }

func (driver *Driver) executor(ctx context.Context) executor {
	if tx := core.TransactionFrom(ctx); tx != nil {
		if sqlTx, ok := tx.(*sqlTransaction); ok {
			return sqlTx.tx
		}
	}
	return driver.db
}

func (driver *Driver) Connect(ctx context.Context) error {
	return driver.db.PingContext(ctx)
}

func (driver *Driver) Ping(ctx context.Context) error {
	return driver.db.PingContext(ctx)
}

func (driver *Driver) Close(context.Context) error {
	return driver.db.Close()
}

func (driver *Driver) Transaction(ctx context.Context) (core.Transaction, error) {
	tx, err := driver.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTransaction{tx: tx}, nil
}

func (driver *Driver) Insert(ctx context.Context, schema *core.SchemaCore, documents ...any) error {
	for _, doc := range documents {
		sqlQuery, args := driver.dialect.Insert(schema, doc)
		if _, err := driver.executor(ctx).ExecContext(ctx, sqlQuery, args...); err != nil {
			return err
		}
	}
	return nil
}

func (driver *Driver) find(ctx context.Context, schema *core.SchemaCore, query *core.Where, single bool) ([]map[string]any, error) {
	sqlQuery, args := driver.dialect.Select(schema, query, single)
	rows, err := driver.executor(ctx).QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnList, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var resultList []map[string]any
	for rows.Next() {
		valueList := make([]any, len(columnList))
		pointerList := make([]any, len(columnList))
		for i := range valueList {
			pointerList[i] = &valueList[i]
		}
		if err := rows.Scan(pointerList...); err != nil {
			return nil, err
		}
		rowMap := make(map[string]any, len(columnList))
		for i, column := range columnList {
			if b, ok := valueList[i].([]byte); ok {
				rowMap[column] = string(b)
				continue
			}
			rowMap[column] = valueList[i]
		}
		resultList = append(resultList, rowMap)
		if single {
			break
		}
	}
	return resultList, rows.Err()
}

func (driver *Driver) FindOne(ctx context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	rowList, err := driver.find(ctx, schema, query, true)
	if err != nil {
		return nil, err
	}
	if len(rowList) == 0 {
		return nil, nil
	}
	return rowList[0], nil
}

func (driver *Driver) FindMany(ctx context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	return driver.find(ctx, schema, query, false)
}

func (driver *Driver) Update(ctx context.Context, schema *core.SchemaCore, condition *core.Condition, changes core.Changes) error {
	sqlQuery, args := driver.dialect.Update(schema, condition, changes)
	_, err := driver.executor(ctx).ExecContext(ctx, sqlQuery, args...)
	return err
}

func (driver *Driver) Delete(ctx context.Context, schema *core.SchemaCore, condition *core.Condition) error {
	sqlQuery, args := driver.dialect.Delete(schema, condition)
	_, err := driver.executor(ctx).ExecContext(ctx, sqlQuery, args...)
	return err
}

func (driver *Driver) Count(ctx context.Context, schema *core.SchemaCore, query *core.Where) (int64, error) {
	sqlQuery, args := driver.dialect.Count(schema, query)
	var count int64
	if err := driver.executor(ctx).QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
