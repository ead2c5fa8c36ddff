package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/driver/memory"
	"github.com/leandroluk/golemspec/driver/mongodb"
	"github.com/leandroluk/golemspec/driver/postgres"
	"github.com/leandroluk/golemspec/driver/sqldb"
)

// OpenDriver opens the driver selected by database.dialect:
//
//	postgres       pgx pool on database.dsn
//	mysql, sqlite  database/sql on database.dsn
//	mongo          mongo.uri, default database mongo.database
//	memory         in-process store, for tests and demos
func (c *Config) OpenDriver(ctx context.Context) (core.Driver, error) {
	switch dialect := strings.ToLower(c.Database.Dialect); dialect {
	case "memory":
		return memory.NewMemoryDriver(), nil
	case "mongo", "mongodb":
		if c.Mongo.URI == "" {
			return nil, fmt.Errorf("golem: mongo.uri is required for dialect %s", dialect)
		}
		return mongodb.NewMongoDriver(ctx, c.Mongo.URI, c.Mongo.Database)
	case "postgres", "postgresql", "pgx":
		if c.Database.DSN == "" {
			return nil, fmt.Errorf("golem: database.dsn is required for dialect %s", dialect)
		}
		return postgres.NewPostgresDriver(ctx, c.Database.DSN)
	default:
		if c.Database.DSN == "" {
			return nil, fmt.Errorf("golem: database.dsn is required for dialect %s", dialect)
		}
		return sqldb.Open(dialect, c.Database.DSN)
	}
}
