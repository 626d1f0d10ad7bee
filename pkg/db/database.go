package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Backend int

const (
	BackendUnknown Backend = iota
	BackendMongo
	BackendPostgres
	BackendSQLite
)

func (b Backend) String() string {
	switch b {
	case BackendMongo:
		return "mongo"
	case BackendPostgres:
		return "postgres"
	case BackendSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Detect picks the store backend from the connection string scheme.
func Detect(dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return BackendUnknown, fmt.Errorf("connection string is empty")
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return BackendSQLite, nil
	default:
		return BackendUnknown, fmt.Errorf("unsupported connection string scheme in %q", redact(dsn))
	}
}

func configurePool(sqlDB *sql.DB, backend Backend) {
	if backend == BackendSQLite {
		// one connection keeps an in-memory database alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}

	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// OpenGorm opens a postgres or sqlite database and pings it.
func OpenGorm(ctx context.Context, dsn string) (*gorm.DB, error) {
	backend, err := Detect(dsn)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch backend {
	case BackendPostgres:
		dialector = postgres.Open(dsn)
	case BackendSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("%s is not a SQL backend", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),

		// token owners are resolved at lookup time, not by the schema
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", backend, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB, backend)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", backend, err)
	}

	return db, nil
}

func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***" + rest[at:]
	}
	return scheme + "://" + rest
}
