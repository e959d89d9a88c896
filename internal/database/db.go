package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	PingContext(ctx context.Context) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}

// PostgresConfig holds connection and migration settings
type PostgresConfig struct {
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migration       MigrationConfig
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.UserName, c.Password, c.Name, c.SSLMode)
}

// Postgres is the startup dependency that connects and migrates the database
type Postgres struct {
	config PostgresConfig
	logger ectologger.Logger
	db     DB
	raw    *sqlx.DB
}

func NewPostgres(config PostgresConfig, logger ectologger.Logger) *Postgres {
	return &Postgres{config: config, logger: logger}
}

func (p *Postgres) GetName() string {
	return "database"
}

func (p *Postgres) DependsOn() []string {
	return []string{"tracing"}
}

func (p *Postgres) Start(ctx context.Context) error {
	if p.db != nil {
		return nil
	}

	raw, err := sqlx.ConnectContext(ctx, "postgres", p.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres at %s:%s: %w", p.config.Host, p.config.Port, err)
	}
	raw.SetMaxOpenConns(p.config.MaxOpenConns)
	raw.SetMaxIdleConns(p.config.MaxIdleConns)
	raw.SetConnMaxLifetime(p.config.ConnMaxLifetime)

	driver, err := postgres.WithInstance(raw.DB, &postgres.Config{})
	if err != nil {
		_ = raw.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := NewMigrationService(p.logger, &p.config.Migration)
	if err := migrations.Migrate(p.config.Name, driver); err != nil {
		_ = raw.Close()
		return err
	}

	p.raw = raw
	p.db = NewDatabaseInstance(raw, p.logger)
	p.logger.Infof("Connected to postgres database %s", p.config.Name)
	return nil
}

func (p *Postgres) Stop(ctx context.Context) error {
	if p.raw == nil {
		return nil
	}
	return p.raw.Close()
}

// DB returns the connected database. It is nil until Start succeeds.
func (p *Postgres) DB() DB {
	return p.db
}

// Ping reports whether the connection is usable
func (p *Postgres) Ping(ctx context.Context) error {
	if p.raw == nil {
		return fmt.Errorf("database is not connected")
	}
	return p.raw.PingContext(ctx)
}
