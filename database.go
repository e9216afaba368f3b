package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erc7824/receipt-signer/pkg/log"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
	DriverNone     = "none"
)

// DatabaseConfig selects where issued receipts are recorded.
//
// In order to connect to Postgresql you need to fill out all the fields.
//
// To connect to sqlite, you just need to specify "sqlite" driver.
// By default it will use in-memory database. You can provide RECEIPT_SIGNER_DATABASE_NAME to use the file.
//
// The "none" driver disables the receipt store.
type DatabaseConfig struct {
	URL      string `env:"RECEIPT_SIGNER_DATABASE_URL" env-default:""`
	Name     string `env:"RECEIPT_SIGNER_DATABASE_NAME" env-default:""`
	Schema   string `env:"RECEIPT_SIGNER_DATABASE_SCHEMA" env-default:""`
	Driver   string `env:"RECEIPT_SIGNER_DATABASE_DRIVER" env-default:"sqlite"`
	Username string `env:"RECEIPT_SIGNER_DATABASE_USERNAME" env-default:"postgres"`
	Password string `env:"RECEIPT_SIGNER_DATABASE_PASSWORD" env-default:""`
	Host     string `env:"RECEIPT_SIGNER_DATABASE_HOST" env-default:"localhost"`
	Port     string `env:"RECEIPT_SIGNER_DATABASE_PORT" env-default:"5432"`
}

// ParseConnectionString parses a PostgreSQL URI or a "file:" SQLite URI and returns a DatabaseConfig.
func ParseConnectionString(connStr string) (DatabaseConfig, error) {
	if strings.HasPrefix(connStr, "file:") {
		// Separate path from query
		parts := strings.SplitN(connStr[5:], "?", 2)
		return DatabaseConfig{
			Name:   parts[0],
			Driver: DriverSqlite,
		}, nil
	}

	parsedURL, err := url.Parse(connStr)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid connection string: %w", err)
	}

	if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}

	username := ""
	password := ""
	if user := parsedURL.User; user != nil {
		username = user.Username()
		password, _ = user.Password()
	}

	port := parsedURL.Port()
	if port == "" {
		port = "5432"
	} else if _, err := strconv.Atoi(port); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid port: %s", port)
	}

	return DatabaseConfig{
		Name:     strings.TrimPrefix(parsedURL.Path, "/"),
		Schema:   parsedURL.Query().Get("search_path"),
		Driver:   DriverPostgres,
		Username: username,
		Password: password,
		Host:     parsedURL.Hostname(),
		Port:     port,
	}, nil
}

// ConnectToDB opens the configured database and brings its schema up to date.
// It returns a nil *gorm.DB for the "none" driver.
func ConnectToDB(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	logger = logger.WithName("database")

	switch cnf.Driver {
	case DriverPostgres:
		return connectToPostgresql(cnf, logger)
	case DriverSqlite, "":
		return connectToSqlite(cnf, logger)
	case DriverNone:
		logger.Warn("receipt store disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cnf.Driver)
	}
}

func connectToPostgresql(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	logger.Info("connecting to Postgresql", "host", cnf.Host, "port", cnf.Port, "name", cnf.Name)
	if err := ensurePostgresqlSchema(cnf, logger); err != nil {
		return nil, errors.Wrap(err, "failed to ensure Postgresql schema")
	}

	if err := migratePostgres(cnf, logger); err != nil {
		return nil, errors.Wrap(err, "failed to apply Postgresql migrations")
	}

	db, err := gorm.Open(postgres.Open(postgresqlDSN(cnf)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Postgresql")
	}
	return db, nil
}

func connectToSqlite(cnf DatabaseConfig, logger log.Logger) (*gorm.DB, error) {
	var dsn string
	if cnf.Name != "" {
		logger.Info("connecting to sqlite", "name", cnf.Name)
		dsn = fmt.Sprintf("file:%s?cache=shared", cnf.Name)
	} else {
		logger.Info("connecting to in-memory sqlite")
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}

	if err := migrateSqlite(db); err != nil {
		return nil, errors.Wrap(err, "failed to auto-migrate sqlite")
	}
	logger.Debug("successfully auto-migrated")

	return db, nil
}

func postgresqlDSN(cnf DatabaseConfig) string {
	dsn := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		cnf.Username, cnf.Password, cnf.Host, cnf.Port, cnf.Name,
	)
	if cnf.Schema != "" {
		dsn = fmt.Sprintf("%s search_path=%s", dsn, cnf.Schema)
	}
	return dsn
}

func ensurePostgresqlSchema(cnf DatabaseConfig, logger log.Logger) error {
	if cnf.Schema == "" {
		logger.Debug("no schema specified, skipping schema creation")
		return nil
	}

	dbConf := cnf
	dbConf.Schema = ""
	db, err := sqlx.Connect(DriverPostgres, postgresqlDSN(dbConf))
	if err != nil {
		return err
	}
	defer db.Close()

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", cnf.Schema); err != nil {
		return errors.Wrap(err, "failed to check schema existence")
	}
	if exists {
		logger.Debug("schema already exists", "schema", cnf.Schema)
		return nil
	}

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(cnf.Schema)); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}

	logger.Info("schema created", "schema", cnf.Schema)
	return nil
}

func migratePostgres(cnf DatabaseConfig, logger log.Logger) error {
	db, err := goose.OpenDBWithDriver(DriverPostgres, postgresqlDSN(cnf))
	if err != nil {
		return err
	}
	defer db.Close()

	if cnf.Schema != "" {
		if _, err := db.Exec("SET search_path TO " + pq.QuoteIdentifier(cnf.Schema)); err != nil {
			return errors.Wrap(err, "failed to set search path")
		}
	}

	logger.Info("applying database migrations")
	goose.SetBaseFS(embedMigrations)
	if err := goose.Up(db, "config/migrations/"+DriverPostgres); err != nil {
		return err
	}

	logger.Info("applied migrations")
	return nil
}

func migrateSqlite(db *gorm.DB) error {
	return db.AutoMigrate(&ReceiptRecord{})
}
