package repos

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "storefront/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" one database and serialises writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateUp(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	defer src.Close()

	drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	// no m.Close: it closes db too
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, _ := m.Version()
	applog.Info(nil, "db.migrated", map[string]any{"version": v})
	return nil
}

// seedUsers ensures the demo account exists (idempotent).
func seedUsers(db *sqlx.DB) error {
	h, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash)
		VALUES(?,?,?,?)
		ON CONFLICT DO NOTHING
	`, uuid.NewString(), "user@example.com", "Juan Dela Cruz", string(h))
	return err
}
