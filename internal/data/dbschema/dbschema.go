// Package dbschema contains the database schema, migrations and seeding data.
package dbschema

import (
	"context"
	"database/sql"
	_ "embed" // Used to embed sql files.
	"errors"
	"fmt"

	"github.com/ardanlabs/darwin/v3"
	"github.com/ardanlabs/darwin/v3/dialects/postgres"
	"github.com/ardanlabs/darwin/v3/drivers/generic"
)

var (
	//go:embed sql/migrations.sql
	migrations string

	//go:embed sql/seed.sql
	seed string
)

// Migrate attempts to bring the database up to date with the migrations
// defined in this package.
func Migrate(db *sql.DB) error {
	driver, err := generic.New(db, postgres.Dialect{})
	if err != nil {
		return err
	}

	d := darwin.New(driver, darwin.ParseMigrations(migrations))
	if err := d.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	return nil
}

// Seed runs the seed data against the database. Existing customers are
// left untouched.
func Seed(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if errTx := tx.Rollback(); errTx != nil && !errors.Is(errTx, sql.ErrTxDone) {
			err = fmt.Errorf("rollback: %w", errTx)
		}
	}()

	if _, err := tx.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("exec seed: %w", err)
	}

	return tx.Commit()
}
