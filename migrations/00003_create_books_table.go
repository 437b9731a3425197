package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBooksTable, downCreateBooksTable)
}

func upCreateBooksTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE books (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			authors TEXT NOT NULL DEFAULT '',
			image TEXT,
			description TEXT,
			categories TEXT[] NOT NULL DEFAULT '{}',
			external_rating DOUBLE PRECISION,
			average_rating DOUBLE PRECISION,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX idx_books_categories ON books USING GIN (categories);
		CREATE INDEX idx_books_average_rating ON books (average_rating DESC NULLS LAST);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateBooksTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS books;`)
	return err
}
