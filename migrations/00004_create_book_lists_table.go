package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBookListsTable, downCreateBookListsTable)
}

func upCreateBookListsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE book_lists (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			-- A user may not hold two lists with the same name
			UNIQUE (user_id, name)
		);

		CREATE TABLE book_list_entries (
			id BIGSERIAL PRIMARY KEY,
			list_id BIGINT NOT NULL REFERENCES book_lists(id),
			book_id TEXT NOT NULL REFERENCES books(id),
			added_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			UNIQUE (list_id, book_id)
		);

		CREATE INDEX idx_book_list_entries_book_id ON book_list_entries(book_id);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateBookListsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS book_list_entries; DROP TABLE IF EXISTS book_lists;`)
	return err
}
