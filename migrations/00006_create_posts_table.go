package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreatePostsTable, downCreatePostsTable)
}

func upCreatePostsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			book_id TEXT REFERENCES books(id) ON DELETE SET NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
	`)
	return err
}

func downCreatePostsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS posts;`)
	return err
}
