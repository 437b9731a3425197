package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateFavoriteGenresTable, downCreateFavoriteGenresTable)
}

func upCreateFavoriteGenresTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS favorite_genres (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			UNIQUE (user_id, name)
		);

		CREATE INDEX IF NOT EXISTS idx_favorite_genres_user_id ON favorite_genres(user_id);
	`)
	return err
}

func downCreateFavoriteGenresTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS favorite_genres;`)
	return err
}
