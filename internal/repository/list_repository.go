package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shelf-service/internal/model"
)

type ListRepository interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*model.BookList, error)
	// FindOwned returns nil when the list does not exist or belongs to another user.
	FindOwned(ctx context.Context, userID uuid.UUID, listID int64) (*model.BookList, error)
	ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.BookListSummary, error)
	ListBooks(ctx context.Context, listID int64) ([]model.ListedBook, error)
	Delete(ctx context.Context, listID int64) error
	EntryExists(ctx context.Context, listID int64, bookID string) (bool, error)
	AddEntry(ctx context.Context, listID int64, bookID string) error
	RemoveEntry(ctx context.Context, listID int64, bookID string) (bool, error)
	CountEntries(ctx context.Context, listID int64) (int, error)
	BookIDsByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type postgresListRepository struct {
	db *sqlx.DB
}

func NewPostgresListRepository(db *sqlx.DB) ListRepository {
	return &postgresListRepository{db: db}
}

func (r *postgresListRepository) Create(ctx context.Context, userID uuid.UUID, name string) (*model.BookList, error) {
	list := &model.BookList{UserID: userID, Name: name}
	query := `
		INSERT INTO book_lists (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(ctx, query, userID, name).Scan(&list.ID, &list.CreatedAt); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *postgresListRepository) FindOwned(ctx context.Context, userID uuid.UUID, listID int64) (*model.BookList, error) {
	var list model.BookList
	query := `SELECT id, user_id, name, created_at FROM book_lists WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &list, query, listID, userID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &list, nil
}

func (r *postgresListRepository) ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM book_lists WHERE user_id = $1 AND name = $2)`
	err := r.db.GetContext(ctx, &exists, query, userID, name)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}

func (r *postgresListRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.BookListSummary, error) {
	lists := []model.BookListSummary{}
	query := `
		SELECT l.id, l.user_id, l.name, l.created_at, COUNT(e.id) AS entry_count
		FROM book_lists l
		LEFT JOIN book_list_entries e ON e.list_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY l.created_at ASC, l.id ASC
	`
	err := r.db.SelectContext(ctx, &lists, query, userID)
	return lists, err
}

func (r *postgresListRepository) ListBooks(ctx context.Context, listID int64) ([]model.ListedBook, error) {
	books := []model.ListedBook{}
	query := `
		SELECT e.added_at, b.id, b.title, b.authors, b.image, b.description, b.categories,
		       b.external_rating, b.average_rating, b.created_at, b.updated_at
		FROM book_list_entries e
		JOIN books b ON b.id = e.book_id
		WHERE e.list_id = $1
		ORDER BY e.added_at DESC, e.id DESC
	`
	err := r.db.SelectContext(ctx, &books, query, listID)
	return books, err
}

// Delete removes the entries explicitly before the list itself.
func (r *postgresListRepository) Delete(ctx context.Context, listID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_list_entries WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_lists WHERE id = $1`, listID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	return tx.Commit()
}

func (r *postgresListRepository) EntryExists(ctx context.Context, listID int64, bookID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM book_list_entries WHERE list_id = $1 AND book_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, listID, bookID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}

func (r *postgresListRepository) AddEntry(ctx context.Context, listID int64, bookID string) error {
	query := `
		INSERT INTO book_list_entries (list_id, book_id)
		VALUES ($1, $2)
	`
	_, err := r.db.ExecContext(ctx, query, listID, bookID)
	return err
}

func (r *postgresListRepository) RemoveEntry(ctx context.Context, listID int64, bookID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM book_list_entries WHERE list_id = $1 AND book_id = $2`, listID, bookID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *postgresListRepository) CountEntries(ctx context.Context, listID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM book_list_entries WHERE list_id = $1`
	err := r.db.GetContext(ctx, &count, query, listID)

	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *postgresListRepository) BookIDsByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	ids := []string{}
	query := `
		SELECT DISTINCT e.book_id
		FROM book_list_entries e
		JOIN book_lists l ON l.id = e.list_id
		WHERE l.user_id = $1
	`
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}
