package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"shelf-service/internal/model"
)

const bookColumns = `id, title, authors, image, description, categories, external_rating, average_rating, created_at, updated_at`

type BookRepository interface {
	Upsert(ctx context.Context, book model.BookUpsert) (*model.Book, error)
	// InsertStub creates a placeholder row and reports whether the id was new.
	InsertStub(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Book, error)
	// FindByIDs returns the books that exist, in the order of ids.
	FindByIDs(ctx context.Context, ids []string) ([]model.Book, error)
	FindByCategories(ctx context.Context, categories, exclude []string, limit int) ([]model.Book, error)
	FindTopRated(ctx context.Context, minRating float64, exclude []string, limit int) ([]model.Book, error)
	List(ctx context.Context, limit, offset int) ([]model.Book, error)
}

type postgresBookRepository struct {
	db *sqlx.DB
}

func NewPostgresBookRepository(db *sqlx.DB) BookRepository {
	return &postgresBookRepository{db: db}
}

// buildUpsertQuery writes only the columns present in u. A new row without a title gets the
// stub title; an existing row keeps its own. updated_at is always touched so the conflict
// branch fires and RETURNING yields the row.
func buildUpsertQuery(u model.BookUpsert) (string, []interface{}) {
	columns := []string{"id"}
	placeholders := []string{"$1"}
	args := []interface{}{u.ID}
	var setClauses []string

	insert := func(column string, value interface{}, cast string) {
		args = append(args, value)
		columns = append(columns, column)
		placeholders = append(placeholders, fmt.Sprintf("$%d%s", len(args), cast))
	}
	add := func(column string, value interface{}, cast string) {
		insert(column, value, cast)
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}

	if u.Title != nil {
		add("title", *u.Title, "")
	} else {
		insert("title", model.StubBookTitle, "")
	}
	if u.Authors != nil {
		add("authors", *u.Authors, "")
	}
	switch {
	case u.Image != nil:
		add("image", *u.Image, "")
	case u.ClearImage:
		add("image", nil, "::text")
	}
	switch {
	case u.Description != nil:
		add("description", *u.Description, "")
	case u.ClearDescription:
		add("description", nil, "::text")
	}
	if u.HasCategories() {
		add("categories", pq.StringArray(u.Categories), "::text[]")
	}
	switch {
	case u.Rating != nil:
		add("external_rating", *u.Rating, "")
	case u.ClearRating:
		add("external_rating", nil, "::double precision")
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(
		"INSERT INTO books (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s RETURNING %s",
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(setClauses, ", "),
		bookColumns,
	)

	return query, args
}

func (r *postgresBookRepository) Upsert(ctx context.Context, u model.BookUpsert) (*model.Book, error) {
	query, args := buildUpsertQuery(u)

	var book model.Book
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&book); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *postgresBookRepository) InsertStub(ctx context.Context, id string) (bool, error) {
	query := `INSERT INTO books (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, id, model.StubBookTitle)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (r *postgresBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	var book model.Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	err := r.db.GetContext(ctx, &book, query, id)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &book, nil
}

func (r *postgresBookRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Book, error) {
	books := []model.Book{}
	if len(ids) == 0 {
		return books, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1::text[])`
	if err := r.db.SelectContext(ctx, &books, query, pq.StringArray(ids)); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	ordered := make([]model.Book, 0, len(books))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
			delete(byID, id)
		}
	}

	return ordered, nil
}

func (r *postgresBookRepository) FindByCategories(ctx context.Context, categories, exclude []string, limit int) ([]model.Book, error) {
	books := []model.Book{}
	if len(categories) == 0 || limit <= 0 {
		return books, nil
	}

	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE categories && $1::text[]
		  AND NOT (id = ANY($2::text[]))
		ORDER BY average_rating DESC NULLS LAST, id ASC
		LIMIT $3
	`
	err := r.db.SelectContext(ctx, &books, query, pq.StringArray(categories), pq.StringArray(nonNil(exclude)), limit)
	return books, err
}

func (r *postgresBookRepository) FindTopRated(ctx context.Context, minRating float64, exclude []string, limit int) ([]model.Book, error) {
	books := []model.Book{}
	if limit <= 0 {
		return books, nil
	}

	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE average_rating >= $1
		  AND NOT (id = ANY($2::text[]))
		ORDER BY average_rating DESC, id ASC
		LIMIT $3
	`
	err := r.db.SelectContext(ctx, &books, query, minRating, pq.StringArray(nonNil(exclude)), limit)
	return books, err
}

func (r *postgresBookRepository) List(ctx context.Context, limit, offset int) ([]model.Book, error) {
	books := []model.Book{}
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &books, query, limit, offset)
	return books, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
