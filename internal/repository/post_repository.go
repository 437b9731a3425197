package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shelf-service/internal/model"
)

type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

type PaginatedPosts struct {
	Data []model.PostDetails `json:"data"`
	Meta PaginationMeta      `json:"meta"`
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) (*model.Post, error)
	ListRecent(ctx context.Context, page int, limit int) (*PaginatedPosts, error)
	Delete(ctx context.Context, postID int64, userID uuid.UUID) (bool, error)
}

type postgresPostRepository struct {
	db *sqlx.DB
}

func NewPostgresPostRepository(db *sqlx.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

func (r *postgresPostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	query := `
		INSERT INTO posts (user_id, content, book_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query, post.UserID, post.Content, post.BookID)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		return nil, err
	}

	return post, nil
}

func (r *postgresPostRepository) ListRecent(ctx context.Context, page int, limit int) (*PaginatedPosts, error) {
	offset := (page - 1) * limit

	var totalItems int
	if err := r.db.GetContext(ctx, &totalItems, `SELECT COUNT(*) FROM posts`); err != nil {
		return nil, err
	}

	query := `
		SELECT p.id, p.user_id, p.content, p.book_id, p.created_at,
		       COALESCE(u.username, 'unknown') AS username,
		       b.title AS book_title
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN books b ON b.id = p.book_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`

	posts := []model.PostDetails{}
	if err := r.db.SelectContext(ctx, &posts, query, limit, offset); err != nil {
		return nil, err
	}

	totalPages := (totalItems + limit - 1) / limit

	return &PaginatedPosts{
		Data: posts,
		Meta: PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			PerPage:     limit,
		},
	}, nil
}

func (r *postgresPostRepository) Delete(ctx context.Context, postID int64, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
