package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, class_level, subject, board, file_url, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert creates a book row and fills in its id and created_at.
func (r *PostgresRepository) Insert(ctx context.Context, b *Book) error {
	query := `
		INSERT INTO books (title, class_level, subject, board, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, b.Title, b.ClassLevel, b.Subject, b.Board, b.FileURL).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}
	return nil
}

// Get retrieves a single book by its UUID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	b, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying book: %w", err)
	}
	return b, nil
}

// Update overwrites the metadata and file_url of a book.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, b *Book) error {
	query := `
		UPDATE books
		SET title = $1, class_level = $2, subject = $3, board = $4, file_url = $5
		WHERE id = $6
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, b.Title, b.ClassLevel, b.Subject, b.Board, b.FileURL, id).
		Scan(&b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("updating book: %w", err)
	}
	b.ID = id
	return nil
}

// Delete removes a book row.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FileURLs returns every non-null file_url in the table.
func (r *PostgresRepository) FileURLs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT file_url FROM books WHERE file_url IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("listing book file urls: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning book file urls: %w", err)
	}
	return urls, nil
}

// Count returns the number of books.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return count, nil
}

// List retrieves a page of books, newest first, together with the total count.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 12
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query := `SELECT ` + bookColumns + `
		FROM books
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, filter.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book row: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating book rows: %w", err)
	}

	return &ListResult{
		Books: books,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.ClassLevel, &b.Subject, &b.Board, &b.FileURL, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
