package pastpaper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paperColumns = `id, subject, year, board, class_level, exam_shift, is_solved, file_url, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert creates a past paper row and fills in its id and created_at.
func (r *PostgresRepository) Insert(ctx context.Context, p *PastPaper) error {
	query := `
		INSERT INTO past_papers (subject, year, board, class_level, exam_shift, is_solved, file_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		p.Subject, p.Year, p.Board, p.ClassLevel, p.ExamShift, p.IsSolved, p.FileURL,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting past paper: %w", err)
	}
	return nil
}

// Get retrieves a single past paper by its UUID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*PastPaper, error) {
	query := `SELECT ` + paperColumns + ` FROM past_papers WHERE id = $1`

	p, err := scanPaper(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying past paper: %w", err)
	}
	return p, nil
}

// Update overwrites the metadata and file_url of a past paper.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, p *PastPaper) error {
	query := `
		UPDATE past_papers
		SET subject = $1, year = $2, board = $3, class_level = $4,
		    exam_shift = $5, is_solved = $6, file_url = $7
		WHERE id = $8
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		p.Subject, p.Year, p.Board, p.ClassLevel, p.ExamShift, p.IsSolved, p.FileURL, id,
	).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("updating past paper: %w", err)
	}
	p.ID = id
	return nil
}

// Delete removes a past paper row.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM past_papers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting past paper: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FileURLs returns every non-null file_url in the table.
func (r *PostgresRepository) FileURLs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT file_url FROM past_papers WHERE file_url IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("listing past paper file urls: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning past paper file urls: %w", err)
	}
	return urls, nil
}

// List retrieves a filtered page of past papers, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(subject ILIKE $%d OR board ILIKE $%d OR class_level ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+*filter.Query+"%")
		argIdx++
	}
	if filter.Board != nil && *filter.Board != "" {
		conditions = append(conditions, fmt.Sprintf("board ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Board+"%")
		argIdx++
	}
	if filter.ClassLevel != nil && *filter.ClassLevel != "" {
		conditions = append(conditions, fmt.Sprintf("class_level ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.ClassLevel+"%")
		argIdx++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM past_papers %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting past papers: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM past_papers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, paperColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing past papers: %w", err)
	}
	defer rows.Close()

	papers := []PastPaper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning past paper row: %w", err)
		}
		papers = append(papers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating past paper rows: %w", err)
	}

	return &ListResult{
		PastPapers: papers,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func scanPaper(row pgx.Row) (*PastPaper, error) {
	var p PastPaper
	err := row.Scan(
		&p.ID, &p.Subject, &p.Year, &p.Board, &p.ClassLevel,
		&p.ExamShift, &p.IsSolved, &p.FileURL, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
