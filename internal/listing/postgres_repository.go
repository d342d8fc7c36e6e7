package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// searchTables are queried by Search together with their title column.
var searchTables = []struct {
	name   string
	column string
	filter string
}{
	{name: "past_papers", column: "subject"},
	{name: "jobs", column: "title"},
	{name: "institutions", column: "name"},
	{name: "posts", column: "title", filter: "published = TRUE"},
	{name: "books", column: "title"},
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// List retrieves a page of rows of kind, newest first.
func (r *PostgresRepository) List(ctx context.Context, kind Kind, filter ListFilter) (*ListResult, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	whereClause := ""
	if filter.Public && t.publicFilter != "" {
		whereClause = "WHERE " + t.publicFilter
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", t.name, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting %s: %w", t.name, err)
	}

	offset := (filter.Page - 1) * filter.Limit
	dataQuery := fmt.Sprintf(`SELECT * FROM %s %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`, t.name, whereClause)
	rows, err := r.pool.Query(ctx, dataQuery, filter.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.name, err)
	}
	result, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning %s rows: %w", t.name, err)
	}

	return &ListResult{
		Rows:  result,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Get retrieves a single row of kind by id.
func (r *PostgresRepository) Get(ctx context.Context, kind Kind, id uuid.UUID) (Row, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return r.one(ctx, fmt.Sprintf("SELECT * FROM %s WHERE id = $1", t.name), id)
}

// GetPostBySlug retrieves a published post by slug.
func (r *PostgresRepository) GetPostBySlug(ctx context.Context, slug string) (Row, error) {
	return r.one(ctx, "SELECT * FROM posts WHERE slug = $1 AND published = TRUE", slug)
}

// Insert creates a row of kind from values and returns it.
func (r *PostgresRepository) Insert(ctx context.Context, kind Kind, values Values) (Row, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	cols, args, err := t.assignments(values)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		t.name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	row, err := r.one(ctx, query, args...)
	if err != nil {
		return nil, writeError(t.name, "inserting into", err)
	}
	return row, nil
}

// Update writes values to row id of kind and returns the updated row.
// Columns absent from values keep their current value.
func (r *PostgresRepository) Update(ctx context.Context, kind Kind, id uuid.UUID, values Values) (Row, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	cols, args, err := t.assignments(values)
	if err != nil {
		return nil, err
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		t.name, strings.Join(sets, ", "), len(args))

	row, err := r.one(ctx, query, args...)
	if err != nil {
		return nil, writeError(t.name, "updating", err)
	}
	return row, nil
}

// Delete removes a row of kind by id.
func (r *PostgresRepository) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	t, ok := tables[kind]
	if !ok {
		return ErrUnknownKind
	}
	result, err := r.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", t.name, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search runs a title match against every searchable table concurrently.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	if limit < 1 {
		limit = 6
	}

	hits := make([][]Row, len(searchTables))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range searchTables {
		g.Go(func() error {
			where := fmt.Sprintf("%s ILIKE $1", st.column)
			if st.filter != "" {
				where += " AND " + st.filter
			}
			q := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY created_at DESC LIMIT $2", st.name, where)
			rows, err := r.pool.Query(gctx, q, "%"+query+"%", limit)
			if err != nil {
				return fmt.Errorf("searching %s: %w", st.name, err)
			}
			found, err := collect(rows)
			if err != nil {
				return fmt.Errorf("scanning %s hits: %w", st.name, err)
			}
			hits[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(SearchResult, len(searchTables))
	for i, st := range searchTables {
		result[st.name] = hits[i]
	}
	return result, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning listing row: %w", err)
	}
	return normalize(row), nil
}

func writeError(tableName, op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s %s: %w", op, tableName, err)
}

func collect(rows pgx.Rows) ([]Row, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, normalize(m))
	}
	return out, nil
}

// normalize converts values pgx decodes without a Go type of their own.
// UUID columns arrive as [16]byte and are rendered as strings.
func normalize(m map[string]any) Row {
	for k, v := range m {
		if b, ok := v.([16]byte); ok {
			m[k] = uuid.UUID(b).String()
		}
	}
	return Row(m)
}
