package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const mappingColumns = "id, code, original_url, created_at, visits, is_active"

// PostgresMappingStore implements MappingStore on a pgx connection pool.
// Uniqueness is enforced by the UNIQUE constraint on code, and visit
// counting is a single guarded UPDATE, so no in-process locking is needed.
type PostgresMappingStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMappingStore(pool *pgxpool.Pool) *PostgresMappingStore {
	return &PostgresMappingStore{pool: pool}
}

// Migrate creates the mappings table if it does not exist.
func (s *PostgresMappingStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS url_mappings (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(255) UNIQUE NOT NULL,
			original_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			visits BIGINT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_url_mappings_code ON url_mappings (code);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresMappingStore) Insert(ctx context.Context, code, originalURL string) (*Mapping, error) {
	query := `INSERT INTO url_mappings (code, original_url) VALUES ($1, $2) RETURNING ` + mappingColumns
	row := s.pool.QueryRow(ctx, query, code, originalURL)
	m, err := scanMapping(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("insert mapping: %w: %v", ErrStoreUnavailable, err)
	}
	return m, nil
}

func (s *PostgresMappingStore) FindActive(ctx context.Context, code string) (*Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE code = $1 AND is_active`
	row := s.pool.QueryRow(ctx, query, code)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find mapping: %w: %v", ErrStoreUnavailable, err)
	}
	return m, nil
}

func (s *PostgresMappingStore) IncrementVisits(ctx context.Context, code string) (*Mapping, error) {
	query := `UPDATE url_mappings SET visits = visits + 1 WHERE code = $1 AND is_active RETURNING ` + mappingColumns
	row := s.pool.QueryRow(ctx, query, code)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment visits: %w: %v", ErrStoreUnavailable, err)
	}
	return m, nil
}

func (s *PostgresMappingStore) Deactivate(ctx context.Context, code string) (*Mapping, error) {
	// Unconditional on is_active: deactivating twice is a no-op success.
	query := `UPDATE url_mappings SET is_active = FALSE WHERE code = $1 RETURNING ` + mappingColumns
	row := s.pool.QueryRow(ctx, query, code)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("deactivate mapping: %w: %v", ErrStoreUnavailable, err)
	}
	return m, nil
}

func (s *PostgresMappingStore) ListAll(ctx context.Context) ([]Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM url_mappings`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.ID, &m.Code, &m.OriginalURL, &m.CreatedAt, &m.Visits, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan mapping: %w: %v", ErrStoreUnavailable, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mappings: %w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

func scanMapping(row pgx.Row) (*Mapping, error) {
	var m Mapping
	if err := row.Scan(&m.ID, &m.Code, &m.OriginalURL, &m.CreatedAt, &m.Visits, &m.IsActive); err != nil {
		return nil, err
	}
	return &m, nil
}
