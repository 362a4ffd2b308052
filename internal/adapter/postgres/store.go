package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/runhooks/internal/domain"
	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/database"
)

// Store implements database.HookStore using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ database.HookStore = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const hookColumns = `id, project_id, hook_type, url, events, result_filter, branch_filter, headers, secret, version, created_at, updated_at`

func (s *Store) ListHooks(ctx context.Context, projectID string) ([]hook.Hook, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE project_id = $1 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list hooks: %w", err)
	}
	defer rows.Close()

	hooks := []hook.Hook{}
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, rows.Err()
}

func (s *Store) GetHook(ctx context.Context, projectID, id string) (*hook.Hook, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE id = $1 AND project_id = $2`, id, projectID)

	h, err := scanHook(row)
	if err != nil {
		return nil, notFoundWrap(err, "get hook %s", id)
	}
	return &h, nil
}

// CreateHook inserts h. ID must be set; version and timestamps are filled in.
func (s *Store) CreateHook(ctx context.Context, h *hook.Hook) error {
	headers, err := marshalHeaders(h.Headers)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO hooks (id, project_id, hook_type, url, events, result_filter, branch_filter, headers, secret)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING version, created_at, updated_at`,
		h.ID, h.ProjectID, string(h.Type), h.URL, eventStrings(h.Events), string(h.ResultFilter),
		pgTextArray(h.BranchFilter), headers, h.Secret,
	).Scan(&h.Version, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create hook: %w", err)
	}
	return nil
}

// UpdateHook writes h if its version still matches and bumps the version.
func (s *Store) UpdateHook(ctx context.Context, h *hook.Hook) error {
	headers, err := marshalHeaders(h.Headers)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE hooks
		 SET url = $3, events = $4, result_filter = $5, branch_filter = $6, headers = $7, secret = $8,
		     version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND project_id = $2 AND version = $9
		 RETURNING version, updated_at`,
		h.ID, h.ProjectID, h.URL, eventStrings(h.Events), string(h.ResultFilter),
		pgTextArray(h.BranchFilter), headers, h.Secret, h.Version,
	).Scan(&h.Version, &h.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update hook %s: %w", h.ID, err)
	}

	// Distinguish a stale version from a missing row.
	var exists bool
	if qerr := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hooks WHERE id = $1 AND project_id = $2)`, h.ID, h.ProjectID,
	).Scan(&exists); qerr != nil {
		return fmt.Errorf("update hook %s: %w", h.ID, qerr)
	}
	if exists {
		return fmt.Errorf("update hook %s: %w", h.ID, domain.ErrConflict)
	}
	return fmt.Errorf("update hook %s: %w", h.ID, domain.ErrNotFound)
}

func (s *Store) DeleteHook(ctx context.Context, projectID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM hooks WHERE id = $1 AND project_id = $2`, id, projectID)
	return execExpectOne(tag, err, "delete hook %s", id)
}

func scanHook(row scannable) (hook.Hook, error) {
	var (
		h       hook.Hook
		typ     string
		events  []string
		result  string
		headers []byte
	)
	err := row.Scan(&h.ID, &h.ProjectID, &typ, &h.URL, &events, &result, &h.BranchFilter,
		&headers, &h.Secret, &h.Version, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return h, err
	}

	h.Type = hook.Type(typ)
	h.ResultFilter = hook.ResultFilter(result)
	h.Events = make([]hook.Event, len(events))
	for i, e := range events {
		h.Events[i] = hook.Event(e)
	}
	if len(h.BranchFilter) == 0 {
		h.BranchFilter = nil
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &h.Headers); err != nil {
			return h, fmt.Errorf("unmarshal headers: %w", err)
		}
		if len(h.Headers) == 0 {
			h.Headers = nil
		}
	}
	return h, nil
}

func eventStrings(events []hook.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}

func marshalHeaders(headers map[string]string) ([]byte, error) {
	if headers == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("marshal headers: %w", err)
	}
	return b, nil
}
