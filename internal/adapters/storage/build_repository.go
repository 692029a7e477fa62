package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/google/uuid"
)

// ErrBuildNotFound is returned when no build has the requested ID.
var ErrBuildNotFound = errors.New("build not found")

const buildColumns = `id, kind, script, target, sandbox, source_hash, status, exit_code,
	artifacts, error, created_at, completed_at, duration_ms`

// BuildRepository implements ports.BuildRepository using SQLite.
type BuildRepository struct {
	db *DB
}

// NewBuildRepository creates a new build repository.
func NewBuildRepository(db *DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// Create persists a new build.
func (r *BuildRepository) Create(ctx context.Context, build *domain.Build) error {
	artifactsJSON, err := json.Marshal(build.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	idBytes, _ := build.ID.MarshalBinary()

	query := `INSERT INTO builds (` + buildColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.conn.ExecContext(ctx, query,
		idBytes,
		string(build.Kind),
		build.Script,
		string(build.Target),
		build.Sandbox,
		build.SourceHash,
		string(build.Status),
		build.ExitCode,
		artifactsJSON,
		nullString(build.Error),
		build.CreatedAt.UnixMilli(),
		unixMilliPtr(build.CompletedAt),
		build.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	return nil
}

// Update writes the mutable fields of a build back.
func (r *BuildRepository) Update(ctx context.Context, build *domain.Build) error {
	artifactsJSON, err := json.Marshal(build.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	idBytes, _ := build.ID.MarshalBinary()

	query := `
		UPDATE builds SET
			status = ?, exit_code = ?, artifacts = ?, error = ?,
			completed_at = ?, duration_ms = ?
		WHERE id = ?
	`

	result, err := r.db.conn.ExecContext(ctx, query,
		string(build.Status),
		build.ExitCode,
		artifactsJSON,
		nullString(build.Error),
		unixMilliPtr(build.CompletedAt),
		build.Duration.Milliseconds(),
		idBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrBuildNotFound
	}

	return nil
}

// GetByID retrieves a build by its ID.
func (r *BuildRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Build, error) {
	idBytes, _ := id.MarshalBinary()

	row := r.db.conn.QueryRowContext(ctx, "SELECT "+buildColumns+" FROM builds WHERE id = ?", idBytes)
	build, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return build, nil
}

// List retrieves builds, newest first, with optional filtering.
func (r *BuildRepository) List(ctx context.Context, filter ports.BuildFilter) ([]*domain.Build, error) {
	query := "SELECT " + buildColumns + " FROM builds WHERE 1=1"
	var args []interface{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.Target != nil {
		query += " AND target = ?"
		args = append(args, string(*filter.Target))
	}
	if filter.Script != "" {
		query += " AND script = ?"
		args = append(args, filter.Script)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*domain.Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, build)
	}

	return builds, rows.Err()
}

// DeleteAll removes every recorded build.
func (r *BuildRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.conn.ExecContext(ctx, "DELETE FROM builds")
	if err != nil {
		return 0, fmt.Errorf("failed to clear builds: %w", err)
	}
	return result.RowsAffected()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBuild(row rowScanner) (*domain.Build, error) {
	var build domain.Build
	var idBytes, artifactsJSON []byte
	var kind, target, status string
	var createdAt, durationMs int64
	var completedAt sql.NullInt64
	var errorStr sql.NullString

	err := row.Scan(&idBytes, &kind, &build.Script, &target, &build.Sandbox,
		&build.SourceHash, &status, &build.ExitCode, &artifactsJSON, &errorStr,
		&createdAt, &completedAt, &durationMs)
	if err != nil {
		return nil, err
	}

	build.ID = uuidFromBytes(idBytes)
	build.Kind = domain.BuildKind(kind)
	build.Target = domain.Target(target)
	build.Status = domain.BuildStatus(status)
	_ = json.Unmarshal(artifactsJSON, &build.Artifacts)
	build.CreatedAt = time.UnixMilli(createdAt)
	build.Duration = time.Duration(durationMs) * time.Millisecond

	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64)
		build.CompletedAt = &t
	}
	if errorStr.Valid {
		build.Error = errorStr.String
	}

	return &build, nil
}

func uuidFromBytes(b []byte) uuid.UUID {
	var id uuid.UUID
	copy(id[:], b)
	return id
}

func unixMilliPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ ports.BuildRepository = (*BuildRepository)(nil)
