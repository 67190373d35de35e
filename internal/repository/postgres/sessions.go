package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
	"github.com/arklim/talent-platform-auth/internal/repository"
)

var sessionColumns = []string{
	"id",
	"user_id",
	"current_refresh_token_id",
	"created_at",
	"last_used_at",
	"is_active",
}

// SessionRepository implements port.SessionStore for PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("auth.sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.CurrentRefreshTokenID,
			session.CreatedAt,
			session.LastUsedAt,
			session.IsActive,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("auth.sessions").
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	return r.scanSession(r.exec.QueryRow(ctx, stmt, args...))
}

// SwapRefreshToken performs the compare-and-set that makes refresh rotation
// single-use: the update only lands when current_refresh_token_id still
// holds oldTokenID on an active session. Zero rows affected means a
// concurrent rotation won the race.
func (r *SessionRepository) SwapRefreshToken(ctx context.Context, sessionID, oldTokenID, newTokenID string, at time.Time) (bool, error) {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("current_refresh_token_id", newTokenID).
		Set("last_used_at", at).
		Where(squirrel.Eq{
			"id":                       sessionID,
			"current_refresh_token_id": oldTokenID,
			"is_active":                true,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build swap refresh token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Deactivate marks a single session inactive.
func (r *SessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeactivateAll marks every active session of the user inactive and returns
// the refresh token ids that were current on them, so the caller can
// blacklist each one.
func (r *SessionRepository) DeactivateAll(ctx context.Context, userID string) ([]string, error) {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		Suffix("RETURNING current_refresh_token_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build deactivate all sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("deactivate all sessions: %w", err)
	}
	defer rows.Close()

	var tokenIDs []string
	for rows.Next() {
		var tokenID string
		if err := rows.Scan(&tokenID); err != nil {
			return nil, fmt.Errorf("scan revoked token id: %w", err)
		}
		if tokenID != "" {
			tokenIDs = append(tokenIDs, tokenID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revoked token ids: %w", err)
	}

	return tokenIDs, nil
}

// ListActiveByUser returns all active sessions for the user, newest first.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("auth.sessions").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.CurrentRefreshTokenID,
			&session.CreatedAt,
			&session.LastUsedAt,
			&session.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (*domain.Session, error) {
	var session domain.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.CurrentRefreshTokenID,
		&session.CreatedAt,
		&session.LastUsedAt,
		&session.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &session, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
