package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rankforge/rankforge/internal/types"
)

// CreateShare grants a collaborator access to a project. The invite token is
// generated here; callers deliver it out of band.
func (s *SQLiteStore) CreateShare(ctx context.Context, share types.ProjectShare) (*types.ProjectShare, error) {
	share.ID = ulid.Make().String()
	share.InviteToken = uuid.NewString()
	share.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_shares (id, project_id, owner_id, shared_with, shared_email, role, invite_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, share.ID, share.ProjectID, share.OwnerID, share.SharedWith, share.SharedEmail,
		share.Role, share.InviteToken, share.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateShare
		}
		return nil, fmt.Errorf("insert share: %w", err)
	}

	return &share, nil
}

// DeleteShare revokes a collaborator's access.
func (s *SQLiteStore) DeleteShare(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM project_shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSharesForProject returns all shares on a project.
func (s *SQLiteStore) ListSharesForProject(ctx context.Context, projectID string) ([]types.ProjectShare, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, owner_id, shared_with, shared_email, role, invite_token, created_at
		FROM project_shares
		WHERE project_id = ?
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	defer rows.Close()

	var shares []types.ProjectShare
	for rows.Next() {
		var sh types.ProjectShare
		var createdAt string
		if err := rows.Scan(&sh.ID, &sh.ProjectID, &sh.OwnerID, &sh.SharedWith,
			&sh.SharedEmail, &sh.Role, &sh.InviteToken, &createdAt); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		sh.CreatedAt = parseTime(createdAt)
		shares = append(shares, sh)
	}
	return shares, rows.Err()
}
