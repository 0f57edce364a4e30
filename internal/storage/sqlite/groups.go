package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/storage"
)

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, chat_id, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, group.ChatID, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	now := time.Now().Unix()
	for _, userID := range group.MemberIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			group.ID, userID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := seedBalancePairs(ctx, tx, group.ID, group.MemberIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group, including its member IDs.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, chat_id, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.ChatID, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at, user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		group.MemberIDs = append(group.MemberIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return group, nil
}

// AddGroupMember adds a user to a group. Zero balance rows against every
// existing member are seeded in the same transaction, both directions, so
// the pairwise table always holds a mirrored pair for every member pair.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ?", groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to get existing members: %w", err)
	}
	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if id != userID {
			existing = append(existing, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group member: %w", err)
	}

	for _, other := range existing {
		if err := seedBalancePairs(ctx, tx, groupID, []string{userID, other}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListGroupMembers returns the users in a group, ordered by display name.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.display_name, u.password_hash, u.created_at, u.updated_at
		 FROM users u
		 JOIN group_members gm ON gm.user_id = u.id
		 WHERE gm.group_id = ?
		 ORDER BY u.display_name, u.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return users, nil
}

// seedBalancePairs inserts zero-amount debt rows for every ordered pair of
// the given members, skipping rows that already exist.
func seedBalancePairs(ctx context.Context, tx *sql.Tx, groupID string, memberIDs []string) error {
	for _, a := range memberIDs {
		for _, b := range memberIDs {
			if a == b {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO debts (group_id, user_id, opp_user_id, amount) VALUES (?, ?, ?, 0)
				 ON CONFLICT(group_id, user_id, opp_user_id) DO NOTHING`,
				groupID, a, b,
			)
			if err != nil {
				return fmt.Errorf("failed to seed balance pair: %w", err)
			}
		}
	}
	return nil
}
