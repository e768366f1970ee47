package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clouddrive/internal/domain"
)

// listLimit caps every multi-row query, mirroring the bounded reads the
// services expect from the metadata store.
const listLimit = 1000

type FolderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	query := `
        INSERT INTO folders (name, parent_id, path, owner)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_date`

	err := r.db.QueryRowContext(
		ctx,
		query,
		folder.Name,
		folder.ParentID,
		folder.Path,
		folder.Owner,
	).Scan(&folder.ID, &folder.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}

	return nil
}

// GetByID returns (nil, nil) when no folder exists with that id.
func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Folder, error) {
	var folder domain.Folder
	query := `SELECT id, name, parent_id, path, COALESCE(owner, '') AS owner, created_date FROM folders WHERE id = $1`

	err := r.db.GetContext(ctx, &folder, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}

func (r *FolderRepository) List(ctx context.Context, q domain.FolderQuery) ([]domain.Folder, error) {
	where, args := folderFilter(q)

	query := `SELECT id, name, parent_id, path, COALESCE(owner, '') AS owner, created_date FROM folders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name LIMIT " + strconv.Itoa(listLimit)

	folders := []domain.Folder{}
	if err := r.db.SelectContext(ctx, &folders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return folders, nil
}

// NameExists reports whether a sibling folder with the given name already
// exists under parentID (nil = top level) for this owner. excludeID, when
// set, leaves that folder out of the check so an entity never collides with
// itself.
func (r *FolderRepository) NameExists(ctx context.Context, name string, parentID *uuid.UUID, owner string, excludeID *uuid.UUID) (bool, error) {
	where := []string{"name = $1", "owner = $2"}
	args := []any{name, owner}

	if parentID != nil {
		args = append(args, *parentID)
		where = append(where, fmt.Sprintf("parent_id = $%d", len(args)))
	} else {
		where = append(where, "parent_id IS NULL")
	}
	if excludeID != nil {
		args = append(args, *excludeID)
		where = append(where, fmt.Sprintf("id <> $%d", len(args)))
	}

	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM folders WHERE " + strings.Join(where, " AND ") + ")"
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check folder name: %w", err)
	}

	return exists, nil
}

// UpdatePlacement re-parents a folder and stamps its new materialized path,
// returning the number of matched rows.
func (r *FolderRepository) UpdatePlacement(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, path string) (int64, error) {
	query := `UPDATE folders SET parent_id = $1, path = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, parentID, path, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update folder placement: %w", err)
	}

	matched, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return matched, nil
}

func (r *FolderRepository) UpdatePath(ctx context.Context, id uuid.UUID, path string) error {
	query := `UPDATE folders SET path = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, path, id); err != nil {
		return fmt.Errorf("failed to update folder path: %w", err)
	}

	return nil
}

func (r *FolderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM folders WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	return nil
}

func folderFilter(q domain.FolderQuery) ([]string, []any) {
	var where []string
	var args []any

	if q.Owner != nil {
		args = append(args, *q.Owner)
		where = append(where, fmt.Sprintf("owner = $%d", len(args)))
	}
	if q.RootOnly {
		where = append(where, "parent_id IS NULL")
	} else if q.ParentID != nil {
		args = append(args, *q.ParentID)
		where = append(where, fmt.Sprintf("parent_id = $%d", len(args)))
	}

	return where, args
}
