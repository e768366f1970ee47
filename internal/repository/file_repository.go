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

type FileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
        INSERT INTO files (filename, size, content_type, object_key, folder_id, path, owner)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, upload_date`

	err := r.db.QueryRowContext(
		ctx,
		query,
		file.Filename,
		file.Size,
		file.ContentType,
		file.ObjectKey,
		file.FolderID,
		file.Path,
		file.Owner,
	).Scan(&file.ID, &file.UploadDate)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// GetByID returns (nil, nil) when no file exists with that id.
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	var file domain.File
	query := `SELECT id, filename, size, content_type, object_key, folder_id, path, COALESCE(owner, '') AS owner, upload_date FROM files WHERE id = $1`

	err := r.db.GetContext(ctx, &file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

func (r *FileRepository) List(ctx context.Context, q domain.FileQuery) ([]domain.File, error) {
	var where []string
	var args []any

	if q.Owner != nil {
		args = append(args, *q.Owner)
		where = append(where, fmt.Sprintf("owner = $%d", len(args)))
	}
	if q.RootOnly {
		where = append(where, "folder_id IS NULL")
	} else if q.FolderID != nil {
		args = append(args, *q.FolderID)
		where = append(where, fmt.Sprintf("folder_id = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("filename ILIKE $%d", len(args)))
	}

	query := `SELECT id, filename, size, content_type, object_key, folder_id, path, COALESCE(owner, '') AS owner, upload_date FROM files`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY filename LIMIT " + strconv.Itoa(listLimit)

	files := []domain.File{}
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// UpdateName renames a file, returning the number of matched rows so the
// caller can detect a row that vanished after authorization.
func (r *FileRepository) UpdateName(ctx context.Context, id uuid.UUID, filename string) (int64, error) {
	query := `UPDATE files SET filename = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, filename, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update file name: %w", err)
	}

	matched, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return matched, nil
}

// UpdatePlacement moves a file to another folder and stamps the folder's
// path on it.
func (r *FileRepository) UpdatePlacement(ctx context.Context, id uuid.UUID, folderID *uuid.UUID, path string) (int64, error) {
	query := `UPDATE files SET folder_id = $1, path = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, folderID, path, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update file placement: %w", err)
	}

	matched, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return matched, nil
}

// UpdatePathByFolder bulk-stamps a new path on every file directly inside a
// folder. Used when a folder move re-materializes paths for a subtree.
func (r *FileRepository) UpdatePathByFolder(ctx context.Context, folderID uuid.UUID, path string) error {
	query := `UPDATE files SET path = $1 WHERE folder_id = $2`

	if _, err := r.db.ExecContext(ctx, query, path, folderID); err != nil {
		return fmt.Errorf("failed to update file paths: %w", err)
	}

	return nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM files WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
