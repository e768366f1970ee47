package service

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/google/uuid"

	"clouddrive/internal/domain"
	"clouddrive/internal/service/s3"
)

// DefaultMaxFileSize caps uploads at 50 MiB unless configured otherwise.
const DefaultMaxFileSize = 50 * 1024 * 1024

type FileService struct {
	files       FileStore
	folders     FolderStore
	storage     s3.Storage
	maxFileSize int64
	log         *slog.Logger
}

func NewFileService(files FileStore, folders FolderStore, storage s3.Storage, maxFileSize int64, log *slog.Logger) *FileService {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &FileService{
		files:       files,
		folders:     folders,
		storage:     storage,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

func folderIDOf(folder *domain.Folder) *uuid.UUID {
	if folder == nil {
		return nil
	}
	return &folder.ID
}

// resolveDestination authorizes the destination folder of an upload, move or
// copy and returns its id and path ("/" for the top level).
func (s *FileService) resolveDestination(ctx context.Context, folderRef string, p domain.Principal) (*domain.Folder, string, error) {
	folderID, err := parseFolderRef(folderRef, "folder id")
	if err != nil {
		return nil, "", err
	}
	if folderID == nil {
		return nil, "/", nil
	}

	folder, err := s.folders.GetByID(ctx, *folderID)
	if err != nil {
		return nil, "", domain.InternalError("failed to resolve folder", err)
	}
	if err := authorizeFolder(folder, p, "folder not found"); err != nil {
		return nil, "", err
	}
	return folder, folder.Path, nil
}

// UploadFile stores content in the object store and persists its metadata.
// The blob is written first; no metadata row ever exists without one.
func (s *FileService) UploadFile(ctx context.Context, filename string, content []byte, contentType, folderRef string, p domain.Principal) (*domain.File, error) {
	filename, err := domain.ValidateFileName(filename)
	if err != nil {
		return nil, err
	}

	folder, path, err := s.resolveDestination(ctx, folderRef, p)
	if err != nil {
		return nil, err
	}

	if int64(len(content)) > s.maxFileSize {
		return nil, domain.ValidationError("file exceeds the maximum allowed size of %d bytes", s.maxFileSize)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := newObjectKey(filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		return nil, domain.InternalError("failed to store file content", err)
	}

	file := &domain.File{
		Filename:    filename,
		Size:        int64(len(content)),
		ContentType: contentType,
		ObjectKey:   key,
		Path:        path,
		Owner:       p.Username,
	}
	if folder != nil {
		file.FolderID = &folder.ID
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, domain.InternalError("failed to store file metadata", err)
	}

	s.log.Info("file uploaded", "file_id", file.ID, "size", file.Size, "owner", p.Username)
	return file, nil
}

// ListFiles lists files, owner-filtered unless the principal is an admin.
// folderRef "" means no folder filter, "root" selects top-level files, and a
// real id selects that folder's direct children. search filters filenames by
// case-insensitive substring.
func (s *FileService) ListFiles(ctx context.Context, p domain.Principal, folderRef, search string) ([]domain.File, error) {
	q := domain.FileQuery{Search: search}
	if !p.IsAdmin {
		q.Owner = &p.Username
	}
	if folderRef != "" {
		folderID, err := parseFolderRef(folderRef, "folder id")
		if err != nil {
			return nil, err
		}
		q.FolderID = folderID
		q.RootOnly = folderID == nil
	}

	files, err := s.files.List(ctx, q)
	if err != nil {
		return nil, domain.InternalError("failed to list files", err)
	}
	return files, nil
}

func (s *FileService) GetFile(ctx context.Context, idRef string, p domain.Principal) (*domain.File, error) {
	id, err := parseID(idRef, "file id")
	if err != nil {
		return nil, err
	}

	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, domain.InternalError("failed to get file", err)
	}
	if err := authorizeFile(file, p, "file not found"); err != nil {
		return nil, err
	}
	return file, nil
}

// DownloadFile opens a stream over the file's blob. The caller owns the
// stream and must close it.
func (s *FileService) DownloadFile(ctx context.Context, idRef string, p domain.Principal) (*domain.File, s3.Object, error) {
	file, err := s.GetFile(ctx, idRef, p)
	if err != nil {
		return nil, nil, err
	}

	object, err := s.storage.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, nil, domain.InternalError("failed to open file content", err)
	}
	return file, object, nil
}

// RenameFile changes the display name. The update re-checks the row still
// exists, so a file deleted between authorization and update reports not
// found instead of silently succeeding.
func (s *FileService) RenameFile(ctx context.Context, idRef, newFilename string, p domain.Principal) (*domain.File, error) {
	newFilename, err := domain.ValidateFileName(newFilename)
	if err != nil {
		return nil, err
	}

	file, err := s.GetFile(ctx, idRef, p)
	if err != nil {
		return nil, err
	}

	matched, err := s.files.UpdateName(ctx, file.ID, newFilename)
	if err != nil {
		return nil, domain.InternalError("failed to rename file", err)
	}
	if matched == 0 {
		return nil, domain.NotFoundError("file not found")
	}

	file.Filename = newFilename
	return file, nil
}

// DeleteFile removes the blob, then the metadata row. A blob deletion
// failure leaves the row intact so the delete can be retried.
func (s *FileService) DeleteFile(ctx context.Context, idRef string, p domain.Principal) error {
	file, err := s.GetFile(ctx, idRef, p)
	if err != nil {
		return err
	}

	if err := s.storage.Remove(ctx, file.ObjectKey); err != nil {
		return domain.InternalError("failed to delete file content", err)
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return domain.InternalError("failed to delete file metadata", err)
	}

	s.log.Info("file deleted", "file_id", file.ID, "owner", p.Username)
	return nil
}

// MoveFile places a file in another folder ("" or "root" = top level) and
// stamps the destination's path on it.
func (s *FileService) MoveFile(ctx context.Context, idRef, folderRef string, p domain.Principal) (*domain.File, error) {
	file, err := s.GetFile(ctx, idRef, p)
	if err != nil {
		return nil, err
	}

	folder, path, err := s.resolveDestination(ctx, folderRef, p)
	if err != nil {
		return nil, err
	}

	matched, err := s.files.UpdatePlacement(ctx, file.ID, folderIDOf(folder), path)
	if err != nil {
		return nil, domain.InternalError("failed to move file", err)
	}
	if matched == 0 {
		return nil, domain.NotFoundError("file not found")
	}

	file.FolderID = folderIDOf(folder)
	file.Path = path
	return file, nil
}

// CopyFile duplicates the blob under a fresh object key and inserts a new
// metadata row at the destination. The row is inserted only after the blob
// copy succeeds.
func (s *FileService) CopyFile(ctx context.Context, idRef, folderRef string, p domain.Principal) (*domain.File, error) {
	file, err := s.GetFile(ctx, idRef, p)
	if err != nil {
		return nil, err
	}

	folder, path, err := s.resolveDestination(ctx, folderRef, p)
	if err != nil {
		return nil, err
	}

	key := newObjectKey(file.Filename)
	if err := s.storage.Copy(ctx, file.ObjectKey, key); err != nil {
		return nil, domain.InternalError("failed to copy file content", err)
	}

	copied := &domain.File{
		Filename:    file.Filename,
		Size:        file.Size,
		ContentType: file.ContentType,
		ObjectKey:   key,
		FolderID:    folderIDOf(folder),
		Path:        path,
		Owner:       p.Username,
	}
	if err := s.files.Create(ctx, copied); err != nil {
		return nil, domain.InternalError("failed to store file metadata", err)
	}

	s.log.Info("file copied", "source_id", file.ID, "copy_id", copied.ID)
	return copied, nil
}
