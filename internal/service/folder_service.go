package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"clouddrive/internal/domain"
	"clouddrive/internal/service/s3"
)

type FolderService struct {
	folders FolderStore
	files   FileStore
	storage s3.Storage
	log     *slog.Logger
}

func NewFolderService(folders FolderStore, files FileStore, storage s3.Storage, log *slog.Logger) *FolderService {
	return &FolderService{
		folders: folders,
		files:   files,
		storage: storage,
		log:     log,
	}
}

// CreateFolder creates a folder under parentRef ("" or "root" = top level)
// owned by the acting principal. Sibling folders of one owner must have
// distinct names.
func (s *FolderService) CreateFolder(ctx context.Context, name, parentRef string, p domain.Principal) (*domain.Folder, error) {
	name, err := domain.ValidateFolderName(name)
	if err != nil {
		return nil, err
	}

	parentPath := "/"
	parentID, err := parseFolderRef(parentRef, "parent folder id")
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, domain.InternalError("failed to resolve parent folder", err)
		}
		if err := authorizeFolder(parent, p, "parent folder not found"); err != nil {
			return nil, err
		}
		parentPath = parent.Path
	}

	taken, err := s.folders.NameExists(ctx, name, parentID, p.Username, nil)
	if err != nil {
		return nil, domain.InternalError("failed to check folder name", err)
	}
	if taken {
		return nil, domain.ConflictError("a folder with that name already exists here")
	}

	folder := &domain.Folder{
		Name:     name,
		ParentID: parentID,
		Path:     childPath(parentPath, name),
		Owner:    p.Username,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, domain.InternalError("failed to create folder", err)
	}

	s.log.Info("folder created", "folder_id", folder.ID, "path", folder.Path, "owner", p.Username)
	return folder, nil
}

// ListFolders lists the direct child folders of parentRef, owner-filtered
// unless the principal is an admin.
func (s *FolderService) ListFolders(ctx context.Context, p domain.Principal, parentRef string) ([]domain.Folder, error) {
	parentID, err := parseFolderRef(parentRef, "folder id")
	if err != nil {
		return nil, err
	}

	q := domain.FolderQuery{ParentID: parentID, RootOnly: parentID == nil}
	if !p.IsAdmin {
		q.Owner = &p.Username
	}

	folders, err := s.folders.List(ctx, q)
	if err != nil {
		return nil, domain.InternalError("failed to list folders", err)
	}
	return folders, nil
}

func (s *FolderService) GetFolder(ctx context.Context, idRef string, p domain.Principal) (*domain.Folder, error) {
	id, err := parseID(idRef, "folder id")
	if err != nil {
		return nil, err
	}

	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, domain.InternalError("failed to get folder", err)
	}
	if err := authorizeFolder(folder, p, "folder not found"); err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderContent returns the direct children (folders and files) of the
// referenced folder, non-recursively. idRef may be the "root" sentinel.
func (s *FolderService) GetFolderContent(ctx context.Context, idRef string, p domain.Principal) (*domain.FolderContent, error) {
	folderID, err := parseFolderRef(idRef, "folder id")
	if err != nil {
		return nil, err
	}

	folderQuery := domain.FolderQuery{ParentID: folderID, RootOnly: folderID == nil}
	fileQuery := domain.FileQuery{FolderID: folderID, RootOnly: folderID == nil}
	if !p.IsAdmin {
		folderQuery.Owner = &p.Username
		fileQuery.Owner = &p.Username
	}

	folders, err := s.folders.List(ctx, folderQuery)
	if err != nil {
		return nil, domain.InternalError("failed to list folders", err)
	}
	files, err := s.files.List(ctx, fileQuery)
	if err != nil {
		return nil, domain.InternalError("failed to list files", err)
	}

	return &domain.FolderContent{
		FolderID:   idRef,
		Folders:    folders,
		Files:      files,
		TotalItems: len(folders) + len(files),
	}, nil
}

// DeleteFolder removes a folder and everything under it, depth-first. Blob
// deletion failures abort the whole operation; a retry simply no longer sees
// the children that were already removed.
func (s *FolderService) DeleteFolder(ctx context.Context, idRef string, p domain.Principal) error {
	folder, err := s.GetFolder(ctx, idRef, p)
	if err != nil {
		return err
	}
	return s.deleteFolderTree(ctx, folder, p, 0)
}

func (s *FolderService) deleteFolderTree(ctx context.Context, folder *domain.Folder, p domain.Principal, depth int) error {
	if depth > maxTreeDepth {
		return domain.InternalError("folder tree exceeds maximum depth", nil)
	}

	files, err := s.files.List(ctx, domain.FileQuery{FolderID: &folder.ID})
	if err != nil {
		return domain.InternalError("failed to list folder files", err)
	}
	for i := range files {
		if err := s.storage.Remove(ctx, files[i].ObjectKey); err != nil {
			return domain.InternalError("failed to delete file content", err)
		}
		if err := s.files.Delete(ctx, files[i].ID); err != nil {
			return domain.InternalError("failed to delete file metadata", err)
		}
	}

	subfolders, err := s.folders.List(ctx, domain.FolderQuery{ParentID: &folder.ID})
	if err != nil {
		return domain.InternalError("failed to list subfolders", err)
	}
	for i := range subfolders {
		// The ownership check repeats at every level, as if the caller had
		// issued the delete for the subfolder directly.
		if err := authorizeFolder(&subfolders[i], p, "folder not found"); err != nil {
			return err
		}
		if err := s.deleteFolderTree(ctx, &subfolders[i], p, depth+1); err != nil {
			return err
		}
	}

	if err := s.folders.Delete(ctx, folder.ID); err != nil {
		return domain.InternalError("failed to delete folder", err)
	}

	s.log.Info("folder deleted", "folder_id", folder.ID, "path", folder.Path)
	return nil
}

// MoveFolder re-parents a folder and re-materializes the path of every
// descendant. Only direct self-parenting is rejected; moving a folder into
// one of its own descendants is not detected here.
func (s *FolderService) MoveFolder(ctx context.Context, idRef, parentRef string, p domain.Principal) (*domain.Folder, error) {
	folder, err := s.GetFolder(ctx, idRef, p)
	if err != nil {
		return nil, err
	}

	newParentPath := "/"
	parentID, err := parseFolderRef(parentRef, "parent folder id")
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, domain.InternalError("failed to resolve destination folder", err)
		}
		if err := authorizeFolder(parent, p, "parent folder not found"); err != nil {
			return nil, err
		}
		if *parentID == folder.ID {
			return nil, domain.ValidationError("cannot move a folder into itself")
		}
		newParentPath = parent.Path
	}

	taken, err := s.folders.NameExists(ctx, folder.Name, parentID, p.Username, &folder.ID)
	if err != nil {
		return nil, domain.InternalError("failed to check folder name", err)
	}
	if taken {
		return nil, domain.ConflictError("a folder with that name already exists at the destination")
	}

	newPath := childPath(newParentPath, folder.Name)
	matched, err := s.folders.UpdatePlacement(ctx, folder.ID, parentID, newPath)
	if err != nil {
		return nil, domain.InternalError("failed to move folder", err)
	}
	if matched == 0 {
		return nil, domain.NotFoundError("folder not found")
	}

	if err := s.restampPaths(ctx, folder.ID, newPath, 0); err != nil {
		return nil, err
	}

	moved, err := s.folders.GetByID(ctx, folder.ID)
	if err != nil {
		return nil, domain.InternalError("failed to reload folder", err)
	}
	if moved == nil {
		return nil, domain.NotFoundError("folder not found")
	}

	s.log.Info("folder moved", "folder_id", folder.ID, "path", newPath)
	return moved, nil
}

// restampPaths rewrites the materialized path of every descendant after a
// move. Not transactional: a failure partway leaves the remaining subtree
// with stale paths.
func (s *FolderService) restampPaths(ctx context.Context, folderID uuid.UUID, newPath string, depth int) error {
	if depth > maxTreeDepth {
		return domain.InternalError("folder tree exceeds maximum depth", nil)
	}

	if err := s.files.UpdatePathByFolder(ctx, folderID, newPath); err != nil {
		return domain.InternalError("failed to update file paths", err)
	}

	subfolders, err := s.folders.List(ctx, domain.FolderQuery{ParentID: &folderID})
	if err != nil {
		return domain.InternalError("failed to list subfolders", err)
	}
	for i := range subfolders {
		subPath := childPath(newPath, subfolders[i].Name)
		if err := s.folders.UpdatePath(ctx, subfolders[i].ID, subPath); err != nil {
			return domain.InternalError("failed to update folder path", err)
		}
		if err := s.restampPaths(ctx, subfolders[i].ID, subPath, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// CopyFolder deep-copies a folder into parentRef. Name collisions at the
// destination are resolved with a "name (n)" suffix. Files that fail to copy
// are skipped; folder creation failures abort the copy.
func (s *FolderService) CopyFolder(ctx context.Context, idRef, parentRef string, p domain.Principal) (*domain.Folder, error) {
	folder, err := s.GetFolder(ctx, idRef, p)
	if err != nil {
		return nil, err
	}

	destPath := "/"
	parentID, err := parseFolderRef(parentRef, "parent folder id")
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, domain.InternalError("failed to resolve destination folder", err)
		}
		if err := authorizeFolder(parent, p, "parent folder not found"); err != nil {
			return nil, err
		}
		destPath = parent.Path
	}

	name, err := s.uniqueName(ctx, folder.Name, parentID, p.Username)
	if err != nil {
		return nil, err
	}

	copied := &domain.Folder{
		Name:     name,
		ParentID: parentID,
		Path:     childPath(destPath, name),
		Owner:    p.Username,
	}
	if err := s.folders.Create(ctx, copied); err != nil {
		return nil, domain.InternalError("failed to create folder copy", err)
	}

	if err := s.copyFolderContent(ctx, folder.ID, copied.ID, copied.Path, p, 0); err != nil {
		return nil, err
	}

	s.log.Info("folder copied", "source_id", folder.ID, "copy_id", copied.ID, "path", copied.Path)
	return copied, nil
}

// uniqueName probes the destination for a free folder name, suffixing
// "name (1)", "name (2)", ... until one is available.
func (s *FolderService) uniqueName(ctx context.Context, base string, parentID *uuid.UUID, owner string) (string, error) {
	name := base
	for counter := 1; ; counter++ {
		taken, err := s.folders.NameExists(ctx, name, parentID, owner, nil)
		if err != nil {
			return "", domain.InternalError("failed to check folder name", err)
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s (%d)", base, counter)
	}
}

func (s *FolderService) copyFolderContent(ctx context.Context, sourceID, destID uuid.UUID, destPath string, p domain.Principal, depth int) error {
	if depth > maxTreeDepth {
		return domain.InternalError("folder tree exceeds maximum depth", nil)
	}

	files, err := s.files.List(ctx, domain.FileQuery{FolderID: &sourceID})
	if err != nil {
		return domain.InternalError("failed to list folder files", err)
	}
	for i := range files {
		// Per-file failures are tolerated: the file is skipped and the copy
		// continues with its siblings.
		src := &files[i]
		key := newObjectKey(src.Filename)
		if err := s.storage.Copy(ctx, src.ObjectKey, key); err != nil {
			s.log.Warn("skipping file during folder copy", "file_id", src.ID, "error", err)
			continue
		}
		copied := &domain.File{
			Filename:    src.Filename,
			Size:        src.Size,
			ContentType: src.ContentType,
			ObjectKey:   key,
			FolderID:    &destID,
			Path:        destPath,
			Owner:       p.Username,
		}
		if err := s.files.Create(ctx, copied); err != nil {
			s.log.Warn("skipping file during folder copy", "file_id", src.ID, "error", err)
			continue
		}
	}

	subfolders, err := s.folders.List(ctx, domain.FolderQuery{ParentID: &sourceID})
	if err != nil {
		return domain.InternalError("failed to list subfolders", err)
	}
	for i := range subfolders {
		sub := &subfolders[i]
		subCopy := &domain.Folder{
			Name:     sub.Name,
			ParentID: &destID,
			Path:     childPath(destPath, sub.Name),
			Owner:    p.Username,
		}
		if err := s.folders.Create(ctx, subCopy); err != nil {
			return domain.InternalError("failed to create folder copy", err)
		}
		if err := s.copyFolderContent(ctx, sub.ID, subCopy.ID, subCopy.Path, p, depth+1); err != nil {
			return err
		}
	}

	return nil
}
