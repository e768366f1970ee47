package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"clouddrive/internal/domain"
)

// RootFolderID is the sentinel callers send instead of a real identifier to
// mean "no parent / top level".
const RootFolderID = "root"

// maxTreeDepth bounds every recursive walk. Cycles are only partially
// checked on move, so runaway recursion must fail instead of blowing the
// stack.
const maxTreeDepth = 128

// FolderStore is the metadata contract for the folders collection.
type FolderStore interface {
	Create(ctx context.Context, folder *domain.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Folder, error)
	List(ctx context.Context, q domain.FolderQuery) ([]domain.Folder, error)
	NameExists(ctx context.Context, name string, parentID *uuid.UUID, owner string, excludeID *uuid.UUID) (bool, error)
	UpdatePlacement(ctx context.Context, id uuid.UUID, parentID *uuid.UUID, path string) (int64, error)
	UpdatePath(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore is the metadata contract for the files collection.
type FileStore interface {
	Create(ctx context.Context, file *domain.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error)
	List(ctx context.Context, q domain.FileQuery) ([]domain.File, error)
	UpdateName(ctx context.Context, id uuid.UUID, filename string) (int64, error)
	UpdatePlacement(ctx context.Context, id uuid.UUID, folderID *uuid.UUID, path string) (int64, error)
	UpdatePathByFolder(ctx context.Context, folderID uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// parseID turns an external identifier into a UUID, classifying malformed
// input as a validation error.
func parseID(ref, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, domain.ValidationError("invalid %s", field)
	}
	return id, nil
}

// parseFolderRef resolves a parent-folder reference. Empty string and the
// "root" sentinel both mean the top level and yield a nil id.
func parseFolderRef(ref, field string) (*uuid.UUID, error) {
	if ref == "" || ref == RootFolderID {
		return nil, nil
	}
	id, err := parseID(ref, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// childPath materializes the path of an entity named name placed under a
// folder with path parent. Paths are always slash-terminated.
func childPath(parent, name string) string {
	return strings.TrimRight(parent, "/") + "/" + name + "/"
}

// newObjectKey builds a globally unique object-store key that keeps the
// original filename visible for traceability.
func newObjectKey(filename string) string {
	return uuid.New().String() + "-" + filename
}
