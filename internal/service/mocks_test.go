package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"clouddrive/internal/domain"
	"clouddrive/internal/service/s3"
)

// memFolderStore is an in-memory FolderStore with per-test error injection.
type memFolderStore struct {
	byID      map[uuid.UUID]*domain.Folder
	createErr error
}

func newMemFolderStore() *memFolderStore {
	return &memFolderStore{byID: make(map[uuid.UUID]*domain.Folder)}
}

func (m *memFolderStore) Create(_ context.Context, folder *domain.Folder) error {
	if m.createErr != nil {
		return m.createErr
	}
	folder.ID = uuid.New()
	folder.CreatedDate = time.Now().UTC()
	clone := *folder
	m.byID[folder.ID] = &clone
	return nil
}

func (m *memFolderStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Folder, error) {
	folder, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *folder
	return &clone, nil
}

func (m *memFolderStore) List(_ context.Context, q domain.FolderQuery) ([]domain.Folder, error) {
	var out []domain.Folder
	for _, folder := range m.byID {
		if q.Owner != nil && folder.Owner != *q.Owner {
			continue
		}
		if q.RootOnly {
			if folder.ParentID != nil {
				continue
			}
		} else if q.ParentID != nil {
			if folder.ParentID == nil || *folder.ParentID != *q.ParentID {
				continue
			}
		}
		out = append(out, *folder)
	}
	return out, nil
}

func (m *memFolderStore) NameExists(_ context.Context, name string, parentID *uuid.UUID, owner string, excludeID *uuid.UUID) (bool, error) {
	for _, folder := range m.byID {
		if folder.Name != name || folder.Owner != owner {
			continue
		}
		if excludeID != nil && folder.ID == *excludeID {
			continue
		}
		if parentID == nil {
			if folder.ParentID == nil {
				return true, nil
			}
		} else if folder.ParentID != nil && *folder.ParentID == *parentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memFolderStore) UpdatePlacement(_ context.Context, id uuid.UUID, parentID *uuid.UUID, path string) (int64, error) {
	folder, ok := m.byID[id]
	if !ok {
		return 0, nil
	}
	folder.ParentID = parentID
	folder.Path = path
	return 1, nil
}

func (m *memFolderStore) UpdatePath(_ context.Context, id uuid.UUID, path string) error {
	folder, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("folder %s not found", id)
	}
	folder.Path = path
	return nil
}

func (m *memFolderStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

// memFileStore is an in-memory FileStore.
type memFileStore struct {
	byID          map[uuid.UUID]*domain.File
	createErr     error
	forceNameMiss bool // make UpdateName report zero matched rows
}

func newMemFileStore() *memFileStore {
	return &memFileStore{byID: make(map[uuid.UUID]*domain.File)}
}

func (m *memFileStore) Create(_ context.Context, file *domain.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	file.ID = uuid.New()
	file.UploadDate = time.Now().UTC()
	clone := *file
	m.byID[file.ID] = &clone
	return nil
}

func (m *memFileStore) GetByID(_ context.Context, id uuid.UUID) (*domain.File, error) {
	file, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *file
	return &clone, nil
}

func (m *memFileStore) List(_ context.Context, q domain.FileQuery) ([]domain.File, error) {
	var out []domain.File
	for _, file := range m.byID {
		if q.Owner != nil && file.Owner != *q.Owner {
			continue
		}
		if q.RootOnly {
			if file.FolderID != nil {
				continue
			}
		} else if q.FolderID != nil {
			if file.FolderID == nil || *file.FolderID != *q.FolderID {
				continue
			}
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(file.Filename), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, *file)
	}
	return out, nil
}

func (m *memFileStore) UpdateName(_ context.Context, id uuid.UUID, filename string) (int64, error) {
	if m.forceNameMiss {
		return 0, nil
	}
	file, ok := m.byID[id]
	if !ok {
		return 0, nil
	}
	file.Filename = filename
	return 1, nil
}

func (m *memFileStore) UpdatePlacement(_ context.Context, id uuid.UUID, folderID *uuid.UUID, path string) (int64, error) {
	file, ok := m.byID[id]
	if !ok {
		return 0, nil
	}
	file.FolderID = folderID
	file.Path = path
	return 1, nil
}

func (m *memFileStore) UpdatePathByFolder(_ context.Context, folderID uuid.UUID, path string) error {
	for _, file := range m.byID {
		if file.FolderID != nil && *file.FolderID == folderID {
			file.Path = path
		}
	}
	return nil
}

func (m *memFileStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

type memBlob struct {
	data        []byte
	contentType string
}

type memObject struct {
	io.ReadCloser
	blob memBlob
}

func (o *memObject) ContentLength() int64 {
	return int64(len(o.blob.data))
}

func (o *memObject) ContentType() string {
	return o.blob.contentType
}

// memStorage is an in-memory object store with failure injection by key.
type memStorage struct {
	objects   map[string]memBlob
	putErr    error
	copyErr   map[string]error // keyed by source key
	removeErr map[string]error
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects:   make(map[string]memBlob),
		copyErr:   make(map[string]error),
		removeErr: make(map[string]error),
	}
}

func (m *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = memBlob{data: data, contentType: contentType}
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) (s3.Object, error) {
	blob, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return &memObject{
		ReadCloser: io.NopCloser(bytes.NewReader(blob.data)),
		blob:       blob,
	}, nil
}

func (m *memStorage) Copy(_ context.Context, sourceKey, destKey string) error {
	if err := m.copyErr[sourceKey]; err != nil {
		return err
	}
	blob, ok := m.objects[sourceKey]
	if !ok {
		return fmt.Errorf("object not found: %s", sourceKey)
	}
	m.objects[destKey] = blob
	return nil
}

func (m *memStorage) Remove(_ context.Context, key string) error {
	if err := m.removeErr[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}

func (m *memStorage) BucketExists(context.Context) (bool, error) { return true, nil }
func (m *memStorage) EnsureBucket(context.Context) error         { return nil }

// testEnv wires both services over shared in-memory stores.
type testEnv struct {
	folders *memFolderStore
	files   *memFileStore
	storage *memStorage

	folderSvc *FolderService
	fileSvc   *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		folders: newMemFolderStore(),
		files:   newMemFileStore(),
		storage: newMemStorage(),
	}
	env.folderSvc = NewFolderService(env.folders, env.files, env.storage, log)
	env.fileSvc = NewFileService(env.files, env.folders, env.storage, DefaultMaxFileSize, log)
	return env
}

var (
	alice = domain.Principal{Username: "alice"}
	bob   = domain.Principal{Username: "bob"}
	admin = domain.Principal{Username: "root", IsAdmin: true}
)

// mustCreateFolder is a test shortcut for building trees.
func (e *testEnv) mustCreateFolder(t *testing.T, name, parentRef string, p domain.Principal) *domain.Folder {
	t.Helper()
	folder, err := e.folderSvc.CreateFolder(context.Background(), name, parentRef, p)
	if err != nil {
		t.Fatalf("CreateFolder(%q) error: %v", name, err)
	}
	return folder
}

// mustUploadFile uploads small content for tree-building.
func (e *testEnv) mustUploadFile(t *testing.T, name, folderRef string, content []byte, p domain.Principal) *domain.File {
	t.Helper()
	file, err := e.fileSvc.UploadFile(context.Background(), name, content, "text/plain", folderRef, p)
	if err != nil {
		t.Fatalf("UploadFile(%q) error: %v", name, err)
	}
	return file
}
