package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clouddrive/internal/domain"
)

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs, err := env.folderSvc.CreateFolder(ctx, "Docs", "", alice)
	require.NoError(t, err)
	assert.Equal(t, "/Docs/", docs.Path)
	assert.Nil(t, docs.ParentID)
	assert.Equal(t, "alice", docs.Owner)
	assert.NotEqual(t, uuid.Nil, docs.ID)

	year, err := env.folderSvc.CreateFolder(ctx, "2024", docs.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, "/Docs/2024/", year.Path)
	require.NotNil(t, year.ParentID)
	assert.Equal(t, docs.ID, *year.ParentID)
}

func TestCreateFolder_RootSentinel(t *testing.T) {
	env := newTestEnv(t)

	folder, err := env.folderSvc.CreateFolder(context.Background(), "Docs", RootFolderID, alice)
	require.NoError(t, err)
	assert.Nil(t, folder.ParentID)
	assert.Equal(t, "/Docs/", folder.Path)
}

func TestCreateFolder_InvalidName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		label string
		name  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"forbidden characters", "a/b"},
		{"too long", strings.Repeat("a", 101)},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			_, err := env.folderSvc.CreateFolder(ctx, tc.name, "", alice)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestCreateFolder_TrimsName(t *testing.T) {
	env := newTestEnv(t)

	folder, err := env.folderSvc.CreateFolder(context.Background(), "  Docs  ", "", alice)
	require.NoError(t, err)
	assert.Equal(t, "Docs", folder.Name)
	assert.Equal(t, "/Docs/", folder.Path)
}

func TestCreateFolder_SiblingNameConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustCreateFolder(t, "Docs", "", alice)

	_, err := env.folderSvc.CreateFolder(ctx, "Docs", "", alice)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// The same name is free for another owner and under another parent.
	_, err = env.folderSvc.CreateFolder(ctx, "Docs", "", bob)
	assert.NoError(t, err)

	other := env.mustCreateFolder(t, "Other", "", alice)
	_, err = env.folderSvc.CreateFolder(ctx, "Docs", other.ID.String(), alice)
	assert.NoError(t, err)
}

func TestCreateFolder_ParentOwnedByOther(t *testing.T) {
	env := newTestEnv(t)

	parent := env.mustCreateFolder(t, "Private", "", bob)

	_, err := env.folderSvc.CreateFolder(context.Background(), "Docs", parent.ID.String(), alice)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCreateFolder_MalformedParentID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.folderSvc.CreateFolder(context.Background(), "Docs", "not-a-uuid", alice)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestGetFolder_OwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.mustCreateFolder(t, "Docs", "", alice)

	got, err := env.folderSvc.GetFolder(ctx, folder.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.ID)

	// Another owner sees not found, never forbidden.
	_, err = env.folderSvc.GetFolder(ctx, folder.ID.String(), bob)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	// Admins bypass the ownership check.
	got, err = env.folderSvc.GetFolder(ctx, folder.ID.String(), admin)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.ID)

	_, err = env.folderSvc.GetFolder(ctx, uuid.NewString(), alice)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListFolders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	env.mustCreateFolder(t, "Music", "", alice)
	env.mustCreateFolder(t, "Stuff", "", bob)

	top, err := env.folderSvc.ListFolders(ctx, alice, "")
	require.NoError(t, err)
	names := folderNames(top)
	assert.ElementsMatch(t, []string{"Docs", "Music"}, names)

	children, err := env.folderSvc.ListFolders(ctx, alice, docs.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024"}, folderNames(children))

	// Admin listing is not owner-filtered.
	all, err := env.folderSvc.ListFolders(ctx, admin, RootFolderID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Docs", "Music", "Stuff"}, folderNames(all))

	_, err = env.folderSvc.ListFolders(ctx, alice, "nope")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestGetFolderContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	year := env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	env.mustUploadFile(t, "report.pdf", docs.ID.String(), []byte("pdf"), alice)
	// Nested entries must not appear in the direct listing.
	env.mustUploadFile(t, "deep.txt", year.ID.String(), []byte("x"), alice)

	content, err := env.folderSvc.GetFolderContent(ctx, docs.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, docs.ID.String(), content.FolderID)
	assert.Equal(t, 2, content.TotalItems)
	require.Len(t, content.Folders, 1)
	require.Len(t, content.Files, 1)
	assert.Equal(t, "2024", content.Folders[0].Name)
	assert.Equal(t, "report.pdf", content.Files[0].Filename)

	rootContent, err := env.folderSvc.GetFolderContent(ctx, RootFolderID, alice)
	require.NoError(t, err)
	assert.Equal(t, RootFolderID, rootContent.FolderID)
	assert.Equal(t, 1, rootContent.TotalItems)
}

func TestDeleteFolder_Cascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	year := env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	report := env.mustUploadFile(t, "report.pdf", docs.ID.String(), []byte("pdf"), alice)
	nested := env.mustUploadFile(t, "notes.txt", year.ID.String(), []byte("notes"), alice)
	keep := env.mustUploadFile(t, "keep.txt", "", []byte("keep"), alice)

	require.NoError(t, env.folderSvc.DeleteFolder(ctx, docs.ID.String(), alice))

	// Every row and every blob under the subtree is gone.
	assert.Empty(t, env.folders.byID)
	assert.NotContains(t, env.files.byID, report.ID)
	assert.NotContains(t, env.files.byID, nested.ID)
	assert.NotContains(t, env.storage.objects, report.ObjectKey)
	assert.NotContains(t, env.storage.objects, nested.ObjectKey)

	// Entities outside the subtree survive.
	assert.Contains(t, env.files.byID, keep.ID)
	assert.Contains(t, env.storage.objects, keep.ObjectKey)
}

func TestDeleteFolder_BlobFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	file := env.mustUploadFile(t, "report.pdf", docs.ID.String(), []byte("pdf"), alice)
	env.storage.removeErr[file.ObjectKey] = errors.New("s3 unavailable")

	err := env.folderSvc.DeleteFolder(ctx, docs.ID.String(), alice)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	// The metadata row and the folder itself stay, so the delete can be retried.
	assert.Contains(t, env.files.byID, file.ID)
	assert.Contains(t, env.folders.byID, docs.ID)
}

func TestDeleteFolder_NotOwner(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "Docs", "", alice)

	err := env.folderSvc.DeleteFolder(context.Background(), docs.ID.String(), bob)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Contains(t, env.folders.byID, docs.ID)
}

func TestMoveFolder_RestampsDescendantPaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	year := env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	sub := env.mustCreateFolder(t, "Q1", year.ID.String(), alice)
	file := env.mustUploadFile(t, "report.pdf", year.ID.String(), []byte("pdf"), alice)
	deep := env.mustUploadFile(t, "jan.txt", sub.ID.String(), []byte("jan"), alice)

	moved, err := env.folderSvc.MoveFolder(ctx, year.ID.String(), RootFolderID, alice)
	require.NoError(t, err)
	assert.Equal(t, "/2024/", moved.Path)
	assert.Nil(t, moved.ParentID)

	// Every descendant path reflects the new location.
	assert.Equal(t, "/2024/Q1/", env.folders.byID[sub.ID].Path)
	assert.Equal(t, "/2024/", env.files.byID[file.ID].Path)
	assert.Equal(t, "/2024/Q1/", env.files.byID[deep.ID].Path)

	// Moving back under Docs restamps again.
	moved, err = env.folderSvc.MoveFolder(ctx, year.ID.String(), docs.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, "/Docs/2024/", moved.Path)
	assert.Equal(t, "/Docs/2024/Q1/", env.files.byID[deep.ID].Path)
}

func TestMoveFolder_IntoItself(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "Docs", "", alice)

	_, err := env.folderSvc.MoveFolder(context.Background(), docs.ID.String(), docs.ID.String(), alice)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestMoveFolder_DestinationNameConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	loose := env.mustCreateFolder(t, "2024", "", alice)

	_, err := env.folderSvc.MoveFolder(ctx, loose.ID.String(), docs.ID.String(), alice)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// Moving a folder to where it already is keeps its own name out of the check.
	moved, err := env.folderSvc.MoveFolder(ctx, loose.ID.String(), RootFolderID, alice)
	require.NoError(t, err)
	assert.Equal(t, "/2024/", moved.Path)
}

func TestMoveFolder_DestinationOwnedByOther(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	dest := env.mustCreateFolder(t, "Dest", "", bob)

	_, err := env.folderSvc.MoveFolder(context.Background(), docs.ID.String(), dest.ID.String(), alice)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCopyFolder_DeepCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	year := env.mustCreateFolder(t, "2024", docs.ID.String(), alice)
	report := env.mustUploadFile(t, "report.pdf", year.ID.String(), []byte("pdf"), alice)

	dest := env.mustCreateFolder(t, "Backup", "", alice)

	copied, err := env.folderSvc.CopyFolder(ctx, docs.ID.String(), dest.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, "Docs", copied.Name)
	assert.Equal(t, "/Backup/Docs/", copied.Path)
	assert.NotEqual(t, docs.ID, copied.ID)

	// The whole structure is reproduced under the copy.
	subCopies, err := env.folders.List(ctx, domain.FolderQuery{ParentID: &copied.ID})
	require.NoError(t, err)
	require.Len(t, subCopies, 1)
	assert.Equal(t, "2024", subCopies[0].Name)
	assert.Equal(t, "/Backup/Docs/2024/", subCopies[0].Path)

	fileCopies, err := env.files.List(ctx, domain.FileQuery{FolderID: &subCopies[0].ID})
	require.NoError(t, err)
	require.Len(t, fileCopies, 1)

	// Blob copies are independent objects under fresh keys.
	assert.NotEqual(t, report.ObjectKey, fileCopies[0].ObjectKey)
	assert.Contains(t, env.storage.objects, fileCopies[0].ObjectKey)
	assert.Contains(t, env.storage.objects, report.ObjectKey)

	// The source tree is untouched.
	assert.Equal(t, "/Docs/2024/", env.folders.byID[year.ID].Path)
}

func TestCopyFolder_UniqueNameSuffix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)

	first, err := env.folderSvc.CopyFolder(ctx, docs.ID.String(), RootFolderID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Docs (1)", first.Name)
	assert.Equal(t, "/Docs (1)/", first.Path)

	second, err := env.folderSvc.CopyFolder(ctx, docs.ID.String(), RootFolderID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Docs (2)", second.Name)
}

func TestCopyFolder_SkipsFailedFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	bad := env.mustUploadFile(t, "bad.txt", docs.ID.String(), []byte("bad"), alice)
	good := env.mustUploadFile(t, "good.txt", docs.ID.String(), []byte("good"), alice)
	env.storage.copyErr[bad.ObjectKey] = errors.New("s3 unavailable")

	copied, err := env.folderSvc.CopyFolder(ctx, docs.ID.String(), RootFolderID, alice)
	require.NoError(t, err)

	fileCopies, err := env.files.List(ctx, domain.FileQuery{FolderID: &copied.ID})
	require.NoError(t, err)
	require.Len(t, fileCopies, 1)
	assert.Equal(t, "good.txt", fileCopies[0].Filename)
	assert.NotEqual(t, good.ObjectKey, fileCopies[0].ObjectKey)
}

func TestCopyFolder_FolderCreateFailureAborts(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "Docs", "", alice)
	env.folders.createErr = errors.New("insert failed")

	_, err := env.folderSvc.CopyFolder(context.Background(), docs.ID.String(), RootFolderID, alice)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func folderNames(folders []domain.Folder) []string {
	names := make([]string, 0, len(folders))
	for i := range folders {
		names = append(names, folders[i].Name)
	}
	return names
}
