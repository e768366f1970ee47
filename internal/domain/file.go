package domain

import (
	"time"

	"github.com/google/uuid"
)

// File is the metadata record of an uploaded blob. Path mirrors the current
// path of the containing folder ("/" at the top level); ObjectKey points at
// exactly one blob in the object store.
type File struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Filename    string     `json:"filename" db:"filename"`
	Size        int64      `json:"size" db:"size"`
	ContentType string     `json:"content_type" db:"content_type"`
	ObjectKey   string     `json:"object_key" db:"object_key"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty" db:"folder_id"`
	Path        string     `json:"path" db:"path"`
	Owner       string     `json:"owner" db:"owner"`
	UploadDate  time.Time  `json:"upload_date" db:"upload_date"`
}

// FileQuery filters file listings. A nil Owner means no ownership filter.
// RootOnly selects files outside any folder; FolderID, when set, selects
// files directly inside that folder. Search matches the filename as a
// case-insensitive substring.
type FileQuery struct {
	Owner    *string
	FolderID *uuid.UUID
	RootOnly bool
	Search   string
}
