package domain

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a node of the hierarchy. Path is the materialized path of the
// folder itself, always slash-terminated: parent path + name + "/".
// An empty Owner marks a legacy row that no principal may access.
type Folder struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	ParentID    *uuid.UUID `json:"parent_folder_id,omitempty" db:"parent_id"`
	Path        string     `json:"path" db:"path"`
	Owner       string     `json:"owner" db:"owner"`
	CreatedDate time.Time  `json:"created_date" db:"created_date"`
}

// FolderContent is the non-recursive listing of one folder. FolderID keeps
// the identifier the caller asked for, including the "root" sentinel.
type FolderContent struct {
	FolderID   string   `json:"folder_id"`
	Folders    []Folder `json:"folders"`
	Files      []File   `json:"files"`
	TotalItems int      `json:"total_items"`
}

// FolderQuery filters folder listings. A nil Owner means no ownership filter
// (admin). RootOnly selects top-level folders; otherwise ParentID, when set,
// selects direct children of that folder.
type FolderQuery struct {
	Owner    *string
	ParentID *uuid.UUID
	RootOnly bool
}
