package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clouddrive/internal/service"
)

type FolderHandler struct {
	folderService *service.FolderService
	log           *slog.Logger
}

func NewFolderHandler(folderService *service.FolderService, log *slog.Logger) *FolderHandler {
	return &FolderHandler{folderService: folderService, log: log}
}

type createFolderRequest struct {
	Name           string `json:"name"`
	ParentFolderID string `json:"parent_folder_id,omitempty"`
}

type placeFolderRequest struct {
	ParentFolderID string `json:"parent_folder_id,omitempty"`
}

func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), req.Name, req.ParentFolderID, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folderService.ListFolders(r.Context(), principal(r), r.URL.Query().Get("parent_folder_id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.folderService.GetFolder(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

// GetFolderContent serves the non-recursive listing; {id} may be "root".
func (h *FolderHandler) GetFolderContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.folderService.GetFolderContent(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.folderService.DeleteFolder(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		writeError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req placeFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.folderService.MoveFolder(r.Context(), chi.URLParam(r, "id"), req.ParentFolderID, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) CopyFolder(w http.ResponseWriter, r *http.Request) {
	var req placeFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.folderService.CopyFolder(r.Context(), chi.URLParam(r, "id"), req.ParentFolderID, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}
