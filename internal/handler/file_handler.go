package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clouddrive/internal/service"
)

// downloadChunkSize is the buffer used when streaming blobs to clients.
const downloadChunkSize = 32 * 1024

// inlineContentTypes are the only types served with an inline disposition;
// everything else downloads as an attachment.
var inlineContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
}

type FileHandler struct {
	fileService *service.FileService
	maxFileSize int64
	log         *slog.Logger
}

func NewFileHandler(fileService *service.FileService, maxFileSize int64, log *slog.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, maxFileSize: maxFileSize, log: log}
}

type renameFileRequest struct {
	NewFilename string `json:"new_filename"`
}

type placeFileRequest struct {
	FolderID string `json:"folder_id,omitempty"`
}

func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	// One spare MiB so the multipart framing itself never trips the limit;
	// the service enforces the real content cap.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		http.Error(w, "Request too large or malformed", http.StatusBadRequest)
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	file, err := h.fileService.UploadFile(
		r.Context(),
		header.Filename,
		content,
		header.Header.Get("Content-Type"),
		r.FormValue("folder_id"),
		principal(r),
	)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.ListFiles(
		r.Context(),
		principal(r),
		r.URL.Query().Get("folder_id"),
		r.URL.Query().Get("search"),
	)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.GetFile(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

// DownloadFile streams the blob in 32 KiB chunks. ?inline=true requests an
// inline disposition, honored only for the whitelisted content types.
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	file, object, err := h.fileService.DownloadFile(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	defer object.Close()

	disposition := "attachment"
	if r.URL.Query().Get("inline") == "true" && inlineContentTypes[file.ContentType] {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Filename))
	if file.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	}

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(w, object, buf); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		h.log.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}

func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req renameFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	file, err := h.fileService.RenameFile(r.Context(), chi.URLParam(r, "id"), req.NewFilename, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.fileService.DeleteFile(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		writeError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	var req placeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	file, err := h.fileService.MoveFile(r.Context(), chi.URLParam(r, "id"), req.FolderID, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) CopyFile(w http.ResponseWriter, r *http.Request) {
	var req placeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	file, err := h.fileService.CopyFile(r.Context(), chi.URLParam(r, "id"), req.FolderID, principal(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, file)
}
