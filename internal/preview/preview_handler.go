package preview

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clouddrive/internal/auth"
	"clouddrive/internal/domain"
	"clouddrive/internal/service"
)

type Handler struct {
	previews    *Service
	fileService *service.FileService
	log         *slog.Logger
}

func NewHandler(previews *Service, fileService *service.FileService, log *slog.Logger) *Handler {
	return &Handler{previews: previews, fileService: fileService, log: log}
}

// GetPreview serves a JPEG preview of an image file the principal owns.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	file, err := h.fileService.GetFile(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeError(w, err)
		return
	}

	data, err := h.previews.Get(r.Context(), file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", previewType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error("preview request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
