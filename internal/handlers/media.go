package handlers

import (
	"Cookbook/internal/config"
	"Cookbook/internal/service"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MediaHandler — загрузка во временное хранилище и отдача медиа.
type MediaHandler struct {
	Media  *service.MediaService
	Logger *zap.SugaredLogger
	Config *config.Config
}

func NewMediaHandler(media *service.MediaService, logger *zap.SugaredLogger, cfg *config.Config) *MediaHandler {
	return &MediaHandler{Media: media, Logger: logger, Config: cfg}
}

// Upload загружает файл под media/temp/ без привязки к черновику
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	ups, ok := readUploads(w, r, h.Logger, h.Config.MediaMaxBytes(), 1, "file")
	if !ok {
		return
	}
	url, err := h.Media.UploadToStaging(r.Context(), ups[0], "")
	if err != nil {
		writeError(w, h.Logger, "UploadMedia", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Serve отдаёт объект по ключу. Медиа публичны.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeFail(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	b, err := h.Media.Fetch(r.Context(), key)
	if err != nil {
		writeError(w, h.Logger, "ServeMedia", err)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	if !service.IsStaged(key) {
		// постоянные ключи не переиспользуются
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Data)
}

// readUploads читает до limit файлов из multipart-полей fields.
// Пишет ответ сам и возвращает ok=false при ошибке.
func readUploads(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, maxFile int64, limit int, fields ...string) ([]service.Upload, bool) {
	// лимит тела: все файлы плюс запас на служебные части формы
	r.Body = http.MaxBytesReader(w, r.Body, maxFile*int64(limit)+1<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, http.StatusRequestEntityTooLarge, "VALIDATION_FAILED", "payload too large")
			return nil, false
		}
		logger.Warnw("upload: invalid multipart form", "error", err)
		writeFail(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid multipart form")
		return nil, false
	}

	var headers []*multipart.FileHeader
	for _, f := range fields {
		headers = append(headers, r.MultipartForm.File[f]...)
	}
	if len(headers) == 0 {
		writeFail(w, http.StatusBadRequest, "VALIDATION_FAILED", "no file")
		return nil, false
	}
	if len(headers) > limit {
		writeFail(w, http.StatusBadRequest, "VALIDATION_FAILED", "too many files, at most "+strconv.Itoa(limit))
		return nil, false
	}

	ups := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxFile {
			logger.Warnw("upload: file too large", "file", fh.Filename, "size", fh.Size, "limit", maxFile)
			writeFail(w, http.StatusRequestEntityTooLarge, "VALIDATION_FAILED", "file too large")
			return nil, false
		}
		data, err := readFile(fh)
		if err != nil {
			logger.Warnw("upload: failed to read file", "file", fh.Filename, "error", err)
			writeFail(w, http.StatusBadRequest, "VALIDATION_FAILED", "failed to read file")
			return nil, false
		}
		ups = append(ups, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return ups, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
