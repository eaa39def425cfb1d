package handlers

import (
	"Cookbook/internal/config"
	"Cookbook/internal/model"
	"Cookbook/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DraftHandler обрабатывает черновики рецептов и их публикацию.
type DraftHandler struct {
	Drafts    *service.DraftService
	Publisher *service.PublishService
	Logger    *zap.SugaredLogger
	Config    *config.Config
}

func NewDraftHandler(drafts *service.DraftService, publish *service.PublishService, logger *zap.SugaredLogger, cfg *config.Config) *DraftHandler {
	return &DraftHandler{Drafts: drafts, Publisher: publish, Logger: logger, Config: cfg}
}

// SaveDraftRequest — полное состояние формы мастера.
type SaveDraftRequest struct {
	ID                   string              `json:"id,omitempty"`
	BasicInfo            model.BasicInfo     `json:"basicInfo"`
	Ingredients          []model.Ingredient  `json:"ingredients"`
	Instructions         []model.Instruction `json:"instructions"`
	Media                model.Media         `json:"media"`
	Tags                 []string            `json:"tags"`
	Notes                string              `json:"notes"`
	CompletionPercentage int                 `json:"completionPercentage"`
	CurrentStep          int                 `json:"currentStep"`
	Override             bool                `json:"override"`
}

// Save создаёт или обновляет черновик
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req SaveDraftRequest
	if !decodeJSON(w, r, h.Logger, "SaveDraft", &req) {
		return
	}

	d, err := h.Drafts.Save(r.Context(), userID, service.SaveDraftInput{
		ID:                   req.ID,
		BasicInfo:            req.BasicInfo,
		Ingredients:          req.Ingredients,
		Instructions:         req.Instructions,
		Media:                req.Media,
		Tags:                 req.Tags,
		Notes:                req.Notes,
		CompletionPercentage: req.CompletionPercentage,
		CurrentStep:          req.CurrentStep,
		Override:             req.Override,
	})
	if err != nil {
		writeError(w, h.Logger, "SaveDraft", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	drafts, err := h.Drafts.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "ListDrafts", err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	d, err := h.Drafts.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetDraft", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Drafts.Delete(r.Context(), userID, id); err != nil {
		writeError(w, h.Logger, "DeleteDraft", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *DraftHandler) UpdateIngredients(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []model.Ingredient `json:"ingredients"`
	}
	h.updateSection(w, r, "UpdateIngredients", &req, func(userID int64, id string) (*model.Draft, error) {
		return h.Drafts.UpdateIngredients(r.Context(), userID, id, req.Ingredients)
	})
}

func (h *DraftHandler) UpdateInstructions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instructions []model.Instruction `json:"instructions"`
	}
	h.updateSection(w, r, "UpdateInstructions", &req, func(userID int64, id string) (*model.Draft, error) {
		return h.Drafts.UpdateInstructions(r.Context(), userID, id, req.Instructions)
	})
}

func (h *DraftHandler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags []string `json:"tags"`
	}
	h.updateSection(w, r, "UpdateTags", &req, func(userID int64, id string) (*model.Draft, error) {
		return h.Drafts.UpdateTags(r.Context(), userID, id, req.Tags)
	})
}

func (h *DraftHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag string `json:"tag"`
	}
	h.updateSection(w, r, "AddTag", &req, func(userID int64, id string) (*model.Draft, error) {
		return h.Drafts.AddTag(r.Context(), userID, id, req.Tag)
	})
}

func (h *DraftHandler) UpdateCookingTips(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	h.updateSection(w, r, "UpdateCookingTips", &req, func(userID int64, id string) (*model.Draft, error) {
		return h.Drafts.UpdateCookingTips(r.Context(), userID, id, req.Notes)
	})
}

// updateSection — общий путь для правок одного раздела черновика
func (h *DraftHandler) updateSection(w http.ResponseWriter, r *http.Request, op string, req any, apply func(userID int64, id string) (*model.Draft, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !decodeJSON(w, r, h.Logger, op, req) {
		return
	}
	d, err := apply(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UploadMainImage загружает главное изображение черновика
func (h *DraftHandler) UploadMainImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ups, ok := readUploads(w, r, h.Logger, h.Config.MediaMaxBytes(), 1, "file")
	if !ok {
		return
	}
	url, err := h.Drafts.UploadMainImage(r.Context(), userID, chi.URLParam(r, "id"), ups[0])
	if err != nil {
		writeError(w, h.Logger, "UploadMainImage", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// UploadAdditionalImages загружает до 5 дополнительных изображений
func (h *DraftHandler) UploadAdditionalImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ups, ok := readUploads(w, r, h.Logger, h.Config.MediaMaxBytes(), service.MaxAdditionalImages, "files", "file")
	if !ok {
		return
	}
	urls, err := h.Drafts.UploadAdditionalImages(r.Context(), userID, chi.URLParam(r, "id"), ups)
	if err != nil {
		writeError(w, h.Logger, "UploadAdditionalImages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"urls": urls})
}

// UploadStepMedia загружает медиа для шага инструкции
func (h *DraftHandler) UploadStepMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ups, ok := readUploads(w, r, h.Logger, h.Config.MediaMaxBytes(), 1, "file")
	if !ok {
		return
	}
	url, err := h.Drafts.UploadStepMedia(r.Context(), userID, chi.URLParam(r, "id"), ups[0])
	if err != nil {
		writeError(w, h.Logger, "UploadStepMedia", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Publish публикует черновик
func (h *DraftHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.Publisher.Publish(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "Publish", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
