package service

import (
	"Cookbook/internal/model"
	"Cookbook/internal/repo"
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DraftService инкапсулирует бизнес-логику черновиков рецептов.
type DraftService struct {
	drafts repo.DraftRepository
	media  *MediaService
	logger *zap.SugaredLogger
}

func NewDraftService(drafts repo.DraftRepository, media *MediaService, logger *zap.SugaredLogger) *DraftService {
	return &DraftService{drafts: drafts, media: media, logger: logger}
}

// SaveDraftInput — полное состояние формы мастера.
type SaveDraftInput struct {
	ID                   string
	BasicInfo            model.BasicInfo
	Ingredients          []model.Ingredient
	Instructions         []model.Instruction
	Media                model.Media
	Tags                 []string
	Notes                string
	CompletionPercentage int
	CurrentStep          int
	// Override — перезаписать существующий черновик с тем же заголовком.
	Override bool
}

// Save сохраняет черновик целиком.
//
// Черновик с тем же заголовком у того же пользователя считается тем же черновиком:
// если это и есть in.ID или задан Override — он обновляется на месте, иначе ErrConflict.
// Без совпадения по заголовку обновляется черновик in.ID (если он есть у пользователя),
// иначе создаётся новый.
func (s *DraftService) Save(ctx context.Context, userID int64, in SaveDraftInput) (*model.Draft, error) {
	if err := validateDraftInput(in); err != nil {
		return nil, err
	}
	d := draftFromInput(userID, in)

	if title := in.BasicInfo.Title; title != "" {
		existing, err := s.drafts.FindByTitle(ctx, userID, title)
		switch {
		case err == nil:
			if existing.ID != in.ID && !in.Override {
				return nil, ErrConflict
			}
			return s.overwrite(ctx, existing, d)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	if validID(in.ID) {
		existing, err := s.drafts.GetByID(ctx, userID, in.ID)
		if err == nil {
			return s.overwrite(ctx, existing, d)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	d.ID = uuid.NewString()
	if err := s.drafts.Create(ctx, d); err != nil {
		s.logger.Errorw("Save: create draft failed", "user_id", userID, "error", err)
		return nil, err
	}
	return d, nil
}

func (s *DraftService) overwrite(ctx context.Context, existing, d *model.Draft) (*model.Draft, error) {
	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, notFound(err)
	}
	return s.Get(ctx, d.UserID, d.ID)
}

// List возвращает черновики пользователя, свежие первыми.
func (s *DraftService) List(ctx context.Context, userID int64) ([]model.Draft, error) {
	drafts, err := s.drafts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = []model.Draft{}
	}
	return drafts, nil
}

func (s *DraftService) Get(ctx context.Context, userID int64, id string) (*model.Draft, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	d, err := s.drafts.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// Delete удаляет черновик вместе с его медиа. Ошибки удаления медиа не мешают удалению записи.
func (s *DraftService) Delete(ctx context.Context, userID int64, id string) error {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	s.media.DeleteAll(ctx, d.ID, d.MediaURLs())
	return notFound(s.drafts.Delete(ctx, userID, id))
}

func (s *DraftService) UpdateIngredients(ctx context.Context, userID int64, id string, ingredients []model.Ingredient) (*model.Draft, error) {
	if err := ValidateIngredients(ingredients); err != nil {
		return nil, err
	}
	return s.updateSection(ctx, userID, id, repo.ColumnIngredients, &model.Draft{Ingredients: nonNil(ingredients)})
}

func (s *DraftService) UpdateInstructions(ctx context.Context, userID int64, id string, steps []model.Instruction) (*model.Draft, error) {
	if err := ValidateInstructions(steps); err != nil {
		return nil, err
	}
	return s.updateSection(ctx, userID, id, repo.ColumnInstructions, &model.Draft{Instructions: normalizeSteps(steps)})
}

func (s *DraftService) UpdateTags(ctx context.Context, userID int64, id string, tags []string) (*model.Draft, error) {
	if err := ValidateTags(tags); err != nil {
		return nil, err
	}
	return s.updateSection(ctx, userID, id, repo.ColumnTags, &model.Draft{Tags: nonNil(tags)})
}

// AddTag добавляет один тег к уже сохранённым.
func (s *DraftService) AddTag(ctx context.Context, userID int64, id, tag string) (*model.Draft, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tags := append(append([]string{}, d.Tags...), tag)
	return s.UpdateTags(ctx, userID, id, tags)
}

// UpdateCookingTips разбивает заметки на советы по строкам.
func (s *DraftService) UpdateCookingTips(ctx context.Context, userID int64, id, notes string) (*model.Draft, error) {
	info := model.AdditionalInfo{CookingTips: SplitCookingTips(notes)}
	return s.updateSection(ctx, userID, id, repo.ColumnAdditionalInfo, &model.Draft{AdditionalInfo: info})
}

// UpdateMainImage заменяет главное изображение. Прежнее временное изображение удаляется.
func (s *DraftService) UpdateMainImage(ctx context.Context, userID int64, id, url string) (*model.Draft, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	old := d.Media.MainImage
	m := d.Media
	m.MainImage = &url
	m.AdditionalImages = nonNil(m.AdditionalImages)

	updated, err := s.updateSection(ctx, userID, id, repo.ColumnMedia, &model.Draft{Media: m})
	if err != nil {
		return nil, err
	}
	if old != nil && *old != url {
		s.media.DeleteAll(ctx, id, []string{*old})
	}
	return updated, nil
}

// AppendAdditionalImages добавляет ссылки к дополнительным изображениям (всего не больше 5).
func (s *DraftService) AppendAdditionalImages(ctx context.Context, userID int64, id string, urls []string) (*model.Draft, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m := d.Media
	m.AdditionalImages = append(append([]string{}, m.AdditionalImages...), urls...)
	if err := ValidateMedia(m); err != nil {
		return nil, err
	}
	return s.updateSection(ctx, userID, id, repo.ColumnMedia, &model.Draft{Media: m})
}

// UploadMainImage загружает главное изображение во временное хранилище черновика.
func (s *DraftService) UploadMainImage(ctx context.Context, userID int64, id string, up Upload) (string, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return "", err
	}
	url, err := s.media.UploadToStaging(ctx, up, id)
	if err != nil {
		return "", err
	}
	if _, err := s.UpdateMainImage(ctx, userID, id, url); err != nil {
		s.media.DeleteAll(ctx, id, []string{url})
		return "", err
	}
	return url, nil
}

// UploadAdditionalImages загружает дополнительные изображения, лимит проверяется до загрузки.
func (s *DraftService) UploadAdditionalImages(ctx context.Context, userID int64, id string, uploads []Upload) ([]string, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(d.Media.AdditionalImages)+len(uploads) > MaxAdditionalImages {
		return nil, validationError("at most %d additional images allowed", MaxAdditionalImages)
	}

	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		url, err := s.media.UploadToStaging(ctx, up, id)
		if err != nil {
			s.media.DeleteAll(ctx, id, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	if _, err := s.AppendAdditionalImages(ctx, userID, id, urls); err != nil {
		s.media.DeleteAll(ctx, id, urls)
		return nil, err
	}
	return urls, nil
}

// UploadStepMedia загружает медиа шага. Ссылку клиент сам кладёт в инструкции.
func (s *DraftService) UploadStepMedia(ctx context.Context, userID int64, id string, up Upload) (string, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return "", err
	}
	return s.media.UploadToStaging(ctx, up, id)
}

func (s *DraftService) updateSection(ctx context.Context, userID int64, id, column string, patch *model.Draft) (*model.Draft, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if err := s.drafts.UpdateSection(ctx, userID, id, column, patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorw("update draft section failed", "draft_id", id, "column", column, "error", err)
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func validateDraftInput(in SaveDraftInput) error {
	if err := ValidateIngredients(in.Ingredients); err != nil {
		return err
	}
	if err := ValidateInstructions(in.Instructions); err != nil {
		return err
	}
	if err := ValidateTags(in.Tags); err != nil {
		return err
	}
	return ValidateMedia(in.Media)
}

func draftFromInput(userID int64, in SaveDraftInput) *model.Draft {
	media := in.Media
	media.AdditionalImages = nonNil(media.AdditionalImages)
	return &model.Draft{
		UserID:               userID,
		BasicInfo:            in.BasicInfo,
		Ingredients:          nonNil(in.Ingredients),
		Instructions:         normalizeSteps(in.Instructions),
		Media:                media,
		Tags:                 nonNil(in.Tags),
		AdditionalInfo:       model.AdditionalInfo{CookingTips: SplitCookingTips(in.Notes)},
		CompletionPercentage: in.CompletionPercentage,
		CurrentStep:          in.CurrentStep,
	}
}

// normalizeSteps гарантирует непустой mediaUrls у каждого шага (в JSON — [] вместо null).
func normalizeSteps(steps []model.Instruction) []model.Instruction {
	out := make([]model.Instruction, len(steps))
	for i, st := range steps {
		st.MediaURLs = nonNil(st.MediaURLs)
		out[i] = st
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
