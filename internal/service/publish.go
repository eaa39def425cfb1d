package service

import (
	"Cookbook/internal/model"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/repo"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// NutritionCalculator — расчёт пищевой ценности по набору ингредиентов.
type NutritionCalculator interface {
	Calculate(ctx context.Context, items []nutrition.Item) (*model.NutritionalInfo, error)
}

// PublishResult — опубликованный рецепт и адрес, куда перейти клиенту.
type PublishResult struct {
	*model.Recipe
	RedirectURL string `json:"redirectUrl"`
}

// PublishService превращает черновик в опубликованный рецепт.
type PublishService struct {
	drafts    repo.DraftRepository
	recipes   repo.RecipeRepository
	nutrition NutritionCalculator
	media     *MediaService
	logger    *zap.SugaredLogger
	newID     func() string
}

func NewPublishService(
	drafts repo.DraftRepository,
	recipes repo.RecipeRepository,
	calc NutritionCalculator,
	media *MediaService,
	logger *zap.SugaredLogger,
) *PublishService {
	return &PublishService{
		drafts:    drafts,
		recipes:   recipes,
		nutrition: calc,
		media:     media,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Publish публикует черновик.
//
// Расчёт пищевой ценности и перенос медиа выполняются параллельно и до транзакции:
// при любой ошибке на этих шагах черновик остаётся нетронутым. Ошибка расчёта
// не блокирует публикацию (nutritionalInfo = null). Удаление черновика и вставка
// рецепта выполняются одной транзакцией.
func (s *PublishService) Publish(ctx context.Context, userID int64, draftID string) (*PublishResult, error) {
	if !validID(draftID) {
		return nil, ErrNotFound
	}
	d, err := s.drafts.GetByID(ctx, userID, draftID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := validateForPublish(d); err != nil {
		return nil, err
	}
	if err := s.media.CheckOwned(d.ID, d.MediaURLs()); err != nil {
		return nil, err
	}

	var (
		info         *model.NutritionalInfo
		media        model.Media
		instructions []model.Instruction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		calculated, err := s.nutrition.Calculate(gctx, nutrition.ItemsOf(d.Ingredients))
		if err != nil {
			s.logger.Warnw("Publish: nutrition calculation failed, publishing without it",
				"draft_id", d.ID, "error", err)
			return nil
		}
		info = withServings(calculated, d.BasicInfo)
		return nil
	})
	g.Go(func() error {
		promoted, err := s.media.PromoteToPermanent(gctx, d.ID, d.Media)
		if err != nil {
			return err
		}
		steps := make([]model.Instruction, len(d.Instructions))
		for i, st := range d.Instructions {
			urls, err := s.media.PromoteURLs(gctx, d.ID, st.MediaURLs)
			if err != nil {
				return err
			}
			st.MediaURLs = urls
			steps[i] = st
		}
		media, instructions = promoted, steps
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Errorw("Publish: media promotion failed", "draft_id", d.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	rec := &model.Recipe{
		ID:              s.newID(),
		UserID:          userID,
		BasicInfo:       d.BasicInfo,
		Ingredients:     d.Ingredients,
		Instructions:    instructions,
		Media:           media,
		Tags:            nonNil(d.Tags),
		AdditionalInfo:  d.AdditionalInfo,
		NutritionalInfo: info,
	}
	if err := s.recipes.CreateFromDraft(ctx, userID, d.ID, rec); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorw("Publish: transaction rolled back", "draft_id", d.ID, "error", err)
		return nil, fmt.Errorf("%w: %w: %v", ErrPublishFailed, ErrTransactionFailed, err)
	}

	s.logger.Infow("Recipe published", "draft_id", d.ID, "recipe_id", rec.ID, "user_id", userID,
		"nutrition", info != nil)
	return &PublishResult{Recipe: rec, RedirectURL: "/recipes/" + rec.ID}, nil
}

// withServings возвращает копию расчёта; число порций из рецепта важнее выхода из API.
func withServings(info *model.NutritionalInfo, basic model.BasicInfo) *model.NutritionalInfo {
	out := *info
	if basic.Servings != nil && *basic.Servings > 0 {
		out.Servings = *basic.Servings
	}
	return &out
}
