package repo

import (
	"Cookbook/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// RecipeRepository определяет контракт доступа к опубликованным рецептам.
type RecipeRepository interface {
	// CreateFromDraft в одной транзакции удаляет черновик владельца и вставляет рецепт.
	// Либо выполняются оба шага, либо ни одного.
	CreateFromDraft(ctx context.Context, userID int64, draftID string, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	GetOwned(ctx context.Context, userID int64, id string) (*model.Recipe, error)
	UpdateNutrition(ctx context.Context, userID int64, id string, info *model.NutritionalInfo) error
	UpdateIngredients(ctx context.Context, userID int64, id string, ingredients []model.Ingredient, info *model.NutritionalInfo) error
}

type recipeRepo struct {
	db *gorm.DB
}

// NewRecipeRepository создаёт реализацию репозитория для Recipe.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepo{db: db}
}

func (r *recipeRepo) CreateFromDraft(ctx context.Context, userID int64, draftID string, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", draftID, userID).Delete(&model.Draft{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(recipe).Error
	})
}

func (r *recipeRepo) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var rec model.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recipeRepo) GetOwned(ctx context.Context, userID int64, id string) (*model.Recipe, error) {
	var rec model.Recipe
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recipeRepo) UpdateNutrition(ctx context.Context, userID int64, id string, info *model.NutritionalInfo) error {
	return r.update(ctx, userID, id, &model.Recipe{NutritionalInfo: info}, "nutritional_info")
}

func (r *recipeRepo) UpdateIngredients(ctx context.Context, userID int64, id string, ingredients []model.Ingredient, info *model.NutritionalInfo) error {
	return r.update(ctx, userID, id, &model.Recipe{Ingredients: ingredients, NutritionalInfo: info}, "ingredients", "nutritional_info")
}

func (r *recipeRepo) update(ctx context.Context, userID int64, id string, patch *model.Recipe, columns ...string) error {
	patch.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ? AND user_id = ?", id, userID).
		Select(append(columns, "updated_at")).
		Updates(patch)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
