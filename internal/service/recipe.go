package service

import (
	"Cookbook/internal/model"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/repo"
	"context"

	"go.uber.org/zap"
)

// NutritionEngine — расчёт с принудительным пересчётом и проверкой актуальности.
type NutritionEngine interface {
	NutritionCalculator
	Refresh(ctx context.Context, items []nutrition.Item) (*model.NutritionalInfo, error)
	ShouldRecalculate(r *model.Recipe) bool
}

// RecipeService — чтение и правки опубликованных рецептов.
type RecipeService struct {
	recipes repo.RecipeRepository
	engine  NutritionEngine
	logger  *zap.SugaredLogger
}

func NewRecipeService(recipes repo.RecipeRepository, engine NutritionEngine, logger *zap.SugaredLogger) *RecipeService {
	return &RecipeService{recipes: recipes, engine: engine, logger: logger}
}

func (s *RecipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	r, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// RecalculateNutrition принудительно пересчитывает пищевую ценность рецепта владельца.
// Ошибки внешнего API возвращаются как есть.
func (s *RecipeService) RecalculateNutrition(ctx context.Context, userID int64, id string) (*model.NutritionalInfo, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	r, err := s.recipes.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	info, err := s.engine.Refresh(ctx, nutrition.ItemsOf(r.Ingredients))
	if err != nil {
		s.logger.Warnw("RecalculateNutrition: failed", "recipe_id", id, "error", err)
		return nil, err
	}
	info = withServings(info, r.BasicInfo)
	if err := s.recipes.UpdateNutrition(ctx, userID, id, info); err != nil {
		return nil, notFound(err)
	}
	return info, nil
}

// UpdateIngredients — явная правка ингредиентов владельцем. Пищевая ценность
// пересчитывается, только если изменился отпечаток набора; при ошибке расчёта
// сохраняется null, а не устаревшее значение.
func (s *RecipeService) UpdateIngredients(ctx context.Context, userID int64, id string, ingredients []model.Ingredient) (*model.Recipe, error) {
	if err := ValidateIngredients(ingredients); err != nil {
		return nil, err
	}
	if len(ingredients) == 0 {
		return nil, validationError("at least one ingredient is required")
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	r, err := s.recipes.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}

	r.Ingredients = ingredients
	info := r.NutritionalInfo
	if s.engine.ShouldRecalculate(r) {
		calculated, err := s.engine.Calculate(ctx, nutrition.ItemsOf(ingredients))
		if err != nil {
			s.logger.Warnw("UpdateIngredients: nutrition calculation failed", "recipe_id", id, "error", err)
			info = nil
		} else {
			info = withServings(calculated, r.BasicInfo)
		}
	}

	if err := s.recipes.UpdateIngredients(ctx, userID, id, ingredients, info); err != nil {
		return nil, notFound(err)
	}
	return s.recipes.GetOwned(ctx, userID, id)
}
