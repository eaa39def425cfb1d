package handlers

import (
	"Cookbook/internal/model"
	"Cookbook/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecipeHandler — опубликованные рецепты.
type RecipeHandler struct {
	Recipes *service.RecipeService
	Logger  *zap.SugaredLogger
}

func NewRecipeHandler(recipes *service.RecipeService, logger *zap.SugaredLogger) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes, Logger: logger}
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	rec, err := h.Recipes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetRecipe", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RecalculateNutrition принудительно пересчитывает пищевую ценность
func (h *RecipeHandler) RecalculateNutrition(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	info, err := h.Recipes.RecalculateNutrition(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "RecalculateNutrition", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *RecipeHandler) UpdateIngredients(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Ingredients []model.Ingredient `json:"ingredients"`
	}
	if !decodeJSON(w, r, h.Logger, "UpdateRecipeIngredients", &req) {
		return
	}
	rec, err := h.Recipes.UpdateIngredients(r.Context(), userID, chi.URLParam(r, "id"), req.Ingredients)
	if err != nil {
		writeError(w, h.Logger, "UpdateRecipeIngredients", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
