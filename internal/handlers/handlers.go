package handlers

import (
	"Cookbook/internal/config"
	"Cookbook/internal/middleware"
	"Cookbook/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Services — сервисы, которые обслуживает HTTP-слой.
type Services struct {
	Drafts  *service.DraftService
	Publish *service.PublishService
	Recipes *service.RecipeService
	Media   *service.MediaService
}

// NewHandler разводящий для хендлеров
func NewHandler(svc Services, logger *zap.SugaredLogger, cfg *config.Config) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithAuth(cfg.AuthSecret))

	draftHandler := NewDraftHandler(svc.Drafts, svc.Publish, logger, cfg)
	recipeHandler := NewRecipeHandler(svc.Recipes, logger)
	mediaHandler := NewMediaHandler(svc.Media, logger, cfg)

	// Drafts
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", draftHandler.Save)
		r.Get("/", draftHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", draftHandler.Get)
			r.Delete("/", draftHandler.Delete)
			r.Put("/ingredients", draftHandler.UpdateIngredients)
			r.Put("/instructions", draftHandler.UpdateInstructions)
			r.Put("/tags", draftHandler.UpdateTags)
			r.Post("/tags", draftHandler.AddTag)
			r.Put("/cooking-tips", draftHandler.UpdateCookingTips)
			r.Post("/media/main", draftHandler.UploadMainImage)
			r.Post("/media/additional", draftHandler.UploadAdditionalImages)
			r.Post("/media/steps", draftHandler.UploadStepMedia)
			r.Post("/publish", draftHandler.Publish)
		})
	})

	// Recipes
	r.Get("/recipes/{id}", recipeHandler.Get)
	r.Post("/recipes/{id}/nutrition/recalculate", recipeHandler.RecalculateNutrition)
	r.Put("/recipes/{id}/ingredients", recipeHandler.UpdateIngredients)

	// Media
	r.Post("/media/upload", mediaHandler.Upload)
	r.Get("/media/*", mediaHandler.Serve)

	return &Handler{Router: r}
}
