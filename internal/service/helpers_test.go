package service

import (
	"Cookbook/internal/model"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/repo"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPublicURL = "http://cdn.test"

// минимальный PNG: DetectContentType узнаёт его по сигнатуре
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// stubProvider — внешний API расчёта, отвечает заранее заданным результатом
type stubProvider struct {
	analysis *nutrition.Analysis
	err      error
	calls    atomic.Int32
}

func (p *stubProvider) Analyze(_ context.Context, _ []string) (*nutrition.Analysis, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.analysis, nil
}

func riceProvider() *stubProvider {
	return &stubProvider{analysis: &nutrition.Analysis{
		Yield:     2,
		Nutrients: map[string]float64{"ENERC_KCAL": 1368.2, "PROCNT": 26.6, "CHOCDF": 296.1},
	}}
}

// mockBlobRepo — мок хранилища для проверки, какие мутации выполнялись
type mockBlobRepo struct{ mock.Mock }

func (m *mockBlobRepo) Put(ctx context.Context, key, contentType string, data []byte) error {
	return m.Called(ctx, key, contentType, data).Error(0)
}
func (m *mockBlobRepo) Get(ctx context.Context, key string) (*model.Blob, error) {
	args := m.Called(ctx, key)
	if v, ok := args.Get(0).(*model.Blob); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBlobRepo) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
func (m *mockBlobRepo) Copy(ctx context.Context, src, dst string) (bool, error) {
	args := m.Called(ctx, src, dst)
	return args.Bool(0), args.Error(1)
}
func (m *mockBlobRepo) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
func (m *mockBlobRepo) List(ctx context.Context, prefix string) ([]model.BlobInfo, error) {
	args := m.Called(ctx, prefix)
	if v, ok := args.Get(0).([]model.BlobInfo); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.BlobRepository = (*mockBlobRepo)(nil)

type testEnv struct {
	db       *gorm.DB
	drafts   repo.DraftRepository
	recipes  repo.RecipeRepository
	blobs    repo.BlobRepository
	provider *stubProvider
	engine   *nutrition.Engine
	media    *MediaService
	draftSvc *DraftService
	publish  *PublishService
	recipe   *RecipeService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.OpenSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop().Sugar()
	db := newTestDB(t)

	env := &testEnv{
		db:       db,
		drafts:   repo.NewDraftRepository(db),
		recipes:  repo.NewRecipeRepository(db),
		blobs:    repo.NewBlobRepository(db),
		provider: riceProvider(),
	}
	env.engine = nutrition.NewEngine(env.provider, nil, logger)
	env.media = NewMediaService(env.blobs, testPublicURL, time.Second, logger)
	env.draftSvc = NewDraftService(env.drafts, env.media, logger)
	env.publish = NewPublishService(env.drafts, env.recipes, env.engine, env.media, logger)
	env.recipe = NewRecipeService(env.recipes, env.engine, logger)
	return env
}

// stage кладёт PNG во временное хранилище черновика и возвращает ссылку
func (e *testEnv) stage(t *testing.T, draftID string) string {
	t.Helper()
	url, err := e.media.UploadToStaging(context.Background(), Upload{Filename: "p.png", Data: pngBytes}, draftID)
	require.NoError(t, err)
	return url
}

func ptrInt(v int) *int       { return &v }
func ptrStr(s string) *string { return &s }

func riceInput(title string) SaveDraftInput {
	return SaveDraftInput{
		BasicInfo:    model.BasicInfo{Title: title, Servings: ptrInt(3)},
		Ingredients:  []model.Ingredient{{Quantity: 2, Unit: "cup", Name: "rice"}},
		Instructions: []model.Instruction{{StepNumber: 1, Instruction: "Boil rice", MediaURLs: []string{}}},
		Tags:         []string{"easy"},
	}
}
