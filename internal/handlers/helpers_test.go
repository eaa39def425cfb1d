package handlers_test

import (
	"Cookbook/internal/config"
	"Cookbook/internal/handlers"
	"Cookbook/internal/middleware"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/repo"
	"Cookbook/internal/service"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// nutritionStub — внешний API пищевой ценности; status != 200 имитирует сбой
type nutritionStub struct {
	srv    *httptest.Server
	status atomic.Int32
	calls  atomic.Int32
}

func newNutritionStub(t *testing.T) *nutritionStub {
	t.Helper()
	s := &nutritionStub{}
	s.status.Store(http.StatusOK)
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if code := int(s.status.Load()); code != http.StatusOK {
			http.Error(w, "stub failure", code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"yield":2,"calories":1368,"totalNutrients":{"ENERC_KCAL":{"label":"Energy","quantity":1368.2,"unit":"kcal"},"PROCNT":{"label":"Protein","quantity":26.6,"unit":"g"}}}`)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

type testServer struct {
	router    http.Handler
	cfg       *config.Config
	db        *gorm.DB
	nutrition *nutritionStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.OpenSQLite(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AuthSecret:     testSecret,
		PublicURL:      "http://cdn.test",
		MediaMaxSizeMB: 1,
		CORSOrigins:    []string{"http://localhost:3000"},
	}
	logger := zap.NewNop().Sugar()
	stub := newNutritionStub(t)

	drafts := repo.NewDraftRepository(db)
	recipes := repo.NewRecipeRepository(db)
	media := service.NewMediaService(repo.NewBlobRepository(db), cfg.PublicURL, time.Second, logger)
	engine := nutrition.NewEngine(nutrition.NewEdamamClient(stub.srv.URL, "id", "key", time.Second, 0), nil, logger)

	h := handlers.NewHandler(handlers.Services{
		Drafts:  service.NewDraftService(drafts, media, logger),
		Publish: service.NewPublishService(drafts, recipes, engine, media, logger),
		Recipes: service.NewRecipeService(recipes, engine, logger),
		Media:   media,
	}, logger, cfg)
	return &testServer{router: h.Router, cfg: cfg, db: db, nutrition: stub}
}

func addAuth(t *testing.T, req *http.Request, userID int64) {
	t.Helper()
	token, err := middleware.BuildToken(userID, testSecret)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

// do выполняет запрос от имени userID (0 — без авторизации)
func (s *testServer) do(t *testing.T, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		addAuth(t, req, userID)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// upload отправляет multipart-форму с файлами в поле field
func (s *testServer) upload(t *testing.T, userID int64, path, field string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, _ = fw.Write(data)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if userID != 0 {
		addAuth(t, req, userID)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func riceDraft(title string) map[string]any {
	return map[string]any{
		"basicInfo":    map[string]any{"title": title, "servings": 2},
		"ingredients":  []map[string]any{{"quantity": 2, "unit": "cup", "name": "rice"}},
		"instructions": []map[string]any{{"stepNumber": 1, "instruction": "Boil rice", "mediaUrls": []string{}}},
		"tags":         []string{"easy"},
	}
}
