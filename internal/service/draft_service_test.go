package service

import (
	"Cookbook/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDraftService_Save_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := SaveDraftInput{
		BasicInfo: model.BasicInfo{Title: "Pasta", CuisineType: "italian", PrepTime: ptrInt(10)},
		Ingredients: []model.Ingredient{
			{Quantity: 200, Unit: "g", Name: "spaghetti", GroupName: "pasta"},
			{Quantity: 0.5, Unit: "tsp", Name: "chili", Notes: "to taste", IsOptional: true},
		},
		Instructions: []model.Instruction{
			{StepNumber: 1, Instruction: "Boil water", Timing: ptrInt(10), MediaURLs: []string{"http://other/a.jpg"}},
			{StepNumber: 2, Instruction: "Cook pasta", MediaURLs: []string{}},
		},
		Media: model.Media{MainImage: ptrStr("http://other/main.jpg"), AdditionalImages: []string{"http://other/b.jpg"}},
		Tags:  []string{"quick", "Italian", "low-fat"},
		Notes: "Use plenty of salt\n\nSave some pasta water",
	}

	saved, err := env.draftSvc.Save(ctx, 1, in)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := env.draftSvc.Get(ctx, 1, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Ingredients, got.Ingredients)
	assert.Equal(t, in.Instructions, got.Instructions)
	assert.Equal(t, in.Media, got.Media)
	assert.Equal(t, in.Tags, got.Tags)
	assert.Equal(t, []string{"Use plenty of salt", "Save some pasta water"}, got.AdditionalInfo.CookingTips)
	assert.Equal(t, "italian", got.BasicInfo.CuisineType)
}

func TestDraftService_Save_DuplicateTitleConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.draftSvc.Save(ctx, 1, riceInput("Pasta"))
	require.NoError(t, err)

	// тот же заголовок без override — конфликт
	_, err = env.draftSvc.Save(ctx, 1, riceInput("Pasta"))
	assert.ErrorIs(t, err, ErrConflict)

	// регистр важен — это другой черновик
	other, err := env.draftSvc.Save(ctx, 1, riceInput("pasta"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	// у другого пользователя конфликта нет
	_, err = env.draftSvc.Save(ctx, 2, riceInput("Pasta"))
	assert.NoError(t, err)

	// override — обновление на месте, id тот же
	in := riceInput("Pasta")
	in.Override = true
	in.BasicInfo.Description = "overridden"
	updated, err := env.draftSvc.Save(ctx, 1, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "overridden", updated.BasicInfo.Description)
	assert.WithinDuration(t, first.CreatedAt, updated.CreatedAt, time.Second)

	all, err := env.draftSvc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDraftService_Save_ByIDAndRename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)

	// повторное сохранение того же черновика по id — без конфликта
	in := riceInput("Rice")
	in.ID = first.ID
	in.CurrentStep = 3
	again, err := env.draftSvc.Save(ctx, 1, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 3, again.CurrentStep)

	// смена заголовка по id — тот же черновик
	in.BasicInfo.Title = "Fried rice"
	renamed, err := env.draftSvc.Save(ctx, 1, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "Fried rice", renamed.BasicInfo.Title)

	// чужой id не используется: создаётся новый черновик
	foreign := riceInput("Soup")
	foreign.ID = first.ID
	created, err := env.draftSvc.Save(ctx, 2, foreign)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, created.ID)
}

func TestDraftService_Save_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := riceInput("Rice")
	in.Tags = []string{"Spicy!"}
	_, err := env.draftSvc.Save(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = riceInput("Rice")
	in.Instructions = []model.Instruction{{StepNumber: 2}}
	_, err = env.draftSvc.Save(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation)

	all, err := env.draftSvc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDraftService_Ownership_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)

	_, err = env.draftSvc.Get(ctx, 2, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.draftSvc.UpdateTags(ctx, 2, d.ID, []string{"x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.draftSvc.UpdateIngredients(ctx, 2, d.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.draftSvc.UpdateCookingTips(ctx, 2, d.ID, "tip")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.draftSvc.UpdateMainImage(ctx, 2, d.ID, "http://x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.draftSvc.Delete(ctx, 2, d.ID), ErrNotFound)

	// черновик на месте
	_, err = env.draftSvc.Get(ctx, 1, d.ID)
	assert.NoError(t, err)
}

func TestDraftService_SectionUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)

	ing := []model.Ingredient{{Quantity: 1, Unit: "cup", Name: "rice"}, {Quantity: 2, Unit: "cup", Name: "water"}}
	got, err := env.draftSvc.UpdateIngredients(ctx, 1, d.ID, ing)
	require.NoError(t, err)
	assert.Equal(t, ing, got.Ingredients)
	assert.Equal(t, []string{"easy"}, got.Tags)
	assert.False(t, got.UpdatedAt.Before(d.UpdatedAt))

	steps := []model.Instruction{{StepNumber: 1, Instruction: "Rinse"}, {StepNumber: 2, Instruction: "Boil"}}
	got, err = env.draftSvc.UpdateInstructions(ctx, 1, d.ID, steps)
	require.NoError(t, err)
	require.Len(t, got.Instructions, 2)
	assert.Equal(t, []string{}, got.Instructions[0].MediaURLs)

	got, err = env.draftSvc.UpdateCookingTips(ctx, 1, d.ID, "a\n\nb")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.AdditionalInfo.CookingTips)

	_, err = env.draftSvc.UpdateInstructions(ctx, 1, d.ID, []model.Instruction{{StepNumber: 1}, {StepNumber: 1}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDraftService_AddTag_Rules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := riceInput("Rice")
	in.Tags = nil
	d, err := env.draftSvc.Save(ctx, 1, in)
	require.NoError(t, err)

	_, err = env.draftSvc.AddTag(ctx, 1, d.ID, "spicy")
	require.NoError(t, err)
	_, err = env.draftSvc.AddTag(ctx, 1, d.ID, "spicy")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.draftSvc.AddTag(ctx, 1, d.ID, "Spicy!")
	assert.ErrorIs(t, err, ErrValidation)

	for _, tag := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		_, err = env.draftSvc.AddTag(ctx, 1, d.ID, tag)
		require.NoError(t, err)
	}
	// одиннадцатый
	_, err = env.draftSvc.AddTag(ctx, 1, d.ID, "k")
	assert.ErrorIs(t, err, ErrValidation)

	got, err := env.draftSvc.Get(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 10)
	assert.Equal(t, "spicy", got.Tags[0])
}

func TestDraftService_Delete_CleansMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)

	main := env.stage(t, d.ID)
	extra := env.stage(t, d.ID)
	step := env.stage(t, d.ID)
	_, err = env.draftSvc.UpdateMainImage(ctx, 1, d.ID, main)
	require.NoError(t, err)
	_, err = env.draftSvc.AppendAdditionalImages(ctx, 1, d.ID, []string{extra})
	require.NoError(t, err)
	_, err = env.draftSvc.UpdateInstructions(ctx, 1, d.ID, []model.Instruction{{StepNumber: 1, Instruction: "Boil", MediaURLs: []string{step}}})
	require.NoError(t, err)

	require.NoError(t, env.draftSvc.Delete(ctx, 1, d.ID))

	for _, u := range []string{main, extra, step} {
		key, ok := env.media.KeyOf(u)
		require.True(t, ok)
		exists, err := env.blobs.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}
	_, err = env.draftSvc.Get(ctx, 1, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftService_Delete_BlobFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	br := new(mockBlobRepo)
	br.On("Delete", mock.Anything, mock.Anything).Return(errors.New("storage down"))
	media := NewMediaService(br, testPublicURL, time.Second, zap.NewNop().Sugar())
	svc := NewDraftService(env.drafts, media, zap.NewNop().Sugar())

	in := riceInput("Rice")
	in.Media.MainImage = ptrStr(testPublicURL + "/media/media/temp/1.png")
	d, err := svc.Save(ctx, 1, in)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, d.ID))
	br.AssertCalled(t, "Delete", mock.Anything, "media/temp/1.png")

	_, err = svc.Get(ctx, 1, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftService_Delete_KeepsForeignMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// у пользователя 1 опубликованный рецепт с картинкой и черновик с загруженной картинкой
	published, err := env.publish.Publish(ctx, 1, publishableDraft(t, env, 1).ID)
	require.NoError(t, err)
	require.NotNil(t, published.Media.MainImage)
	other, err := env.draftSvc.Save(ctx, 1, riceInput("Soup"))
	require.NoError(t, err)
	otherStaged := env.stage(t, other.ID)

	// пользователь 2 вставляет чужие ссылки в свой черновик и удаляет его
	in := riceInput("Copycat")
	in.Media.MainImage = published.Media.MainImage
	in.Media.AdditionalImages = []string{otherStaged}
	d, err := env.draftSvc.Save(ctx, 2, in)
	require.NoError(t, err)
	own := env.stage(t, d.ID)
	_, err = env.draftSvc.UpdateInstructions(ctx, 2, d.ID, []model.Instruction{{StepNumber: 1, Instruction: "Boil", MediaURLs: []string{own}}})
	require.NoError(t, err)

	require.NoError(t, env.draftSvc.Delete(ctx, 2, d.ID))

	for u, keep := range map[string]bool{*published.Media.MainImage: true, otherStaged: true, own: false} {
		key, _ := env.media.KeyOf(u)
		exists, err := env.blobs.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, keep, exists, key)
	}
}

func TestDraftService_UpdateMainImage_KeepsForeignMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	victim, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)
	victimStaged := env.stage(t, victim.ID)

	in := riceInput("Copycat")
	in.Media.MainImage = &victimStaged
	d, err := env.draftSvc.Save(ctx, 2, in)
	require.NoError(t, err)

	// замена главного изображения не трогает объект чужого черновика
	_, err = env.draftSvc.UploadMainImage(ctx, 2, d.ID, Upload{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)

	key, _ := env.media.KeyOf(victimStaged)
	exists, err := env.blobs.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDraftService_UploadImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.draftSvc.Save(ctx, 1, riceInput("Rice"))
	require.NoError(t, err)

	first, err := env.draftSvc.UploadMainImage(ctx, 1, d.ID, Upload{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Contains(t, first, testPublicURL+"/media/drafts/"+d.ID+"/media/")

	// замена главного изображения удаляет прежний временный объект
	second, err := env.draftSvc.UploadMainImage(ctx, 1, d.ID, Upload{Filename: "b.png", Data: pngBytes})
	require.NoError(t, err)
	oldKey, _ := env.media.KeyOf(first)
	exists, err := env.blobs.Exists(ctx, oldKey)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := env.draftSvc.Get(ctx, 1, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Media.MainImage)
	assert.Equal(t, second, *got.Media.MainImage)

	ups := make([]Upload, 0, 5)
	for i := 0; i < 5; i++ {
		ups = append(ups, Upload{Filename: "x.png", Data: pngBytes})
	}
	urls, err := env.draftSvc.UploadAdditionalImages(ctx, 1, d.ID, ups[:3])
	require.NoError(t, err)
	assert.Len(t, urls, 3)

	// 3 + 3 > 5
	_, err = env.draftSvc.UploadAdditionalImages(ctx, 1, d.ID, ups[:3])
	assert.ErrorIs(t, err, ErrValidation)

	stepURL, err := env.draftSvc.UploadStepMedia(ctx, 1, d.ID, Upload{Filename: "s.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Contains(t, stepURL, "/media/drafts/"+d.ID+"/")

	_, err = env.draftSvc.UploadMainImage(ctx, 2, d.ID, Upload{Filename: "a.png", Data: pngBytes})
	assert.ErrorIs(t, err, ErrNotFound)
}
