package service

import (
	"Cookbook/internal/model"
	"Cookbook/internal/repo"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Пространства имён хранилища медиа.
const (
	TempPrefix      = "media/temp/"
	DraftPrefix     = "drafts/"
	PermanentPrefix = "recipes/media/"
)

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload — загруженный клиентом файл.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaService управляет жизненным циклом медиа: временная загрузка,
// перенос в постоянное хранилище и удаление осиротевших объектов.
type MediaService struct {
	blobs     repo.BlobRepository
	publicURL string
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// NewMediaService создаёт сервис. publicURL — внешний адрес сервера, ссылки на медиа
// имеют вид {publicURL}/media/{key}.
func NewMediaService(blobs repo.BlobRepository, publicURL string, timeout time.Duration, logger *zap.SugaredLogger) *MediaService {
	return &MediaService{
		blobs:     blobs,
		publicURL: strings.TrimRight(publicURL, "/"),
		timeout:   timeout,
		logger:    logger,
	}
}

// URLFor возвращает публичную ссылку на объект.
func (s *MediaService) URLFor(key string) string {
	return s.publicURL + "/media/" + key
}

// KeyOf извлекает ключ объекта из ссылки. ok=false для чужих ссылок.
func (s *MediaService) KeyOf(url string) (string, bool) {
	prefix := s.publicURL + "/media/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// IsStaged — объект лежит во временном пространстве имён.
func IsStaged(key string) bool {
	return strings.HasPrefix(key, TempPrefix) || strings.HasPrefix(key, DraftPrefix)
}

// OwnedBy — объект может менять только черновик draftID: это его собственные
// объекты drafts/{draftID}/ и анонимные загрузки media/temp/. Постоянные объекты
// и объекты других черновиков не принадлежат никому из черновиков.
func OwnedBy(key, draftID string) bool {
	if strings.HasPrefix(key, TempPrefix) {
		return true
	}
	return draftID != "" && strings.HasPrefix(key, DraftPrefix+draftID+"/")
}

// CheckOwned проверяет, что среди ссылок черновика нет временных объектов чужих черновиков.
func (s *MediaService) CheckOwned(draftID string, urls []string) error {
	for _, u := range urls {
		key, ok := s.KeyOf(u)
		if ok && IsStaged(key) && !OwnedBy(key, draftID) {
			return validationError("media %s does not belong to this draft", u)
		}
	}
	return nil
}

// PermanentKey — постоянный ключ для временного. Зависит только от имени файла,
// поэтому повторный перенос даёт тот же результат.
func PermanentKey(key string) string {
	return PermanentPrefix + path.Base(key)
}

// UploadToStaging сохраняет файл во временное пространство. Если известен черновик —
// под drafts/{id}/media/, иначе под media/temp/.
func (s *MediaService) UploadToStaging(ctx context.Context, up Upload, draftID string) (string, error) {
	if len(up.Data) == 0 {
		return "", validationError("file is empty")
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	want, ok := allowedImageTypes[ext]
	if !ok {
		return "", validationError("file type %q is not allowed", ext)
	}
	detected := http.DetectContentType(up.Data)
	if !strings.HasPrefix(detected, "image/") {
		return "", validationError("file content is not an image (%s)", detected)
	}

	var key string
	if draftID != "" {
		key = DraftPrefix + draftID + "/media/" + uuid.NewString() + ext
	} else {
		key = TempPrefix + uuid.NewString() + ext
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.blobs.Put(ctx, key, want, up.Data); err != nil {
		s.logger.Errorw("UploadToStaging: put failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return s.URLFor(key), nil
}

// Fetch читает объект для отдачи клиенту.
func (s *MediaService) Fetch(ctx context.Context, key string) (*model.Blob, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	b, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, key, err)
	}
	return b, nil
}

// PromoteToPermanent переносит временные изображения черновика draftID в постоянное
// хранилище. Постоянные и внешние ссылки возвращаются без изменений, временные
// объекты чужого черновика дают ErrValidation.
func (s *MediaService) PromoteToPermanent(ctx context.Context, draftID string, m model.Media) (model.Media, error) {
	out := model.Media{AdditionalImages: make([]string, 0, len(m.AdditionalImages))}
	if m.MainImage != nil {
		main, err := s.promote(ctx, draftID, *m.MainImage)
		if err != nil {
			return model.Media{}, err
		}
		out.MainImage = &main
	}
	promoted, err := s.PromoteURLs(ctx, draftID, m.AdditionalImages)
	if err != nil {
		return model.Media{}, err
	}
	out.AdditionalImages = append(out.AdditionalImages, promoted...)
	return out, nil
}

// PromoteURLs — то же для произвольного списка ссылок (медиа шагов).
func (s *MediaService) PromoteURLs(ctx context.Context, draftID string, urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		p, err := s.promote(ctx, draftID, u)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// promote: сначала копия, потом удаление оригинала.
func (s *MediaService) promote(ctx context.Context, draftID, url string) (string, error) {
	key, ok := s.KeyOf(url)
	if !ok || !IsStaged(key) {
		return url, nil
	}
	if !OwnedBy(key, draftID) {
		return "", validationError("media %s does not belong to this draft", url)
	}
	dst := PermanentKey(key)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.blobs.Copy(ctx, key, dst); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: copy %s: %v", ErrStorageUnavailable, key, err)
		}
		// оригинала нет: перенос уже был сделан прошлой попыткой
		exists, exErr := s.blobs.Exists(ctx, dst)
		if exErr != nil {
			return "", fmt.Errorf("%w: stat %s: %v", ErrStorageUnavailable, dst, exErr)
		}
		if !exists {
			return "", fmt.Errorf("%w: staged media %s is missing", ErrStorageUnavailable, key)
		}
		return s.URLFor(dst), nil
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		// копия уже есть, оригинал подберёт очистка временного хранилища
		s.logger.Warnw("promote: delete staged blob failed", "key", key, "error", err)
	}
	return s.URLFor(dst), nil
}

// DeleteAll удаляет временные объекты черновика draftID по ссылкам. Постоянные
// объекты и объекты чужих черновиков пропускаются. Ошибки логируются и не возвращаются.
func (s *MediaService) DeleteAll(ctx context.Context, draftID string, urls []string) {
	for _, u := range urls {
		key, ok := s.KeyOf(u)
		if !ok {
			continue
		}
		if !OwnedBy(key, draftID) {
			s.logger.Debugw("DeleteAll: skip foreign media", "draft_id", draftID, "key", key)
			continue
		}
		dctx, cancel := s.withTimeout(ctx)
		if err := s.blobs.Delete(dctx, key); err != nil {
			s.logger.Warnw("DeleteAll: delete failed", "key", key, "error", err)
		}
		cancel()
	}
}

// SweepTemp удаляет временные объекты старше maxAge: всё из media/temp/ и объекты
// drafts/{id}/ тех черновиков, которых больше нет. Возвращает число удалённых объектов.
func (s *MediaService) SweepTemp(ctx context.Context, maxAge time.Duration, draftExists func(ctx context.Context, id string) (bool, error)) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	deleted := 0

	temp, err := s.blobs.List(ctx, TempPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: list %s: %v", ErrStorageUnavailable, TempPrefix, err)
	}
	for _, b := range temp {
		if b.CreatedAt.Before(cutoff) && s.sweepOne(ctx, b.Key) {
			deleted++
		}
	}

	staged, err := s.blobs.List(ctx, DraftPrefix)
	if err != nil {
		return deleted, fmt.Errorf("%w: list %s: %v", ErrStorageUnavailable, DraftPrefix, err)
	}
	alive := map[string]bool{}
	for _, b := range staged {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		id := draftIDOfKey(b.Key)
		exists, seen := alive[id]
		if !seen {
			exists, err = draftExists(ctx, id)
			if err != nil {
				s.logger.Warnw("SweepTemp: draft lookup failed", "draft_id", id, "error", err)
				continue
			}
			alive[id] = exists
		}
		if !exists && s.sweepOne(ctx, b.Key) {
			deleted++
		}
	}
	return deleted, nil
}

func (s *MediaService) sweepOne(ctx context.Context, key string) bool {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warnw("SweepTemp: delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// draftIDOfKey: drafts/{id}/media/x.jpg -> {id}
func draftIDOfKey(key string) string {
	rest := strings.TrimPrefix(key, DraftPrefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

func (s *MediaService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
