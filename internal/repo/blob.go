package repo

import (
	"Cookbook/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobRepository — хранилище медиа-объектов (put/get/copy/delete/list).
type BlobRepository interface {
	// Put создаёт или перезаписывает объект по ключу.
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (*model.Blob, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Copy копирует объект src в dst. Если dst уже существует — ничего не делает.
	// Возвращает created=true если копия была создана в этой операции.
	Copy(ctx context.Context, src, dst string) (created bool, err error)
	// Delete удаляет объект; отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]model.BlobInfo, error)
}

type blobRepo struct {
	db *gorm.DB
}

// NewBlobRepository создаёт реализацию репозитория для Blob.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

func (r *blobRepo) Put(ctx context.Context, key, contentType string, data []byte) error {
	b := &model.Blob{Key: key, ContentType: contentType, Size: int64(len(data)), Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "size", "data"}),
	}).Create(b).Error
}

func (r *blobRepo) Get(ctx context.Context, key string) (*model.Blob, error) {
	var b model.Blob
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *blobRepo) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Blob{}).Where("key = ?", key).Count(&n).Error
	return n > 0, err
}

// Copy создаёт dst из содержимого src, если dst ещё нет.
func (r *blobRepo) Copy(ctx context.Context, src, dst string) (bool, error) {
	srcBlob, err := r.Get(ctx, src)
	if err != nil {
		return false, err
	}
	b := &model.Blob{Key: dst, ContentType: srcBlob.ContentType, Size: srcBlob.Size, Data: srcBlob.Data}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(b)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *blobRepo) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.Blob{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (r *blobRepo) List(ctx context.Context, prefix string) ([]model.BlobInfo, error) {
	var infos []model.BlobInfo
	err := r.db.WithContext(ctx).
		Model(&model.Blob{}).
		Select("key", "size", "created_at").
		Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("created_at ASC").
		Scan(&infos).Error
	return infos, err
}

// escapeLike экранирует спецсимволы LIKE в префиксе ключа.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
