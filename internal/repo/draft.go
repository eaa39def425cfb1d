package repo

import (
	"Cookbook/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// Колонки черновика, которые обновляются посекционно.
const (
	ColumnIngredients    = "ingredients"
	ColumnInstructions   = "instructions"
	ColumnMedia          = "media"
	ColumnTags           = "tags"
	ColumnAdditionalInfo = "additional_info"
)

// DraftRepository определяет контракт доступа к черновикам.
// Все выборки ограничены владельцем: чужой черновик неотличим от отсутствующего.
type DraftRepository interface {
	Create(ctx context.Context, d *model.Draft) error
	// Save перезаписывает черновик целиком (id и владелец не меняются).
	Save(ctx context.Context, d *model.Draft) error
	GetByID(ctx context.Context, userID int64, id string) (*model.Draft, error)
	// FindByTitle ищет черновик пользователя с точным совпадением заголовка (с учётом регистра).
	FindByTitle(ctx context.Context, userID int64, title string) (*model.Draft, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Draft, error)
	Delete(ctx context.Context, userID int64, id string) error
	// UpdateSection заменяет одну JSON-колонку черновика и обновляет updated_at.
	UpdateSection(ctx context.Context, userID int64, id string, column string, patch *model.Draft) error
	Exists(ctx context.Context, id string) (bool, error)
}

type draftRepo struct {
	db *gorm.DB
}

// NewDraftRepository создаёт реализацию репозитория для Draft.
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepo{db: db}
}

func (r *draftRepo) Create(ctx context.Context, d *model.Draft) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *draftRepo) Save(ctx context.Context, d *model.Draft) error {
	d.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&model.Draft{}).
		Where("id = ? AND user_id = ?", d.ID, d.UserID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(d)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *draftRepo) GetByID(ctx context.Context, userID int64, id string) (*model.Draft, error) {
	var d model.Draft
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *draftRepo) FindByTitle(ctx context.Context, userID int64, title string) (*model.Draft, error) {
	var d model.Draft
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		Order("updated_at DESC").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *draftRepo) ListByUser(ctx context.Context, userID int64) ([]model.Draft, error) {
	var drafts []model.Draft
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&drafts).Error
	return drafts, err
}

func (r *draftRepo) Delete(ctx context.Context, userID int64, id string) error {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Draft{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *draftRepo) UpdateSection(ctx context.Context, userID int64, id string, column string, patch *model.Draft) error {
	patch.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&model.Draft{}).
		Where("id = ? AND user_id = ?", id, userID).
		Select(column, "updated_at").
		Updates(patch)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *draftRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Draft{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
