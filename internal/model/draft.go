package model

import "time"

// Draft — изменяемый черновик рецепта, принадлежит одному пользователю.
type Draft struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID int64  `gorm:"not null;index" json:"userId"`

	BasicInfo BasicInfo `gorm:"embedded" json:"basicInfo"`

	Ingredients    []Ingredient   `gorm:"serializer:json;type:jsonb" json:"ingredients"`
	Instructions   []Instruction  `gorm:"serializer:json;type:jsonb" json:"instructions"`
	Media          Media          `gorm:"serializer:json;type:jsonb" json:"media"`
	Tags           []string       `gorm:"serializer:json;type:jsonb" json:"tags"`
	AdditionalInfo AdditionalInfo `gorm:"serializer:json;type:jsonb" json:"additionalInfo"`

	// прогресс мастера на клиенте, не авторитетно
	CompletionPercentage int `gorm:"not null;default:0" json:"completionPercentage"`
	CurrentStep          int `gorm:"not null;default:0" json:"currentStep"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// MediaURLs собирает все ссылки на медиа черновика, включая медиа шагов.
func (d *Draft) MediaURLs() []string {
	urls := d.Media.URLs()
	for _, step := range d.Instructions {
		urls = append(urls, step.MediaURLs...)
	}
	return urls
}
