package model

import "time"

// Blob — объект хранилища медиа. Key — путь с пространством имён
// (media/temp/..., drafts/{id}/media/..., recipes/media/...).
type Blob struct {
	Key         string    `gorm:"primaryKey"`
	ContentType string    `gorm:"not null;default:''"`
	Size        int64     `gorm:"not null;default:0"`
	Data        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

// BlobInfo — метаданные объекта без содержимого (для листинга).
type BlobInfo struct {
	Key       string
	Size      int64
	CreatedAt time.Time
}
