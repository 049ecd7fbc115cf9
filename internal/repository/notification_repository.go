package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        int64  `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Message   string `gorm:"not null"`
	Type      string `gorm:"not null"` // success | alert
	CreatedAt time.Time
}

func (Notification) TableName() string { return "notifications" }

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	n.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Notification
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
