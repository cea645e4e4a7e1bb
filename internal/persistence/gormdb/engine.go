package gormdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Notification struct {
	Id        string    `gorm:"primaryKey;type:varchar(36)"`
	UserId    string    `gorm:"type:varchar(255);not null;index:idx_notifications_user_created,priority:1"`
	Type      string    `gorm:"type:varchar(20);not null"`
	Message   string    `gorm:"type:text;not null"`
	Read      bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index:idx_notifications_user_created,priority:2,sort:desc"`
}

func (n Notification) toDomain() notification.Notification {
	return notification.Notification{
		Id:        n.Id,
		UserId:    n.UserId,
		Type:      notification.Type(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

type PersistenceEngine struct {
	db *gorm.DB
}

// OpenMySQL opens the relational store behind the gorm engine.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func NewPersistenceEngine(db *gorm.DB) *PersistenceEngine {
	return &PersistenceEngine{
		db,
	}
}

func (e *PersistenceEngine) Setup(ctx context.Context) error {
	return e.db.WithContext(ctx).AutoMigrate(&Notification{})
}

func (e *PersistenceEngine) Save(ctx context.Context, request persistence.SaveRequest) (notification.Notification, error) {
	row := Notification{
		Id:        uuid.NewString(),
		UserId:    request.UserId,
		Type:      string(request.Type),
		Message:   request.Message,
		CreatedAt: time.Now().UTC(),
	}

	err := e.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		return notification.Notification{}, err
	}

	return row.toDomain(), nil
}

func (e *PersistenceEngine) List(ctx context.Context, userId string, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = persistence.DefaultListLimit
	}

	var rows []Notification
	err := e.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row Notification, _ int) notification.Notification {
		return row.toDomain()
	}), nil
}

func (e *PersistenceEngine) MarkAllRead(ctx context.Context, userId string) (int64, error) {
	result := e.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true)

	return result.RowsAffected, result.Error
}
