package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/urbanlens/smart-city-api/internal/model"
)

// NotificationRepo persists rows of the `notifications` table. The
// accident event consumer is its only writer.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification row. A missing ID is filled with a
// fresh UUID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (id,user_id,title,message,type,is_read,created_at) VALUES (?,?,?,?,?,?,?)",
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt)
	return err
}
