package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// NotificationLimit caps inbox reads.
const NotificationLimit = 200

var notificationTypes = map[string]bool{
	model.NotificationBid:        true,
	model.NotificationOutbid:     true,
	model.NotificationWon:        true,
	model.NotificationNewAuction: true,
	model.NotificationSystem:     true,
}

const notificationColumns = `id, user_id, type, title, message, entity_type, entity_id, is_read, created_at`

// Notify appends an unread notification to a user's inbox.
func Notify(ctx context.Context, q db.Querier, n model.Notification) (*model.Notification, error) {
	if n.UserID <= 0 {
		return nil, invalid("user_id", "required")
	}
	if !notificationTypes[n.Type] {
		return nil, invalid("type", fmt.Sprintf("unknown notification type %q", n.Type))
	}
	if n.Title == "" {
		return nil, invalid("title", "required")
	}

	out := n
	out.Read = false
	out.CreatedAt = time.Now().UTC()
	err := q.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, entity_type, entity_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		out.UserID, out.Type, out.Title, out.Message, nullString(out.EntityType), nullString(out.EntityID),
		false, out.CreatedAt,
	).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return &out, nil
}

// GetNotification returns a notification by ID, or nil if it does not exist.
func GetNotification(ctx context.Context, q db.Querier, id int64) (*model.Notification, error) {
	n, err := scanNotification(q.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's most recent notifications, newest first.
func ListNotifications(ctx context.Context, q db.Querier, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = ?`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	args := []any{userID}
	if unreadOnly {
		args = append(args, false)
	}
	args = append(args, NotificationLimit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// UnreadCount returns how many unread notifications a user has.
func UnreadCount(ctx context.Context, q db.Querier, userID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`, userID, false,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead sets the read flag of a notification.
func MarkNotificationRead(ctx context.Context, q db.Querier, id int64, read bool) error {
	result, err := q.ExecContext(ctx, `UPDATE notifications SET is_read = ? WHERE id = ?`, read, id)
	if err != nil {
		return fmt.Errorf("marking notification: %w", err)
	}
	return expectRow(result, "notification", strconv.FormatInt(id, 10))
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	n := &model.Notification{}
	var entityType, entityID sql.NullString
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &entityType, &entityID, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.EntityType = entityType.String
	n.EntityID = entityID.String
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
