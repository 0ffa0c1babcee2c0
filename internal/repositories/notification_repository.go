package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

// NotificationRepository stores the admin notification feed.
type NotificationRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r NotificationRepository) Insert(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return domain.InternalError{Msg: "encode notification", Err: err}
	}
	_, err = r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		INSERT INTO notifications (kind, recipient, booking_reference, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		string(n.Kind), n.Recipient, n.Reference, string(payload), n.CreatedAt,
	)
	return domain.StoreError("insert notification", err)
}

// ListRecent returns the newest notifications first.
func (r NotificationRepository) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(`
		SELECT payload, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, domain.StoreError("list notifications", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var (
			payload string
			n       models.Notification
		)
		if err := rows.Scan(&payload, &n.CreatedAt); err != nil {
			return nil, domain.StoreError("list notifications", err)
		}
		createdAt := n.CreatedAt.UTC()
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, domain.InternalError{Msg: "decode notification", Err: err}
		}
		n.CreatedAt = createdAt
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list notifications", err)
	}
	return out, nil
}
