package engine

import (
	"context"
	"fmt"

	"adflow/internal/models"
)

// UserNotifications lists the actor's own notifications, newest first.
func (e *Engine) UserNotifications(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.notes.ListUserNotifications(ctx, actor.ID, limit)
}

// MarkNotificationRead marks one of the actor's notifications read.
// Somebody else's notification looks like a missing one; existence is not
// leaked across users.
func (e *Engine) MarkNotificationRead(ctx context.Context, actor models.Actor, notificationID string) error {
	n, err := e.notes.GetNotification(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if n == nil || n.UserID != actor.ID {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}
	if n.Read {
		return nil
	}
	if err := e.notes.MarkNotificationRead(ctx, notificationID, e.now().UnixMilli()); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
