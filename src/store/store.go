// Package store persists connections, milestones, stage history and notifications.
//
// Connection writes use optimistic concurrency: Save only succeeds when the
// stored version equals the version the caller loaded.
package store

import (
	"context"
	"strings"

	"github.com/theleywin/Backend-Kindred/src/models"
)

// ConnectionReader serves connection snapshots
type ConnectionReader interface {
	Get(ctx context.Context, id string) (*models.Connection, error)
}

type ConnectionStore interface {
	ConnectionReader
	// Create inserts a new connection. A second connection for the same participant pair is a conflict.
	Create(ctx context.Context, c *models.Connection) error
	// Save writes c if its Version still matches the stored one, then bumps c.Version.
	Save(ctx context.Context, c *models.Connection) error
	// ListForParticipant returns the participant's connections, most recent interaction first.
	ListForParticipant(ctx context.Context, participant string, stage *models.Stage) ([]*models.Connection, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipient string) error
	Delete(ctx context.Context, id, recipient string) error
}

func connectionNotFound(id string) error {
	return &models.NotFoundError{Kind: "connection", ID: id}
}

func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "already exists")
}
