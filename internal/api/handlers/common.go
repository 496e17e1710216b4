package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/database"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
)

// SnapshotSource loads the products and orders of a user's active store.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID string) (*models.Snapshot, error)
}

// SnapshotInvalidator drops a user's cached snapshot.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Advisor answers questions and recommends actions with an LLM.
type Advisor interface {
	Answer(ctx context.Context, userID, question, contextBlock string) (string, error)
	Recommend(ctx context.Context, userID, contextBlock string) ([]models.Recommendation, error)
}

// EventPublisher hands webhook events to the worker.
type EventPublisher interface {
	Publish(ctx context.Context, event models.InventoryEvent) error
}

// snapshotError maps snapshot failures onto status codes.
func snapshotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, proxy.ErrNoActiveStore), errors.Is(err, database.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": proxy.ErrNoActiveStore.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
