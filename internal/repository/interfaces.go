package repository

import (
	"context"

	"github.com/windoze95/amitbot-api/internal/models"
)

// InteractionRepo persists pipeline audit records.
type InteractionRepo interface {
	CreateInteraction(ctx context.Context, interaction *models.Interaction) error
}

// UpdateDeduper remembers which webhook updates were already handled.
// FirstSeen returns true exactly once per update id within the retention
// window.
type UpdateDeduper interface {
	FirstSeen(ctx context.Context, updateID int64) (bool, error)
}
