package repository

import (
	"context"

	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InteractionRepository stores interactions in Postgres.
type InteractionRepository struct {
	DB *gorm.DB
}

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

// CreateInteraction inserts one audit record.
func (r *InteractionRepository) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	if err := r.DB.WithContext(ctx).Create(interaction).Error; err != nil {
		logger.Get().Error("failed to record interaction",
			zap.Int64("chat_id", interaction.ChatID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
