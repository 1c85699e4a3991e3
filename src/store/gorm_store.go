package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
)

type GormConnectionStore struct {
	db  *gorm.DB
	log *lib.Logger
}

func NewGormConnectionStore(db *gorm.DB, baseLog *lib.Logger) *GormConnectionStore {
	return &GormConnectionStore{db: db, log: baseLog.With("store", "GormConnectionStore")}
}

func (s *GormConnectionStore) withAssociations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") })
}

func (s *GormConnectionStore) Create(ctx context.Context, c *models.Connection) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Connection{}).Where("pair_key = ?", c.PairKey).Count(&existing).Error; err != nil {
			return fmt.Errorf("check participant pair: %w", err)
		}
		if existing > 0 {
			return models.NewConflictError("these participants are already connected")
		}
		if err := tx.Create(c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
				return models.NewConflictError("these participants are already connected")
			}
			return fmt.Errorf("create connection: %w", err)
		}
		return nil
	})
}

func (s *GormConnectionStore) Get(ctx context.Context, id string) (*models.Connection, error) {
	var c models.Connection
	err := s.withAssociations(s.db.WithContext(ctx)).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connectionNotFound(id)
		}
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}
	return &c, nil
}

func (s *GormConnectionStore) Save(ctx context.Context, c *models.Connection) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Connection{}).
			Where("id = ? AND version = ?", c.ID, c.Version).
			Updates(map[string]interface{}{
				"type":                           c.Type,
				"stage":                          c.Stage,
				"stage_progress":                 c.StageProgress,
				"next_milestone_id":              c.NextMilestoneID,
				"insight_compatibility_score":    c.Insights.CompatibilityScore,
				"insight_recommendation":         c.Insights.Recommendation,
				"insight_suggested_milestone_id": c.Insights.SuggestedMilestoneID,
				"insight_updated_at":             c.Insights.UpdatedAt,
				"guidance_text":                  c.Guidance.Text,
				"guidance_milestone_id":          c.Guidance.MilestoneID,
				"last_interaction_at":            c.LastInteractionAt,
				"version":                        c.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("update connection %s: %w", c.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Connection{}).Where("id = ?", c.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return connectionNotFound(c.ID)
			}
			return models.NewConflictError(fmt.Sprintf("connection %s was modified concurrently", c.ID))
		}

		if len(c.Milestones) > 0 {
			// milestones are append-only, so an upsert per row is enough
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}, {Name: "connection_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"position", "title", "description", "stage", "completed", "completed_at", "progress"}),
			}).Create(&c.Milestones).Error
			if err != nil {
				return fmt.Errorf("save milestones: %w", err)
			}
		}
		if len(c.History) > 0 {
			// history rows are never rewritten
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c.History).Error; err != nil {
				return fmt.Errorf("append stage history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.Version++
	return nil
}

func (s *GormConnectionStore) ListForParticipant(ctx context.Context, participant string, stage *models.Stage) ([]*models.Connection, error) {
	q := s.withAssociations(s.db.WithContext(ctx)).
		Where("(participant_a = ? OR participant_b = ?)", participant, participant)
	if stage != nil {
		q = q.Where("stage = ?", *stage)
	}

	var conns []*models.Connection
	if err := q.Order("last_interaction_at DESC").Find(&conns).Error; err != nil {
		s.log.Error("Failed to list connections", "participant", participant, "error", err)
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}
