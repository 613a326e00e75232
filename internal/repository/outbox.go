package repository

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AddOutboxEvent inserts one change event in the caller's transaction.
func AddOutboxEvent(tx *gorm.DB, entityType string, entityID uuid.UUID, op string, payload any) error {
	var data datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		data = datatypes.JSON(b)
	}

	event := models.Outbox{
		EntityType: entityType,
		EntityID:   entityID,
		Op:         op,
		Payload:    data,
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}
	return nil
}

// AddBatchOutboxEvents inserts one event per id, all with the same op.
func AddBatchOutboxEvents(tx *gorm.DB, entityType string, op string, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := AddOutboxEvent(tx, entityType, id, op, nil); err != nil {
			return err
		}
	}
	return nil
}
