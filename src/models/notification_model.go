package models

import (
	"time"
)

type Notification struct {
	ID           string           `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Recipient    string           `json:"recipient" bson:"recipient" gorm:"index;type:varchar(64)"`
	Type         NotificationType `json:"type" bson:"type" gorm:"type:varchar(32)"`
	RelatedUser  string           `json:"relatedUser,omitempty" bson:"relatedUser,omitempty" gorm:"type:varchar(64)"`
	ConnectionID string           `json:"connectionId,omitempty" bson:"connectionId,omitempty" gorm:"index;type:varchar(36)"`
	MilestoneID  string           `json:"milestoneId,omitempty" bson:"milestoneId,omitempty" gorm:"type:varchar(64)"`
	Stage        Stage            `json:"stage,omitempty" bson:"stage,omitempty" gorm:"type:varchar(20)"`
	Read         bool             `json:"read" bson:"read"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt" bson:"updatedAt"`
}

type NotificationType string

const (
	NotificationTypeConnectionCreated  NotificationType = "connectionCreated"
	NotificationTypeMilestoneCompleted NotificationType = "milestoneCompleted"
	NotificationTypeStageAdvanced      NotificationType = "stageAdvanced"
)
