package models

import "time"

type Project struct {
	ID          string     `gorm:"primarykey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_projects_owner_name,priority:2" bson:"name" json:"name"`
	Description string     `gorm:"type:text" bson:"description" json:"description"`
	Date        *time.Time `bson:"date,omitempty" json:"date"`
	OwnerID     string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_projects_owner_name,priority:1" bson:"ownerId" json:"ownerId"`
	// Collaborators is stored and returned but grants no access.
	Collaborators []string  `gorm:"serializer:json" bson:"collaborators" json:"collaborators"`
	CreatedAt     time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
