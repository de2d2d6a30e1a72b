package models

import "time"

type User struct {
	ID           string    `gorm:"primarykey;type:varchar(36)" bson:"_id" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" bson:"name" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" bson:"password" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
