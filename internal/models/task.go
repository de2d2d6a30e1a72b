package models

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Toggle returns the opposite status.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusCompleted {
		return TaskStatusPending
	}
	return TaskStatusCompleted
}

type Task struct {
	ID          string     `gorm:"primarykey;type:varchar(36)" bson:"_id" json:"id"`
	Title       string     `gorm:"type:varchar(200);not null" bson:"title" json:"title"`
	Description string     `gorm:"type:text" bson:"description" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending'" bson:"status" json:"status"`
	DueDate     *time.Time `bson:"dueDate,omitempty" json:"dueDate"`
	ProjectID   string     `gorm:"type:varchar(36);not null;index" bson:"projectId" json:"projectId"`
	AssignedTo  *string    `gorm:"type:varchar(36);index" bson:"assignedTo,omitempty" json:"assignedTo"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}
