package model

import (
	"time"
)

// Status is a member's submission state for the current day.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPlanned   Status = "Planned"
	StatusCompleted Status = "Completed"
	StatusMissed    Status = "Missed"
)

type Member struct {
	UserID   int64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"` // Telegram User ID
	Username string `json:"username"`

	SubmissionStatus Status `gorm:"size:16;not null" json:"submission_status"`
	TargetCount      int    `gorm:"not null" json:"target_count"`
	Points           int    `gorm:"not null" json:"points"`
	Streak           int    `gorm:"not null" json:"streak"`

	// Empty until the first completion
	LastCompletedDate Date      `gorm:"size:10" json:"last_completed_date,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
	CreatedAt         time.Time `json:"created_at"`
}

// DisplayName falls back to the numeric id for members without a username.
func (m Member) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return formatID(m.UserID)
}
