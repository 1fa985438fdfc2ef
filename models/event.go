package models

import "time"

// Event represents the events table (a conference or meeting accepting abstracts).
type Event struct {
	EventID        int        `gorm:"primaryKey;column:event_id" json:"event_id"`
	EventName      string     `gorm:"column:event_name" json:"event_name"`
	EventCode      string     `gorm:"column:event_code;unique" json:"event_code"`
	StartDate      *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	SubmissionOpen bool       `gorm:"column:submission_open" json:"submission_open"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// EventReviewer represents the event_reviewers roster. A user may only be
// assigned abstracts for events where they appear on this roster.
type EventReviewer struct {
	EventReviewerID int        `gorm:"primaryKey;column:event_reviewer_id" json:"event_reviewer_id"`
	EventID         int        `gorm:"column:event_id;uniqueIndex:uq_event_reviewer" json:"event_id"`
	UserID          int        `gorm:"column:user_id;uniqueIndex:uq_event_reviewer" json:"user_id"`
	AddedBy         int        `gorm:"column:added_by" json:"added_by"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// EventStaff represents the event_staff roster for staff capability checks.
type EventStaff struct {
	EventStaffID int        `gorm:"primaryKey;column:event_staff_id" json:"event_staff_id"`
	EventID      int        `gorm:"column:event_id;uniqueIndex:uq_event_staff" json:"event_id"`
	UserID       int        `gorm:"column:user_id;uniqueIndex:uq_event_staff" json:"user_id"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (Event) TableName() string {
	return "events"
}

func (EventReviewer) TableName() string {
	return "event_reviewers"
}

func (EventStaff) TableName() string {
	return "event_staff"
}
