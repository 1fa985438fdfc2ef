package models

import "time"

// Abstract status values. The workflow engine owns the transition graph; nothing
// outside services/workflow_service.go may change an abstract's status.
const (
	StatusSubmitted         = "submitted"
	StatusUnderReview       = "under_review"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusRevisionRequested = "revision_requested"
)

// statusTransitions is the allowed edge set of the workflow graph.
var statusTransitions = map[string][]string{
	StatusSubmitted:         {StatusUnderReview},
	StatusUnderReview:       {StatusApproved, StatusRejected, StatusRevisionRequested},
	StatusRevisionRequested: {StatusUnderReview},
}

// CanTransition reports whether from -> to is an allowed status edge.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions exist from status.
func IsTerminalStatus(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// Abstract represents the abstracts table.
type Abstract struct {
	AbstractID     int        `gorm:"primaryKey;column:abstract_id" json:"abstract_id"`
	AbstractNumber string     `gorm:"column:abstract_number;unique" json:"abstract_number"`
	EventID        int        `gorm:"column:event_id" json:"event_id"`
	UserID         int        `gorm:"column:user_id" json:"user_id"`
	Title          string     `gorm:"column:title" json:"title"`
	Authors        string     `gorm:"column:authors" json:"authors"`
	CategoryID     int        `gorm:"column:category_id" json:"category_id"`
	SubTopicID     *int       `gorm:"column:sub_topic_id" json:"sub_topic_id,omitempty"`
	Content        *string    `gorm:"column:content;type:text" json:"content,omitempty"`
	FileID         *int       `gorm:"column:file_id" json:"file_id,omitempty"`
	FinalFileID    *int       `gorm:"column:final_file_id" json:"final_file_id,omitempty"`
	Status         string     `gorm:"column:status" json:"status"`
	RevisionCount  int        `gorm:"column:revision_count" json:"revision_count"`
	Version        int        `gorm:"column:version" json:"version"`
	SubmittedAt    time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User        *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Event       *Event               `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Category    *Category            `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubTopic    *SubTopic            `gorm:"foreignKey:SubTopicID" json:"sub_topic,omitempty"`
	File        *FileUpload          `gorm:"foreignKey:FileID" json:"file,omitempty"`
	FinalFile   *FileUpload          `gorm:"foreignKey:FinalFileID" json:"final_file,omitempty"`
	Assignments []ReviewerAssignment `gorm:"foreignKey:AbstractID" json:"assignments,omitempty"`
	Reviews     []Review             `gorm:"foreignKey:AbstractID" json:"reviews,omitempty"`
	Decision    *Decision            `gorm:"-" json:"decision,omitempty"`
}

// AbstractStatusHistory tracks historical status changes for abstracts.
type AbstractStatusHistory struct {
	HistoryID  int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	AbstractID int       `gorm:"column:abstract_id" json:"abstract_id"`
	OldStatus  *string   `gorm:"column:old_status" json:"old_status"`
	NewStatus  string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy  int       `gorm:"column:changed_by" json:"changed_by"`
	Reason     *string   `gorm:"column:reason" json:"reason"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// AbstractComment represents the comment thread attached to an abstract.
// Comments never affect workflow status.
type AbstractComment struct {
	CommentID  int        `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	AbstractID int        `gorm:"column:abstract_id" json:"abstract_id"`
	UserID     int        `gorm:"column:user_id" json:"user_id"`
	Text       string     `gorm:"column:text;type:text" json:"text"`
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides
func (Abstract) TableName() string {
	return "abstracts"
}

func (AbstractStatusHistory) TableName() string {
	return "abstract_status_history"
}

func (AbstractComment) TableName() string {
	return "abstract_comments"
}
