package models

import "time"

// Review recommendation values. Recommendations are advisory; only a staff
// decision moves an abstract out of under_review.
const (
	RecommendAccept = "accept"
	RecommendReject = "reject"
	RecommendRevise = "revise"
)

// ValidRecommendation reports whether value is a known recommendation.
func ValidRecommendation(value string) bool {
	return value == RecommendAccept || value == RecommendReject || value == RecommendRevise
}

// ReviewerAssignment represents the reviewer_assignments table. The composite
// unique index enforces at most one assignment per (abstract, reviewer) pair.
type ReviewerAssignment struct {
	AssignmentID int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	AbstractID   int        `gorm:"column:abstract_id;uniqueIndex:uq_abstract_reviewer" json:"abstract_id"`
	ReviewerID   int        `gorm:"column:reviewer_id;uniqueIndex:uq_abstract_reviewer" json:"reviewer_id"`
	AssignedBy   int        `gorm:"column:assigned_by" json:"assigned_by"`
	AssignedAt   time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// Review represents the reviews table. At most one review per
// (abstract, reviewer) pair, enforced by the composite unique index and
// re-checked inside the submit transaction.
type Review struct {
	ReviewID       int       `gorm:"primaryKey;column:review_id" json:"review_id"`
	AbstractID     int       `gorm:"column:abstract_id;uniqueIndex:uq_abstract_review" json:"abstract_id"`
	ReviewerID     int       `gorm:"column:reviewer_id;uniqueIndex:uq_abstract_review" json:"reviewer_id"`
	Recommendation string    `gorm:"column:recommendation" json:"recommendation"`
	Score          *float64  `gorm:"column:score" json:"score,omitempty"`
	Comments       *string   `gorm:"column:comments;type:text" json:"comments,omitempty"`
	ReviewedAt     time.Time `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// TableName overrides
func (ReviewerAssignment) TableName() string {
	return "reviewer_assignments"
}

func (Review) TableName() string {
	return "reviews"
}
