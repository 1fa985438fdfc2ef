package models

import "time"

// Decision kinds issued by staff.
const (
	DecisionApproved          = "approved"
	DecisionRejected          = "rejected"
	DecisionRevisionRequested = "revision_requested"
)

// ValidDecisionKind reports whether kind is a known decision kind.
func ValidDecisionKind(kind string) bool {
	return kind == DecisionApproved || kind == DecisionRejected || kind == DecisionRevisionRequested
}

// StatusForDecision maps a decision kind to the abstract status it drives.
func StatusForDecision(kind string) string {
	switch kind {
	case DecisionApproved:
		return StatusApproved
	case DecisionRejected:
		return StatusRejected
	default:
		return StatusRevisionRequested
	}
}

// Decision represents the decisions table. An abstract has at most one current
// decision (superseded_at IS NULL); resubmission supersedes it so the full
// decision trail survives the revision cycle.
type Decision struct {
	DecisionID   int        `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	AbstractID   int        `gorm:"column:abstract_id" json:"abstract_id"`
	Kind         string     `gorm:"column:kind" json:"kind"`
	Reason       *string    `gorm:"column:reason" json:"reason,omitempty"`
	DecidedBy    int        `gorm:"column:decided_by" json:"decided_by"`
	DecidedAt    time.Time  `gorm:"column:decided_at" json:"decided_at"`
	SupersededAt *time.Time `gorm:"column:superseded_at" json:"superseded_at,omitempty"`

	Decider *User `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
}

// TableName overrides
func (Decision) TableName() string {
	return "decisions"
}
