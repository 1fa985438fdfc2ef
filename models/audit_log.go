package models

import "time"

// AuditLog represents the audit_logs table recording who did what to which
// entity, with serialized before/after values where relevant.
type AuditLog struct {
	AuditID      int       `gorm:"primaryKey;column:audit_id" json:"audit_id"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	Action       string    `gorm:"column:action" json:"action"`
	EntityType   string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID     *int      `gorm:"column:entity_id" json:"entity_id,omitempty"`
	EntityNumber *string   `gorm:"column:entity_number" json:"entity_number,omitempty"`
	OldValues    *string   `gorm:"column:old_values;type:text" json:"old_values,omitempty"`
	NewValues    *string   `gorm:"column:new_values;type:text" json:"new_values,omitempty"`
	Description  *string   `gorm:"column:description" json:"description,omitempty"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides
func (AuditLog) TableName() string {
	return "audit_logs"
}
