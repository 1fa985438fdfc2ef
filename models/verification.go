package models

import "time"

// Verification proof states. An abstract with no proof row is "unset".
const (
	ProofPending  = "pending"
	ProofVerified = "verified"
	ProofRejected = "rejected"
)

// VerificationProof represents the verification_proofs table. Only
// author-owned abstracts carry a proof; the final file upload is gated on
// status = verified.
type VerificationProof struct {
	ProofID    int        `gorm:"primaryKey;column:proof_id" json:"proof_id"`
	AbstractID int        `gorm:"column:abstract_id;unique" json:"abstract_id"`
	FileID     int        `gorm:"column:file_id" json:"file_id"`
	Status     string     `gorm:"column:status" json:"status"`
	UploadedAt time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	VerifiedBy *int       `gorm:"column:verified_by" json:"verified_by,omitempty"`
	VerifiedAt *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`

	File *FileUpload `gorm:"foreignKey:FileID" json:"file,omitempty"`
}

// TableName overrides
func (VerificationProof) TableName() string {
	return "verification_proofs"
}
