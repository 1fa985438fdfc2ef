package services

import (
	"errors"
	"fmt"
	"time"

	"abstract-review-api/models"

	"gorm.io/gorm"
)

// VerificationService runs the author-only registration-proof gate. Authors
// are a lower-initial-trust submitter class; they must hold a verified proof
// before a camera-ready final file may be attached.
type VerificationService struct {
	db       *gorm.DB
	notifier Notifier
	workflow *WorkflowService
}

func NewVerificationService(db *gorm.DB, notifier Notifier, workflow *WorkflowService) *VerificationService {
	return &VerificationService{db: db, notifier: notifier, workflow: workflow}
}

// Proof returns the proof row, or nil when the gate is still unset.
func (s *VerificationService) Proof(abstractID int) (*models.VerificationProof, error) {
	var proof models.VerificationProof
	err := s.db.Preload("File").Where("abstract_id = ?", abstractID).First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, InternalError("failed to load verification proof", err)
	}
	return &proof, nil
}

// UploadRegistrationProof attaches (or replaces) the owner's proof of
// registration, moving the gate to pending. Only allowed while the gate is
// unset or pending; a verdict, once issued, is final for that proof.
func (s *VerificationService) UploadRegistrationProof(actor Actor, abstractID, fileID int) (*models.VerificationProof, error) {
	abstract, err := s.workflow.Get(abstractID)
	if err != nil {
		return nil, err
	}
	if abstract.UserID != actor.UserID {
		return nil, PermissionError("only the abstract owner may upload a registration proof")
	}
	if !actor.IsAuthor() {
		return nil, StateError("registration proof applies to author submissions only")
	}

	existing, err := s.Proof(abstractID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		proof := models.VerificationProof{
			AbstractID: abstractID,
			FileID:     fileID,
			Status:     models.ProofPending,
			UploadedAt: now,
		}
		if err := s.db.Create(&proof).Error; err != nil {
			return nil, InternalError("failed to store verification proof", err)
		}
		return &proof, nil
	}

	if existing.Status != models.ProofPending {
		return nil, StateError("proof is already %s and cannot be replaced", existing.Status)
	}
	updates := map[string]interface{}{
		"file_id":     fileID,
		"uploaded_at": now,
		"update_at":   now,
	}
	if err := s.db.Model(&models.VerificationProof{}).
		Where("proof_id = ? AND status = ?", existing.ProofID, models.ProofPending).
		Updates(updates).Error; err != nil {
		return nil, InternalError("failed to update verification proof", err)
	}
	return s.Proof(abstractID)
}

// VerifyRegistrationProof records the staff verdict. Only a pending proof
// can be verified or rejected.
func (s *VerificationService) VerifyRegistrationProof(actor Actor, abstractID int, verdict string) (*models.VerificationProof, error) {
	if verdict != models.ProofVerified && verdict != models.ProofRejected {
		return nil, ValidationError("verdict must be verified or rejected")
	}

	abstract, err := s.workflow.Get(abstractID)
	if err != nil {
		return nil, err
	}
	if err := requireEventStaff(s.db, actor, abstract.EventID); err != nil {
		return nil, err
	}

	proof, err := s.Proof(abstractID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, StateError("no registration proof uploaded yet")
	}
	if proof.Status != models.ProofPending {
		return nil, StateError("proof is already %s", proof.Status)
	}

	now := time.Now()
	result := s.db.Model(&models.VerificationProof{}).
		Where("proof_id = ? AND status = ?", proof.ProofID, models.ProofPending).
		Updates(map[string]interface{}{
			"status":      verdict,
			"verified_by": actor.UserID,
			"verified_at": now,
			"update_at":   now,
		})
	if result.Error != nil {
		return nil, InternalError("failed to record verdict", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ConflictError("proof was verified concurrently")
	}

	s.notifier.Emit(WorkflowEvent{
		Name:       "verification.decided",
		AbstractID: abstractID,
		Recipients: []int{abstract.UserID},
		Title:      "Registration proof " + verdict,
		Message:    fmt.Sprintf("Your registration proof for abstract %s was %s.", abstract.AbstractNumber, verdict),
	})

	return s.Proof(abstractID)
}

// UploadFinalFile attaches the camera-ready file. Gated on a verified proof:
// an unverified submitter cannot substitute an unvetted final artifact.
func (s *VerificationService) UploadFinalFile(actor Actor, abstractID, fileID int) (*models.Abstract, error) {
	abstract, err := s.workflow.Get(abstractID)
	if err != nil {
		return nil, err
	}
	if abstract.UserID != actor.UserID {
		return nil, PermissionError("only the abstract owner may upload the final file")
	}

	proof, err := s.Proof(abstractID)
	if err != nil {
		return nil, err
	}
	if proof == nil || proof.Status != models.ProofVerified {
		return nil, PermissionError("verification required")
	}

	now := time.Now()
	result := s.db.Model(&models.Abstract{}).
		Where("abstract_id = ? AND version = ?", abstract.AbstractID, abstract.Version).
		Updates(map[string]interface{}{
			"final_file_id": fileID,
			"version":       abstract.Version + 1,
			"update_at":     now,
		})
	if result.Error != nil {
		return nil, InternalError("failed to attach final file", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ConflictError("abstract was modified concurrently")
	}

	return s.workflow.Get(abstractID)
}
