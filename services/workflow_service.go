package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"abstract-review-api/models"

	"gorm.io/gorm"
)

// WorkflowService owns the abstract state machine. Every status change goes
// through here, is version-checked against concurrent writers, and leaves a
// status history row behind.
type WorkflowService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewWorkflowService(db *gorm.DB, notifier Notifier) *WorkflowService {
	return &WorkflowService{db: db, notifier: notifier}
}

// SubmitRequest carries the fields of a new abstract. Content and file are
// both optional; title, authors and category are required.
type SubmitRequest struct {
	EventID    int
	Title      string
	Authors    string
	CategoryID int
	SubTopicID *int
	Content    *string
	FileID     *int
}

// ResubmitRequest carries the owner's updates during a revision cycle. Nil
// fields are left untouched.
type ResubmitRequest struct {
	Title   *string
	Authors *string
	Content *string
	FileID  *int
}

// Submit creates a new abstract in status submitted and assigns its number.
func (s *WorkflowService) Submit(actor Actor, req SubmitRequest) (*models.Abstract, error) {
	if !actor.CanOwnAbstracts() {
		return nil, PermissionError("only registrants and authors may submit abstracts")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Authors = strings.TrimSpace(req.Authors)
	if req.Title == "" {
		return nil, ValidationError("title is required")
	}
	if req.Authors == "" {
		return nil, ValidationError("authors is required")
	}
	if req.CategoryID <= 0 {
		return nil, ValidationError("category is required")
	}

	var event models.Event
	if err := s.db.Where("event_id = ? AND delete_at IS NULL", req.EventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("event %d not found", req.EventID)
		}
		return nil, InternalError("failed to load event", err)
	}
	if !event.SubmissionOpen {
		return nil, StateError("event is not accepting submissions")
	}

	var category models.Category
	if err := s.db.Where("category_id = ? AND event_id = ? AND delete_at IS NULL", req.CategoryID, req.EventID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ValidationError("category %d does not belong to event %d", req.CategoryID, req.EventID)
		}
		return nil, InternalError("failed to load category", err)
	}
	if req.SubTopicID != nil {
		var count int64
		if err := s.db.Model(&models.SubTopic{}).
			Where("sub_topic_id = ? AND category_id = ? AND delete_at IS NULL", *req.SubTopicID, req.CategoryID).
			Count(&count).Error; err != nil {
			return nil, InternalError("failed to load sub topic", err)
		}
		if count == 0 {
			return nil, ValidationError("sub topic %d does not belong to category %d", *req.SubTopicID, req.CategoryID)
		}
	}

	now := time.Now()
	abstract := models.Abstract{
		EventID:       req.EventID,
		UserID:        actor.UserID,
		Title:         req.Title,
		Authors:       req.Authors,
		CategoryID:    req.CategoryID,
		SubTopicID:    req.SubTopicID,
		Content:       req.Content,
		FileID:        req.FileID,
		Status:        models.StatusSubmitted,
		RevisionCount: 0,
		Version:       1,
		SubmittedAt:   now,
		CreateAt:      now,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sequence int64
	if err := tx.Model(&models.Abstract{}).Where("event_id = ?", req.EventID).Count(&sequence).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to number abstract", err)
	}
	abstract.AbstractNumber = fmt.Sprintf("AB-%s-%04d", event.EventCode, sequence+1)

	if err := tx.Create(&abstract).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to create abstract", err)
	}

	history := models.AbstractStatusHistory{
		AbstractID: abstract.AbstractID,
		NewStatus:  models.StatusSubmitted,
		ChangedBy:  actor.UserID,
		CreatedAt:  now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to record status history", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, InternalError("failed to commit submission", err)
	}

	s.notifier.Emit(WorkflowEvent{
		Name:       "abstract.submitted",
		AbstractID: abstract.AbstractID,
		Recipients: []int{actor.UserID},
		Title:      "Abstract received",
		Message:    fmt.Sprintf("Your abstract %s has been received.", abstract.AbstractNumber),
	})

	return s.Get(abstract.AbstractID)
}

// Decide records the staff verdict and moves the abstract to its final (or
// revision) status. Reason is required unless the abstract is approved.
func (s *WorkflowService) Decide(actor Actor, abstractID int, kind, reason string) (*models.Abstract, error) {
	if !models.ValidDecisionKind(kind) {
		return nil, ValidationError("invalid decision kind '%s'", kind)
	}
	reason = strings.TrimSpace(reason)
	if kind != models.DecisionApproved && reason == "" {
		return nil, ValidationError("reason required for %s decisions", kind)
	}

	abstract, err := s.Get(abstractID)
	if err != nil {
		return nil, err
	}
	if err := requireEventStaff(s.db, actor, abstract.EventID); err != nil {
		return nil, err
	}
	if abstract.Status != models.StatusUnderReview {
		return nil, StateError("abstract is %s, decisions require under_review", abstract.Status)
	}

	targetStatus := models.StatusForDecision(kind)
	now := time.Now()

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.transition(tx, abstract, targetStatus, actor.UserID, reason, now); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.Decision{}).
		Where("abstract_id = ? AND superseded_at IS NULL", abstract.AbstractID).
		Update("superseded_at", now).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to supersede prior decision", err)
	}

	decision := models.Decision{
		AbstractID: abstract.AbstractID,
		Kind:       kind,
		DecidedBy:  actor.UserID,
		DecidedAt:  now,
	}
	if reason != "" {
		decision.Reason = &reason
	}
	if err := tx.Create(&decision).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to record decision", err)
	}

	if err := s.audit(tx, actor, "decide", abstract, map[string]interface{}{
		"kind":   kind,
		"reason": reason,
		"status": targetStatus,
	}, now); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, InternalError("failed to commit decision", err)
	}

	s.notifier.Emit(WorkflowEvent{
		Name:       "abstract.decided",
		AbstractID: abstract.AbstractID,
		Recipients: []int{abstract.UserID},
		Title:      "Abstract decision issued",
		Message:    fmt.Sprintf("Abstract %s: %s.", abstract.AbstractNumber, kind),
	})

	return s.Get(abstract.AbstractID)
}

// Resubmit re-enters review after a revision request. Only the owner may
// resubmit; the prior decision is superseded and the revision counter bumped.
func (s *WorkflowService) Resubmit(actor Actor, abstractID int, req ResubmitRequest) (*models.Abstract, error) {
	abstract, err := s.Get(abstractID)
	if err != nil {
		return nil, err
	}
	if abstract.UserID != actor.UserID {
		return nil, PermissionError("only the abstract owner may resubmit")
	}
	if abstract.Status != models.StatusRevisionRequested {
		return nil, StateError("abstract is %s, resubmission requires revision_requested", abstract.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.StatusUnderReview,
		"revision_count": abstract.RevisionCount + 1,
		"version":        abstract.Version + 1,
		"update_at":      now,
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, ValidationError("title cannot be empty")
		}
		updates["title"] = trimmed
	}
	if req.Authors != nil {
		trimmed := strings.TrimSpace(*req.Authors)
		if trimmed == "" {
			return nil, ValidationError("authors cannot be empty")
		}
		updates["authors"] = trimmed
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.FileID != nil {
		updates["file_id"] = *req.FileID
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&models.Abstract{}).
		Where("abstract_id = ? AND version = ?", abstract.AbstractID, abstract.Version).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, InternalError("failed to update abstract", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, ConflictError("abstract was modified concurrently")
	}

	if err := tx.Model(&models.Decision{}).
		Where("abstract_id = ? AND superseded_at IS NULL", abstract.AbstractID).
		Update("superseded_at", now).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to supersede decision", err)
	}

	oldStatus := abstract.Status
	reason := "resubmission"
	history := models.AbstractStatusHistory{
		AbstractID: abstract.AbstractID,
		OldStatus:  &oldStatus,
		NewStatus:  models.StatusUnderReview,
		ChangedBy:  actor.UserID,
		Reason:     &reason,
		CreatedAt:  now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to record status history", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, InternalError("failed to commit resubmission", err)
	}

	recipients := []int{abstract.UserID}
	var reviewerIDs []int
	if err := s.db.Model(&models.ReviewerAssignment{}).
		Where("abstract_id = ? AND delete_at IS NULL", abstract.AbstractID).
		Pluck("reviewer_id", &reviewerIDs).Error; err == nil {
		recipients = append(recipients, reviewerIDs...)
	}
	s.notifier.Emit(WorkflowEvent{
		Name:       "abstract.resubmitted",
		AbstractID: abstract.AbstractID,
		Recipients: recipients,
		Title:      "Abstract resubmitted",
		Message:    fmt.Sprintf("Abstract %s has been resubmitted for review.", abstract.AbstractNumber),
	})

	return s.Get(abstract.AbstractID)
}

// Comment appends to the abstract's comment thread. Comments are independent
// of the workflow and never change status.
func (s *WorkflowService) Comment(actor Actor, abstractID int, text string) (*models.AbstractComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("comment text is required")
	}

	abstract, err := s.Get(abstractID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canView(actor, abstract)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, PermissionError("no access to this abstract")
	}

	comment := models.AbstractComment{
		AbstractID: abstract.AbstractID,
		UserID:     actor.UserID,
		Text:       text,
		CreateAt:   time.Now(),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, InternalError("failed to create comment", err)
	}
	return &comment, nil
}

// Comments returns the abstract's comment thread, oldest first.
func (s *WorkflowService) Comments(actor Actor, abstractID int) ([]models.AbstractComment, error) {
	abstract, err := s.Get(abstractID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canView(actor, abstract)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, PermissionError("no access to this abstract")
	}

	var comments []models.AbstractComment
	if err := s.db.Preload("User").
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		Order("create_at ASC, comment_id ASC").
		Find(&comments).Error; err != nil {
		return nil, InternalError("failed to list comments", err)
	}
	return comments, nil
}

// Get loads an abstract with its relations and current decision.
func (s *WorkflowService) Get(abstractID int) (*models.Abstract, error) {
	var abstract models.Abstract
	err := s.db.Preload("User").
		Preload("Event").
		Preload("Category").
		Preload("SubTopic").
		Preload("File").
		Preload("Assignments", "delete_at IS NULL").
		Preload("Assignments.Reviewer").
		Preload("Reviews").
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		First(&abstract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("abstract %d not found", abstractID)
		}
		return nil, InternalError("failed to load abstract", err)
	}

	var decision models.Decision
	err = s.db.Where("abstract_id = ? AND superseded_at IS NULL", abstractID).First(&decision).Error
	if err == nil {
		abstract.Decision = &decision
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, InternalError("failed to load decision", err)
	}

	return &abstract, nil
}

// GetFor loads an abstract after checking the actor can see it.
func (s *WorkflowService) GetFor(actor Actor, abstractID int) (*models.Abstract, error) {
	abstract, err := s.Get(abstractID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canView(actor, abstract)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, PermissionError("no access to this abstract")
	}
	return abstract, nil
}

// List returns the actor's visible abstracts for an event: staff see all,
// reviewers their assigned set, owners their own.
func (s *WorkflowService) List(actor Actor, eventID int) ([]models.Abstract, error) {
	query := s.db.Preload("User").
		Preload("Category").
		Preload("Assignments", "delete_at IS NULL").
		Preload("Reviews").
		Where("delete_at IS NULL")
	if eventID > 0 {
		query = query.Where("event_id = ?", eventID)
	}

	staff, err := isEventStaff(s.db, actor, eventID)
	if err != nil {
		return nil, err
	}
	if !staff {
		if actor.RoleID == models.RoleReviewer {
			query = query.Joins("JOIN reviewer_assignments ra ON ra.abstract_id = abstracts.abstract_id").
				Where("ra.reviewer_id = ? AND ra.delete_at IS NULL", actor.UserID)
		} else {
			query = query.Where("user_id = ?", actor.UserID)
		}
	}

	var abstracts []models.Abstract
	if err := query.Order("submitted_at ASC, abstract_id ASC").Find(&abstracts).Error; err != nil {
		return nil, InternalError("failed to list abstracts", err)
	}
	return abstracts, nil
}

// transition applies a version-checked status change and records history.
// The caller owns the surrounding transaction.
func (s *WorkflowService) transition(tx *gorm.DB, abstract *models.Abstract, target string, changedBy int, reason string, now time.Time) error {
	if !models.CanTransition(abstract.Status, target) {
		return StateError("cannot move abstract from %s to %s", abstract.Status, target)
	}

	result := tx.Model(&models.Abstract{}).
		Where("abstract_id = ? AND version = ?", abstract.AbstractID, abstract.Version).
		Updates(map[string]interface{}{
			"status":    target,
			"version":   abstract.Version + 1,
			"update_at": now,
		})
	if result.Error != nil {
		return InternalError("failed to update status", result.Error)
	}
	if result.RowsAffected == 0 {
		return ConflictError("abstract was modified concurrently")
	}

	oldStatus := abstract.Status
	history := models.AbstractStatusHistory{
		AbstractID: abstract.AbstractID,
		OldStatus:  &oldStatus,
		NewStatus:  target,
		ChangedBy:  changedBy,
		CreatedAt:  now,
	}
	if reason != "" {
		history.Reason = &reason
	}
	if err := tx.Create(&history).Error; err != nil {
		return InternalError("failed to record status history", err)
	}
	return nil
}

func (s *WorkflowService) audit(tx *gorm.DB, actor Actor, action string, abstract *models.Abstract, values map[string]interface{}, now time.Time) error {
	serialized, _ := json.Marshal(values)
	payload := string(serialized)
	entityID := abstract.AbstractID
	number := abstract.AbstractNumber
	audit := models.AuditLog{
		UserID:       actor.UserID,
		Action:       action,
		EntityType:   "abstract",
		EntityID:     &entityID,
		EntityNumber: &number,
		NewValues:    &payload,
		CreatedAt:    now,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return InternalError("failed to write audit log", err)
	}
	return nil
}

func (s *WorkflowService) canView(actor Actor, abstract *models.Abstract) (bool, error) {
	if abstract.UserID == actor.UserID {
		return true, nil
	}
	staff, err := isEventStaff(s.db, actor, abstract.EventID)
	if err != nil {
		return false, err
	}
	if staff {
		return true, nil
	}
	return isAssignedReviewer(s.db, abstract.AbstractID, actor.UserID)
}
