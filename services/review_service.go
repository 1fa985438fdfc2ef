package services

import (
	"sort"
	"strings"
	"time"

	"abstract-review-api/models"

	"gorm.io/gorm"
)

// ReviewService stores individual reviewer judgments and exposes progress.
// It deliberately never derives a decision from recommendations or scores;
// staff remain the sole deciding authority.
type ReviewService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewReviewService(db *gorm.DB, notifier Notifier) *ReviewService {
	return &ReviewService{db: db, notifier: notifier}
}

// ReviewProgress summarizes review completion for one abstract.
type ReviewProgress struct {
	AbstractID         int   `json:"abstract_id"`
	AssignedCount      int   `json:"assigned_count"`
	CompletedCount     int   `json:"completed_count"`
	PendingReviewerIDs []int `json:"pending_reviewer_ids"`
}

// AbstractProgress annotates an abstract with its review progress for the
// staff dashboard.
type AbstractProgress struct {
	Abstract models.Abstract `json:"abstract"`
	Progress ReviewProgress  `json:"progress"`
}

// SubmitReview records one reviewer's judgment. The reviewer must hold an
// assignment and must not have reviewed this abstract before. Recording a
// review never changes the abstract's status.
func (s *ReviewService) SubmitReview(actor Actor, abstractID int, recommendation string, score *float64, comments string) (*models.Review, error) {
	recommendation = strings.ToLower(strings.TrimSpace(recommendation))
	if !models.ValidRecommendation(recommendation) {
		return nil, ValidationError("recommendation must be accept, reject or revise")
	}

	var abstract models.Abstract
	if err := s.db.Where("abstract_id = ? AND delete_at IS NULL", abstractID).First(&abstract).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("abstract %d not found", abstractID)
		}
		return nil, InternalError("failed to load abstract", err)
	}
	if abstract.Status != models.StatusUnderReview {
		return nil, StateError("abstract is %s, reviews require under_review", abstract.Status)
	}

	assigned, err := isAssignedReviewer(s.db, abstractID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, PermissionError("you are not assigned to abstract %d", abstractID)
	}

	review := models.Review{
		AbstractID:     abstractID,
		ReviewerID:     actor.UserID,
		Recommendation: recommendation,
		Score:          score,
		ReviewedAt:     time.Now(),
	}
	comments = strings.TrimSpace(comments)
	if comments != "" {
		review.Comments = &comments
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing int64
	if err := tx.Model(&models.Review{}).
		Where("abstract_id = ? AND reviewer_id = ?", abstractID, actor.UserID).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, InternalError("failed to check prior review", err)
	}
	if existing > 0 {
		tx.Rollback()
		return nil, StateError("already reviewed")
	}

	if err := tx.Create(&review).Error; err != nil {
		tx.Rollback()
		// The unique index catches the race the count check cannot.
		var recheck int64
		recheckErr := s.db.Model(&models.Review{}).
			Where("abstract_id = ? AND reviewer_id = ?", abstractID, actor.UserID).
			Count(&recheck).Error
		if recheckErr == nil && recheck > 0 {
			return nil, StateError("already reviewed")
		}
		return nil, InternalError("failed to store review", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, InternalError("failed to commit review", err)
	}

	s.notifier.Emit(WorkflowEvent{
		Name:       "abstract.reviewed",
		AbstractID: abstractID,
		Recipients: []int{abstract.UserID},
		Title:      "Review received",
		Message:    "A reviewer has submitted a review for your abstract.",
	})

	return &review, nil
}

// ListReviews returns all reviews for one abstract, oldest first.
func (s *ReviewService) ListReviews(abstractID int) ([]models.Review, error) {
	var count int64
	if err := s.db.Model(&models.Abstract{}).
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		Count(&count).Error; err != nil {
		return nil, InternalError("failed to load abstract", err)
	}
	if count == 0 {
		return nil, NotFoundError("abstract %d not found", abstractID)
	}

	var reviews []models.Review
	if err := s.db.Preload("Reviewer").
		Where("abstract_id = ?", abstractID).
		Order("reviewed_at ASC, review_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, InternalError("failed to list reviews", err)
	}
	return reviews, nil
}

// Progress reports assigned vs completed reviews and who is still pending.
func (s *ReviewService) Progress(abstractID int) (*ReviewProgress, error) {
	var count int64
	if err := s.db.Model(&models.Abstract{}).
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		Count(&count).Error; err != nil {
		return nil, InternalError("failed to load abstract", err)
	}
	if count == 0 {
		return nil, NotFoundError("abstract %d not found", abstractID)
	}

	var assignedIDs []int
	if err := s.db.Model(&models.ReviewerAssignment{}).
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		Order("reviewer_id ASC").
		Pluck("reviewer_id", &assignedIDs).Error; err != nil {
		return nil, InternalError("failed to list assignments", err)
	}

	var reviewedIDs []int
	if err := s.db.Model(&models.Review{}).
		Where("abstract_id = ?", abstractID).
		Pluck("reviewer_id", &reviewedIDs).Error; err != nil {
		return nil, InternalError("failed to list reviews", err)
	}

	reviewed := make(map[int]bool, len(reviewedIDs))
	for _, id := range reviewedIDs {
		reviewed[id] = true
	}

	progress := &ReviewProgress{
		AbstractID:         abstractID,
		AssignedCount:      len(assignedIDs),
		CompletedCount:     0,
		PendingReviewerIDs: []int{},
	}
	for _, id := range assignedIDs {
		if reviewed[id] {
			progress.CompletedCount++
		} else {
			progress.PendingReviewerIDs = append(progress.PendingReviewerIDs, id)
		}
	}
	return progress, nil
}

// ListWithProgress returns every abstract of an event annotated with its
// review progress. Abstracts still awaiting work come first, oldest first;
// decided ones trail in the same order.
func (s *ReviewService) ListWithProgress(actor Actor, eventID int) ([]AbstractProgress, error) {
	if err := requireEventStaff(s.db, actor, eventID); err != nil {
		return nil, err
	}

	var abstracts []models.Abstract
	if err := s.db.Preload("User").
		Preload("Category").
		Where("event_id = ? AND delete_at IS NULL", eventID).
		Order("submitted_at ASC, abstract_id ASC").
		Find(&abstracts).Error; err != nil {
		return nil, InternalError("failed to list abstracts", err)
	}

	annotated := make([]AbstractProgress, 0, len(abstracts))
	for i := range abstracts {
		progress, err := s.Progress(abstracts[i].AbstractID)
		if err != nil {
			return nil, err
		}
		annotated = append(annotated, AbstractProgress{Abstract: abstracts[i], Progress: *progress})
	}

	// Oldest-pending-first: anything not yet decided sorts ahead of
	// terminal abstracts, submission order preserved within each group.
	sort.SliceStable(annotated, func(i, j int) bool {
		iTerminal := models.IsTerminalStatus(annotated[i].Abstract.Status)
		jTerminal := models.IsTerminalStatus(annotated[j].Abstract.Status)
		if iTerminal != jTerminal {
			return !iTerminal
		}
		return false
	})
	return annotated, nil
}
