package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"abstract-review-api/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// DefaultMaxReviewers caps reviewers per abstract unless overridden by the
// MAX_REVIEWERS_PER_ABSTRACT environment variable.
const DefaultMaxReviewers = 3

// MaxReviewersFromEnv resolves the per-abstract reviewer cap.
func MaxReviewersFromEnv() int {
	if raw := os.Getenv("MAX_REVIEWERS_PER_ABSTRACT"); raw != "" {
		if cap, err := strconv.Atoi(raw); err == nil && cap > 0 {
			return cap
		}
	}
	return DefaultMaxReviewers
}

// AssignmentService attaches reviewers to abstracts, manually or via the
// load-balanced auto-assigner. Status flips go through the workflow engine.
type AssignmentService struct {
	db             *gorm.DB
	notifier       Notifier
	workflow       *WorkflowService
	maxPerAbstract int
	autoRuns       singleflight.Group
}

func NewAssignmentService(db *gorm.DB, notifier Notifier, workflow *WorkflowService, maxPerAbstract int) *AssignmentService {
	if maxPerAbstract <= 0 {
		maxPerAbstract = DefaultMaxReviewers
	}
	return &AssignmentService{db: db, notifier: notifier, workflow: workflow, maxPerAbstract: maxPerAbstract}
}

// AssignmentPair is one (abstract, reviewer) request in a bulk assignment.
type AssignmentPair struct {
	AbstractID int `json:"abstract_id"`
	ReviewerID int `json:"reviewer_id"`
}

// AssignmentOutcome is the per-pair result of a bulk or auto assignment run.
type AssignmentOutcome struct {
	AbstractID int       `json:"abstract_id"`
	ReviewerID int       `json:"reviewer_id"`
	Success    bool      `json:"success"`
	Created    bool      `json:"created"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// AutoAssignResult is the complete outcome of one auto-assignment run.
type AutoAssignResult struct {
	EventID       int                 `json:"event_id"`
	Outcomes      []AssignmentOutcome `json:"outcomes"`
	ReviewerLoads map[int]int         `json:"reviewer_loads"`
}

// AssignReviewer attaches one reviewer. The first assignment moves the
// abstract from submitted to under_review; repeating an existing pair is a
// no-op, not a duplicate.
func (s *AssignmentService) AssignReviewer(actor Actor, abstractID, reviewerID int) (*models.Abstract, error) {
	if _, err := s.assignChecked(actor, abstractID, reviewerID); err != nil {
		return nil, err
	}
	return s.workflow.Get(abstractID)
}

// assignChecked runs the staff and roster checks before assigning. Returns
// created=false when the pair already existed.
func (s *AssignmentService) assignChecked(actor Actor, abstractID, reviewerID int) (bool, error) {
	abstract, err := s.workflow.Get(abstractID)
	if err != nil {
		return false, err
	}
	if err := requireEventStaff(s.db, actor, abstract.EventID); err != nil {
		return false, err
	}

	onRoster, err := isEventReviewer(s.db, abstract.EventID, reviewerID)
	if err != nil {
		return false, err
	}
	if !onRoster {
		return false, PermissionError("user %d is not a reviewer for event %d", reviewerID, abstract.EventID)
	}

	return s.assign(actor, abstractID, reviewerID)
}

// BulkAssign applies each pair independently and reports per-pair outcomes.
// One invalid pair never aborts the batch.
func (s *AssignmentService) BulkAssign(actor Actor, pairs []AssignmentPair) []AssignmentOutcome {
	outcomes := make([]AssignmentOutcome, 0, len(pairs))
	for _, pair := range pairs {
		outcome := AssignmentOutcome{AbstractID: pair.AbstractID, ReviewerID: pair.ReviewerID}
		created, err := s.assignChecked(actor, pair.AbstractID, pair.ReviewerID)
		if err != nil {
			outcome.ErrorKind = KindOf(err)
			outcome.Error = err.Error()
		} else {
			outcome.Success = true
			outcome.Created = created
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// AutoAssign distributes reviewers over under-assigned abstracts of an event,
// least-loaded-first. Runs for the same event are single-flighted so racing
// invocations cannot double-assign from stale load snapshots.
func (s *AssignmentService) AutoAssign(actor Actor, eventID, perAbstract int) (*AutoAssignResult, error) {
	if err := requireEventStaff(s.db, actor, eventID); err != nil {
		return nil, err
	}
	if perAbstract <= 0 {
		perAbstract = 1
	}
	if perAbstract > s.maxPerAbstract {
		return nil, ValidationError("reviewers per abstract cannot exceed cap of %d", s.maxPerAbstract)
	}

	key := fmt.Sprintf("auto-assign:%d", eventID)
	value, err, _ := s.autoRuns.Do(key, func() (interface{}, error) {
		return s.runAutoAssign(actor, eventID, perAbstract)
	})
	if err != nil {
		return nil, err
	}
	return value.(*AutoAssignResult), nil
}

func (s *AssignmentService) runAutoAssign(actor Actor, eventID, perAbstract int) (*AutoAssignResult, error) {
	var reviewerIDs []int
	if err := s.db.Model(&models.EventReviewer{}).
		Where("event_id = ? AND delete_at IS NULL", eventID).
		Order("user_id ASC").
		Pluck("user_id", &reviewerIDs).Error; err != nil {
		return nil, InternalError("failed to load reviewer roster", err)
	}
	if len(reviewerIDs) == 0 {
		return nil, StateError("event %d has no reviewers on its roster", eventID)
	}

	// One consistent load snapshot for the whole run.
	loads := make(map[int]int, len(reviewerIDs))
	for _, id := range reviewerIDs {
		loads[id] = 0
	}
	type loadRow struct {
		ReviewerID int
		Total      int
	}
	var rows []loadRow
	if err := s.db.Model(&models.ReviewerAssignment{}).
		Select("reviewer_assignments.reviewer_id AS reviewer_id, COUNT(*) AS total").
		Joins("JOIN abstracts ON abstracts.abstract_id = reviewer_assignments.abstract_id").
		Where("abstracts.event_id = ? AND abstracts.delete_at IS NULL", eventID).
		Where("reviewer_assignments.delete_at IS NULL").
		Group("reviewer_assignments.reviewer_id").
		Scan(&rows).Error; err != nil {
		return nil, InternalError("failed to snapshot reviewer loads", err)
	}
	for _, row := range rows {
		if _, ok := loads[row.ReviewerID]; ok {
			loads[row.ReviewerID] = row.Total
		}
	}

	var abstracts []models.Abstract
	if err := s.db.Preload("Assignments", "delete_at IS NULL").
		Where("event_id = ? AND delete_at IS NULL", eventID).
		Where("status IN ?", []string{models.StatusSubmitted, models.StatusUnderReview}).
		Order("create_at ASC, abstract_id ASC").
		Find(&abstracts).Error; err != nil {
		return nil, InternalError("failed to load abstracts", err)
	}

	result := &AutoAssignResult{EventID: eventID, Outcomes: []AssignmentOutcome{}}
	for i := range abstracts {
		abstract := &abstracts[i]
		assigned := make(map[int]bool, len(abstract.Assignments))
		for _, a := range abstract.Assignments {
			assigned[a.ReviewerID] = true
		}

		for len(assigned) < perAbstract {
			reviewerID, ok := pickLeastLoaded(reviewerIDs, loads, assigned)
			if !ok {
				break
			}
			outcome := AssignmentOutcome{AbstractID: abstract.AbstractID, ReviewerID: reviewerID}
			created, err := s.assign(actor, abstract.AbstractID, reviewerID)
			if err != nil {
				outcome.ErrorKind = KindOf(err)
				outcome.Error = err.Error()
			} else {
				outcome.Success = true
				outcome.Created = created
				if created {
					loads[reviewerID]++
				}
			}
			assigned[reviewerID] = true
			result.Outcomes = append(result.Outcomes, outcome)
		}
	}

	result.ReviewerLoads = loads
	return result, nil
}

// pickLeastLoaded selects the least-loaded eligible reviewer, ties broken by
// the lower reviewer id, so runs are reproducible on the same snapshot.
func pickLeastLoaded(reviewerIDs []int, loads map[int]int, exclude map[int]bool) (int, bool) {
	candidates := make([]int, 0, len(reviewerIDs))
	for _, id := range reviewerIDs {
		if !exclude[id] {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if loads[candidates[i]] != loads[candidates[j]] {
			return loads[candidates[i]] < loads[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}

// assign creates the assignment row and flips submitted abstracts to
// under_review. Returns created=false for idempotent repeats.
func (s *AssignmentService) assign(actor Actor, abstractID, reviewerID int) (bool, error) {
	abstract, err := s.workflow.Get(abstractID)
	if err != nil {
		return false, err
	}
	if abstract.Status != models.StatusSubmitted && abstract.Status != models.StatusUnderReview {
		return false, StateError("abstract is %s, reviewers can only be assigned while submitted or under_review", abstract.Status)
	}

	already, err := isAssignedReviewer(s.db, abstractID, reviewerID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	var active int64
	if err := s.db.Model(&models.ReviewerAssignment{}).
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		Count(&active).Error; err != nil {
		return false, InternalError("failed to count assignments", err)
	}
	if int(active) >= s.maxPerAbstract {
		return false, StateError("abstract %d already has the maximum of %d reviewers", abstractID, s.maxPerAbstract)
	}

	now := time.Now()
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	assignment := models.ReviewerAssignment{
		AbstractID: abstractID,
		ReviewerID: reviewerID,
		AssignedBy: actor.UserID,
		AssignedAt: now,
	}
	if err := tx.Create(&assignment).Error; err != nil {
		tx.Rollback()
		// A racing assignment of the same pair hit the unique index first;
		// treat it as the idempotent no-op it is.
		if exists, checkErr := isAssignedReviewer(s.db, abstractID, reviewerID); checkErr == nil && exists {
			return false, nil
		}
		return false, InternalError("failed to create assignment", err)
	}

	if abstract.Status == models.StatusSubmitted {
		if err := s.workflow.transition(tx, abstract, models.StatusUnderReview, actor.UserID, "", now); err != nil {
			tx.Rollback()
			return false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return false, InternalError("failed to commit assignment", err)
	}

	s.notifier.Emit(WorkflowEvent{
		Name:       "abstract.reviewer_assigned",
		AbstractID: abstractID,
		Recipients: []int{reviewerID},
		Title:      "New abstract assigned",
		Message:    fmt.Sprintf("You have been assigned abstract %s for review.", abstract.AbstractNumber),
	})

	return true, nil
}
