package services

import (
	"abstract-review-api/models"

	"gorm.io/gorm"
)

// isEventReviewer checks the event reviewer roster. Reviewer capability is
// per-event; the global reviewer role alone is not enough.
func isEventReviewer(db *gorm.DB, eventID, userID int) (bool, error) {
	var count int64
	err := db.Model(&models.EventReviewer{}).
		Where("event_id = ? AND user_id = ? AND delete_at IS NULL", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, InternalError("failed to check reviewer roster", err)
	}
	return count > 0, nil
}

// isEventStaff reports whether the actor may act as staff for the event:
// either the global staff role or a row on the event staff roster.
func isEventStaff(db *gorm.DB, actor Actor, eventID int) (bool, error) {
	if actor.IsStaff() {
		return true, nil
	}
	var count int64
	err := db.Model(&models.EventStaff{}).
		Where("event_id = ? AND user_id = ? AND delete_at IS NULL", eventID, actor.UserID).
		Count(&count).Error
	if err != nil {
		return false, InternalError("failed to check staff roster", err)
	}
	return count > 0, nil
}

func requireEventStaff(db *gorm.DB, actor Actor, eventID int) error {
	ok, err := isEventStaff(db, actor, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return PermissionError("staff capability required for this event")
	}
	return nil
}

// isAssignedReviewer reports whether the user holds an active assignment on
// the abstract.
func isAssignedReviewer(db *gorm.DB, abstractID, userID int) (bool, error) {
	var count int64
	err := db.Model(&models.ReviewerAssignment{}).
		Where("abstract_id = ? AND reviewer_id = ? AND delete_at IS NULL", abstractID, userID).
		Count(&count).Error
	if err != nil {
		return false, InternalError("failed to check assignment", err)
	}
	return count > 0, nil
}
