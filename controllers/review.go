// controllers/review.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ===================== REVIEWS & PROGRESS =====================

type SubmitReviewRequest struct {
	Recommendation string   `json:"recommendation" binding:"required"`
	Score          *float64 `json:"score"`
	Comments       string   `json:"comments"`
}

// SubmitReview records one reviewer's judgment for an abstract.
func SubmitReview(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := getReviewService().SubmitReview(actor, abstractID, req.Recommendation, req.Score, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Review recorded",
		"review":  review,
	})
}

// GetReviews lists all reviews for an abstract.
func GetReviews(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	// Visibility check rides on the abstract itself.
	if _, err := getWorkflowService().GetFor(actor, abstractID); err != nil {
		respondServiceError(c, err)
		return
	}

	reviews, err := getReviewService().ListReviews(abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// GetReviewProgress reports assigned vs completed reviews for an abstract.
func GetReviewProgress(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	if _, err := getWorkflowService().GetFor(actor, abstractID); err != nil {
		respondServiceError(c, err)
		return
	}

	progress, err := getReviewService().Progress(abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"progress": progress,
	})
}

// GetEventDashboard returns all abstracts of an event annotated with review
// progress, oldest-pending-first.
func GetEventDashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	annotated, err := getReviewService().ListWithProgress(actor, eventID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"abstracts": annotated,
		"total":     len(annotated),
	})
}
