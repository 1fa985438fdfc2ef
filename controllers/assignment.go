// controllers/assignment.go
package controllers

import (
	"net/http"
	"strconv"

	"abstract-review-api/services"

	"github.com/gin-gonic/gin"
)

// ===================== REVIEWER ASSIGNMENT =====================

type AssignReviewerRequest struct {
	ReviewerID int `json:"reviewer_id" binding:"required"`
}

// AssignReviewer attaches one reviewer to an abstract.
func AssignReviewer(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	abstract, err := getAssignmentService().AssignReviewer(actor, abstractID, req.ReviewerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Reviewer assigned",
		"abstract": abstract,
	})
}

type BulkAssignRequest struct {
	Pairs []services.AssignmentPair `json:"pairs" binding:"required"`
}

// BulkAssignReviewers applies a list of (abstract, reviewer) pairs and
// returns per-pair outcomes. One bad pair never aborts the batch.
func BulkAssignReviewers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Pairs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No assignment pairs supplied"})
		return
	}

	outcomes := getAssignmentService().BulkAssign(actor, req.Pairs)

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"outcomes":  outcomes,
		"total":     len(outcomes),
		"succeeded": succeeded,
		"failed":    len(outcomes) - succeeded,
	})
}

type AutoAssignRequest struct {
	EventID     int `json:"event_id" binding:"required"`
	PerAbstract int `json:"reviewers_per_abstract"`
}

// AutoAssignReviewers runs the load-balanced auto-assigner for an event.
func AutoAssignReviewers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := getAssignmentService().AutoAssign(actor, req.EventID, req.PerAbstract)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
