// controllers/event.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"abstract-review-api/config"
	"abstract-review-api/models"
	"abstract-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetEvents lists events accepting or having accepted abstracts.
func GetEvents(c *gin.Context) {
	var events []models.Event
	if err := config.DB.Where("delete_at IS NULL").Order("start_date DESC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
		"total":   len(events),
	})
}

// GetEvent returns a specific event.
func GetEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := config.DB.Where("event_id = ? AND delete_at IS NULL", eventID).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   event,
	})
}

// GetCategories lists categories, optionally scoped to one event.
func GetCategories(c *gin.Context) {
	if raw := c.Query("event_id"); raw != "" {
		eventID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event_id"})
			return
		}
		categories, err := services.GetCategoriesForEvent(eventID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
		return
	}

	categories, err := services.GetCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
}

// GetEventReviewers lists the reviewer roster for an event.
func GetEventReviewers(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var reviewers []models.EventReviewer
	if err := config.DB.Preload("User").
		Where("event_id = ? AND delete_at IS NULL", eventID).
		Order("user_id ASC").
		Find(&reviewers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviewers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"reviewers": reviewers,
		"total":     len(reviewers),
	})
}

type AddEventReviewerRequest struct {
	UserID int `json:"user_id" binding:"required"`
}

// AddEventReviewer puts a user on the event's reviewer roster.
func AddEventReviewer(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var req AddEventReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", req.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var existing int64
	config.DB.Model(&models.EventReviewer{}).
		Where("event_id = ? AND user_id = ? AND delete_at IS NULL", eventID, req.UserID).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reviewer already on roster"})
		return
	}

	reviewer := models.EventReviewer{
		EventID:  eventID,
		UserID:   req.UserID,
		AddedBy:  actor.UserID,
		CreateAt: time.Now(),
	}
	if err := config.DB.Create(&reviewer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add reviewer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Reviewer added to roster",
		"reviewer": reviewer,
	})
}
