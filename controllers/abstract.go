// controllers/abstract.go
package controllers

import (
	"net/http"
	"strconv"

	"abstract-review-api/services"
	"abstract-review-api/utils"

	"github.com/gin-gonic/gin"
)

// ===================== ABSTRACT WORKFLOW =====================

type SubmitAbstractRequest struct {
	EventID    utils.FlexID `json:"event_id" binding:"required"`
	Title      string       `json:"title" binding:"required"`
	Authors    string       `json:"authors" binding:"required"`
	CategoryID utils.FlexID `json:"category_id" binding:"required"`
	SubTopicID utils.FlexID `json:"sub_topic_id"`
	Content    *string      `json:"content"`
	FileID     utils.FlexID `json:"file_id"`
}

// SubmitAbstract creates a new abstract in status submitted.
func SubmitAbstract(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req SubmitAbstractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	abstract, err := getWorkflowService().Submit(actor, services.SubmitRequest{
		EventID:    req.EventID.Int(),
		Title:      utils.SanitizeInput(req.Title),
		Authors:    utils.SanitizeInput(req.Authors),
		CategoryID: req.CategoryID.Int(),
		SubTopicID: req.SubTopicID.IntPtr(),
		Content:    req.Content,
		FileID:     req.FileID.IntPtr(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Abstract submitted",
		"abstract": abstract,
	})
}

// GetAbstracts lists the abstracts visible to the caller.
func GetAbstracts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	eventID := 0
	if raw := c.Query("event_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event_id"})
			return
		}
		eventID = parsed
	}

	abstracts, err := getWorkflowService().List(actor, eventID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"abstracts": abstracts,
		"total":     len(abstracts),
	})
}

// GetAbstract returns a specific abstract
func GetAbstract(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	abstract, err := getWorkflowService().GetFor(actor, abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"abstract": abstract,
	})
}

type ResubmitAbstractRequest struct {
	Title   *string      `json:"title"`
	Authors *string      `json:"authors"`
	Content *string      `json:"content"`
	FileID  utils.FlexID `json:"file_id"`
}

// ResubmitAbstract re-enters review after a revision request.
func ResubmitAbstract(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req ResubmitAbstractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	abstract, err := getWorkflowService().Resubmit(actor, abstractID, services.ResubmitRequest{
		Title:   req.Title,
		Authors: req.Authors,
		Content: req.Content,
		FileID:  req.FileID.IntPtr(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Abstract resubmitted for review",
		"abstract": abstract,
	})
}

type DecideAbstractRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Reason string `json:"reason"`
}

// DecideAbstract records the staff verdict for an abstract.
func DecideAbstract(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req DecideAbstractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	abstract, err := getWorkflowService().Decide(actor, abstractID, req.Kind, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Decision recorded",
		"abstract": abstract,
	})
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment appends to the abstract's comment thread.
func AddComment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := getWorkflowService().Comment(actor, abstractID, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": comment,
	})
}

// GetComments returns the abstract's comment thread.
func GetComments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	comments, err := getWorkflowService().Comments(actor, abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"comments": comments,
		"total":    len(comments),
	})
}
