// controllers/verification.go
package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ===================== VERIFICATION GATE (author flow) =====================

// UploadRegistrationProof attaches the owning author's proof of registration.
func UploadRegistrationProof(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proof file is required"})
		return
	}

	file, err := saveUploadedFile(header, actor.UserID, "proofs")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proof, svcErr := getVerificationService().UploadRegistrationProof(actor, abstractID, file.FileID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration proof uploaded",
		"proof":   proof,
	})
}

type VerifyProofRequest struct {
	Verdict string `json:"verdict" binding:"required"`
}

// VerifyRegistrationProof records the staff verdict on a pending proof.
func VerifyRegistrationProof(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	var req VerifyProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proof, svcErr := getVerificationService().VerifyRegistrationProof(actor, abstractID, strings.ToLower(strings.TrimSpace(req.Verdict)))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verdict recorded",
		"proof":   proof,
	})
}

// GetVerificationProof returns the current gate state for an abstract.
func GetVerificationProof(c *gin.Context) {
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

	proof, svcErr := getVerificationService().Proof(abstractID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	status := "unset"
	if proof != nil {
		status = proof.Status
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  status,
		"proof":   proof,
	})
}

// UploadFinalFile attaches the camera-ready file once verification passed.
func UploadFinalFile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Final file is required"})
		return
	}

	file, err := saveUploadedFile(header, actor.UserID, "final")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	abstract, svcErr := getVerificationService().UploadFinalFile(actor, abstractID, file.FileID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Final file attached",
		"abstract": abstract,
	})
}
