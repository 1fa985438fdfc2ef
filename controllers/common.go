package controllers

import (
	"log"
	"net/http"
	"sync"

	"abstract-review-api/config"
	"abstract-review-api/services"

	"github.com/gin-gonic/gin"
)

var (
	servicesOnce        sync.Once
	workflowService     *services.WorkflowService
	assignmentService   *services.AssignmentService
	reviewService       *services.ReviewService
	verificationService *services.VerificationService
)

func initServices() {
	notifier := services.NewDBNotifier(config.DB)
	workflowService = services.NewWorkflowService(config.DB, notifier)
	assignmentService = services.NewAssignmentService(config.DB, notifier, workflowService, services.MaxReviewersFromEnv())
	reviewService = services.NewReviewService(config.DB, notifier)
	verificationService = services.NewVerificationService(config.DB, notifier, workflowService)
}

func getWorkflowService() *services.WorkflowService {
	servicesOnce.Do(initServices)
	return workflowService
}

func getAssignmentService() *services.AssignmentService {
	servicesOnce.Do(initServices)
	return assignmentService
}

func getReviewService() *services.ReviewService {
	servicesOnce.Do(initServices)
	return reviewService
}

func getVerificationService() *services.VerificationService {
	servicesOnce.Do(initServices)
	return verificationService
}

// actorFromContext rebuilds the explicit actor the services expect from the
// authenticated request context.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return services.Actor{}, false
	}
	roleID, exists := c.Get("roleID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Role context missing"})
		return services.Actor{}, false
	}
	email, _ := c.Get("email")
	emailValue, _ := email.(string)

	return services.Actor{
		UserID: userID.(int),
		RoleID: roleID.(int),
		Email:  emailValue,
	}, true
}

// respondServiceError maps typed workflow errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case services.ErrorValidation:
		status = http.StatusBadRequest
	case services.ErrorPermission:
		status = http.StatusForbidden
	case services.ErrorState:
		status = http.StatusConflict
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	default:
		log.Printf("internal error: %v", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"error_kind": string(kind),
	})
}
