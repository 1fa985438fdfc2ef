package services

import (
	"fmt"
	"log"

	"abstract-review-api/config"
	"abstract-review-api/models"

	"gorm.io/gorm"
)

// WorkflowEvent is the payload emitted after a committed transition.
type WorkflowEvent struct {
	Name       string
	AbstractID int
	Recipients []int
	Title      string
	Message    string
}

// Notifier delivers workflow events. Delivery is fire-and-forget: a committed
// status change is never rolled back because a notification failed.
type Notifier interface {
	Emit(event WorkflowEvent)
}

// DBNotifier writes notification rows and mails recipients asynchronously.
type DBNotifier struct {
	db *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{db: db}
}

// Emit records one notification per recipient and attempts email delivery in
// the background. Failures are logged and dropped.
func (n *DBNotifier) Emit(event WorkflowEvent) {
	go n.deliver(event)
}

func (n *DBNotifier) deliver(event WorkflowEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notifier: panic delivering %s: %v", event.Name, r)
		}
	}()

	abstractID := uint(event.AbstractID)
	for _, recipient := range event.Recipients {
		notification := models.Notification{
			UserID:            uint(recipient),
			Title:             event.Title,
			Message:           event.Message,
			Type:              "info",
			RelatedAbstractID: &abstractID,
		}
		if err := n.db.Create(&notification).Error; err != nil {
			log.Printf("notifier: failed to store notification for user %d: %v", recipient, err)
		}
	}

	var emails []string
	if err := n.db.Model(&models.User{}).
		Where("user_id IN ? AND delete_at IS NULL", event.Recipients).
		Pluck("email", &emails).Error; err != nil {
		log.Printf("notifier: failed to resolve recipient emails: %v", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	body := fmt.Sprintf("<p>%s</p><p>Abstract ID: %d</p>", event.Message, event.AbstractID)
	if err := config.SendMail(emails, event.Title, body); err != nil {
		log.Printf("notifier: failed to send %s email: %v", event.Name, err)
	}
}

// NopNotifier discards events. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Emit(WorkflowEvent) {}
