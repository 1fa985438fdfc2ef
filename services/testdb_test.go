package services

import (
	"fmt"
	"testing"
	"time"

	"abstract-review-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database migrated with the full
// schema. Each test gets its own database name so parallel tests cannot
// observe each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Event{},
		&models.EventReviewer{},
		&models.EventStaff{},
		&models.Category{},
		&models.SubTopic{},
		&models.FileUpload{},
		&models.Abstract{},
		&models.AbstractStatusHistory{},
		&models.AbstractComment{},
		&models.ReviewerAssignment{},
		&models.Review{},
		&models.Decision{},
		&models.VerificationProof{},
		&models.Notification{},
		&models.AuditLog{},
	)
	require.NoError(t, err, "migrate test schema")

	return db
}

type testFixture struct {
	db         *gorm.DB
	workflow   *WorkflowService
	assignment *AssignmentService
	review     *ReviewService
	verify     *VerificationService

	event    models.Event
	category models.Category

	registrant Actor
	author     Actor
	staff      Actor
}

// newFixture wires the full service stack over one test database and seeds an
// open event with a category and the three base actors.
func newFixture(t *testing.T) *testFixture {
	t.Helper()

	db := newTestDB(t)
	notifier := NopNotifier{}
	workflow := NewWorkflowService(db, notifier)

	f := &testFixture{
		db:         db,
		workflow:   workflow,
		assignment: NewAssignmentService(db, notifier, workflow, DefaultMaxReviewers),
		review:     NewReviewService(db, notifier),
		verify:     NewVerificationService(db, notifier, workflow),
	}

	f.event = models.Event{
		EventName:      "Annual Research Meeting",
		EventCode:      "ARM26",
		SubmissionOpen: true,
		CreateAt:       time.Now(),
	}
	require.NoError(t, db.Create(&f.event).Error)

	f.category = models.Category{
		EventID:      f.event.EventID,
		CategoryName: "Clinical Science",
		CreateAt:     time.Now(),
	}
	require.NoError(t, db.Create(&f.category).Error)

	f.registrant = f.createActor(t, models.RoleRegistrant, "registrant@example.org")
	f.author = f.createActor(t, models.RoleAuthor, "author@example.org")
	f.staff = f.createActor(t, models.RoleStaff, "staff@example.org")

	return f
}

func (f *testFixture) createActor(t *testing.T, roleID int, email string) Actor {
	t.Helper()

	user := models.User{
		UserFname: "Test",
		UserLname: email,
		Email:     email,
		Password:  "hashed",
		RoleID:    roleID,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return Actor{UserID: user.UserID, RoleID: roleID, Email: email}
}

// createReviewer makes a reviewer user and puts them on the event roster.
func (f *testFixture) createReviewer(t *testing.T, email string) Actor {
	t.Helper()

	actor := f.createActor(t, models.RoleReviewer, email)
	roster := models.EventReviewer{
		EventID:  f.event.EventID,
		UserID:   actor.UserID,
		AddedBy:  f.staff.UserID,
		CreateAt: time.Now(),
	}
	require.NoError(t, f.db.Create(&roster).Error)
	return actor
}

// submit creates an abstract owned by the given actor.
func (f *testFixture) submit(t *testing.T, owner Actor, title string) *models.Abstract {
	t.Helper()

	abstract, err := f.workflow.Submit(owner, SubmitRequest{
		EventID:    f.event.EventID,
		Title:      title,
		Authors:    "A. Researcher; B. Colleague",
		CategoryID: f.category.CategoryID,
	})
	require.NoError(t, err)
	return abstract
}

// underReview submits an abstract and assigns the given reviewers.
func (f *testFixture) underReview(t *testing.T, owner Actor, reviewers ...Actor) *models.Abstract {
	t.Helper()

	abstract := f.submit(t, owner, "Abstract under review")
	for _, reviewer := range reviewers {
		_, err := f.assignment.AssignReviewer(f.staff, abstract.AbstractID, reviewer.UserID)
		require.NoError(t, err)
	}
	refreshed, err := f.workflow.Get(abstract.AbstractID)
	require.NoError(t, err)
	return refreshed
}
