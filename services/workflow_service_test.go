package services

import (
	"testing"

	"abstract-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCreatesSubmittedAbstract(t *testing.T) {
	f := newFixture(t)

	abstract, err := f.workflow.Submit(f.registrant, SubmitRequest{
		EventID:    f.event.EventID,
		Title:      "Deep Phenotyping of Rare Disease",
		Authors:    "A. Researcher",
		CategoryID: f.category.CategoryID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusSubmitted, abstract.Status)
	assert.Equal(t, "AB-ARM26-0001", abstract.AbstractNumber)
	assert.Equal(t, f.registrant.UserID, abstract.UserID)
	assert.Equal(t, 0, abstract.RevisionCount)
	assert.Equal(t, 1, abstract.Version)

	var history []models.AbstractStatusHistory
	require.NoError(t, f.db.Where("abstract_id = ?", abstract.AbstractID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, models.StatusSubmitted, history[0].NewStatus)

	// Sequence advances per event
	second := f.submit(t, f.registrant, "Second Abstract")
	assert.Equal(t, "AB-ARM26-0002", second.AbstractNumber)
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"missing title", SubmitRequest{EventID: f.event.EventID, Authors: "A", CategoryID: f.category.CategoryID}},
		{"missing authors", SubmitRequest{EventID: f.event.EventID, Title: "T", CategoryID: f.category.CategoryID}},
		{"missing category", SubmitRequest{EventID: f.event.EventID, Title: "T", Authors: "A"}},
		{"foreign category", SubmitRequest{EventID: f.event.EventID, Title: "T", Authors: "A", CategoryID: f.category.CategoryID + 999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.workflow.Submit(f.registrant, tc.req)
			require.Error(t, err)
			assert.Equal(t, ErrorValidation, KindOf(err))
		})
	}

	// Content and file attachment stay optional.
	_, err := f.workflow.Submit(f.registrant, SubmitRequest{
		EventID:    f.event.EventID,
		Title:      "No content, no file",
		Authors:    "A",
		CategoryID: f.category.CategoryID,
	})
	assert.NoError(t, err)
}

func TestSubmitRejectsNonOwnerRoles(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")

	_, err := f.workflow.Submit(reviewer, SubmitRequest{
		EventID:    f.event.EventID,
		Title:      "T",
		Authors:    "A",
		CategoryID: f.category.CategoryID,
	})
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
}

func TestSubmitClosedEvent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Event{}).
		Where("event_id = ?", f.event.EventID).
		Update("submission_open", false).Error)

	_, err := f.workflow.Submit(f.registrant, SubmitRequest{
		EventID:    f.event.EventID,
		Title:      "T",
		Authors:    "A",
		CategoryID: f.category.CategoryID,
	})
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))
}

func TestDecideReasonRules(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")

	t.Run("reject without reason fails", func(t *testing.T) {
		abstract := f.underReview(t, f.registrant, reviewer)
		_, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionRejected, "")
		require.Error(t, err)
		assert.Equal(t, ErrorValidation, KindOf(err))
	})

	t.Run("revision without reason fails", func(t *testing.T) {
		abstract := f.underReview(t, f.registrant, reviewer)
		_, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionRevisionRequested, "   ")
		require.Error(t, err)
		assert.Equal(t, ErrorValidation, KindOf(err))
	})

	t.Run("approve without reason succeeds", func(t *testing.T) {
		abstract := f.underReview(t, f.registrant, reviewer)
		decided, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionApproved, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, decided.Status)
		require.NotNil(t, decided.Decision)
		assert.Equal(t, models.DecisionApproved, decided.Decision.Kind)
	})
}

func TestDecideRequiresUnderReview(t *testing.T) {
	f := newFixture(t)

	abstract := f.submit(t, f.registrant, "Still submitted")
	_, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionApproved, "")
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))
}

func TestDecideRequiresStaff(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	_, err := f.workflow.Decide(f.registrant, abstract.AbstractID, models.DecisionApproved, "")
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
}

func TestDecideInvalidKind(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	_, err := f.workflow.Decide(f.staff, abstract.AbstractID, "escalated", "because")
	require.Error(t, err)
	assert.Equal(t, ErrorValidation, KindOf(err))
}

func TestRevisionCycle(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	decided, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionRevisionRequested, "clarify methods")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevisionRequested, decided.Status)
	require.NotNil(t, decided.Decision)

	newContent := "revised content"
	resubmitted, err := f.workflow.Resubmit(f.registrant, abstract.AbstractID, ResubmitRequest{Content: &newContent})
	require.NoError(t, err)

	assert.Equal(t, models.StatusUnderReview, resubmitted.Status)
	assert.Equal(t, 1, resubmitted.RevisionCount)
	assert.Nil(t, resubmitted.Decision, "resubmission clears the current decision")
	require.NotNil(t, resubmitted.Content)
	assert.Equal(t, newContent, *resubmitted.Content)

	// The decision trail is preserved, just superseded.
	var decisions []models.Decision
	require.NoError(t, f.db.Where("abstract_id = ?", abstract.AbstractID).Find(&decisions).Error)
	require.Len(t, decisions, 1)
	assert.NotNil(t, decisions[0].SupersededAt)
}

func TestResubmitGuards(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")

	t.Run("outside revision_requested", func(t *testing.T) {
		abstract := f.underReview(t, f.registrant, reviewer)
		_, err := f.workflow.Resubmit(f.registrant, abstract.AbstractID, ResubmitRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorState, KindOf(err))
	})

	t.Run("non-owner", func(t *testing.T) {
		abstract := f.underReview(t, f.registrant, reviewer)
		_, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionRevisionRequested, "revise")
		require.NoError(t, err)

		_, err = f.workflow.Resubmit(f.author, abstract.AbstractID, ResubmitRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorPermission, KindOf(err))
	})
}

func TestTransitionVersionConflict(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	// Another writer bumps the version between load and commit.
	stale, err := f.workflow.Get(abstract.AbstractID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Abstract{}).
		Where("abstract_id = ?", abstract.AbstractID).
		Update("version", stale.Version+1).Error)

	_, err = f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionApproved, "")
	require.NoError(t, err, "decide reloads and sees the fresh version")

	// A write racing on a stale snapshot is rejected.
	tx := f.db.Begin()
	err = f.workflow.transition(tx, stale, models.StatusApproved, f.staff.UserID, "", stale.SubmittedAt)
	tx.Rollback()
	require.Error(t, err)
	assert.Equal(t, ErrorConflict, KindOf(err))
}

func TestTransitionGraphEnforced(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	approved, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Terminal states admit no further decisions or resubmissions.
	_, err = f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionRejected, "no")
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))

	_, err = f.workflow.Resubmit(f.registrant, abstract.AbstractID, ResubmitRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))

	// No abstract reaches a terminal state without passing under_review.
	var history []models.AbstractStatusHistory
	require.NoError(t, f.db.Where("abstract_id = ?", abstract.AbstractID).
		Order("history_id ASC").Find(&history).Error)
	statuses := make([]string, 0, len(history))
	for _, h := range history {
		statuses = append(statuses, h.NewStatus)
	}
	assert.Equal(t, []string{models.StatusSubmitted, models.StatusUnderReview, models.StatusApproved}, statuses)
}

func TestCommentThread(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)
	before := abstract.Status

	_, err := f.workflow.Comment(f.registrant, abstract.AbstractID, "please advise on figure 2")
	require.NoError(t, err)
	_, err = f.workflow.Comment(reviewer, abstract.AbstractID, "figure 2 looks fine")
	require.NoError(t, err)

	// A stranger cannot comment.
	_, err = f.workflow.Comment(f.author, abstract.AbstractID, "drive-by")
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))

	comments, err := f.workflow.Comments(f.staff, abstract.AbstractID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	refreshed, err := f.workflow.Get(abstract.AbstractID)
	require.NoError(t, err)
	assert.Equal(t, before, refreshed.Status, "comments never change status")
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Get(9999)
	require.Error(t, err)
	assert.Equal(t, ErrorNotFound, KindOf(err))
}
