package services

import (
	"testing"

	"abstract-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReviewRecordsReview(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	score := 8.0
	review, err := f.review.SubmitReview(reviewer, abstract.AbstractID, "accept", &score, "solid methodology")
	require.NoError(t, err)

	assert.Equal(t, models.RecommendAccept, review.Recommendation)
	require.NotNil(t, review.Score)
	assert.Equal(t, 8.0, *review.Score)

	// A review never changes the abstract's status.
	refreshed, err := f.workflow.Get(abstract.AbstractID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, refreshed.Status)
}

func TestSubmitReviewRequiresAssignment(t *testing.T) {
	f := newFixture(t)
	assigned := f.createReviewer(t, "r1@example.org")
	unassigned := f.createReviewer(t, "r2@example.org")
	abstract := f.underReview(t, f.registrant, assigned)

	_, err := f.review.SubmitReview(unassigned, abstract.AbstractID, "accept", nil, "")
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
}

func TestSubmitReviewOncePerReviewer(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	_, err := f.review.SubmitReview(reviewer, abstract.AbstractID, "revise", nil, "needs work")
	require.NoError(t, err)

	_, err = f.review.SubmitReview(reviewer, abstract.AbstractID, "accept", nil, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))
	assert.Contains(t, err.Error(), "already reviewed")

	reviews, err := f.review.ListReviews(abstract.AbstractID)
	require.NoError(t, err)
	require.Len(t, reviews, 1, "failed duplicate leaves the review list unchanged")
	assert.Equal(t, models.RecommendRevise, reviews[0].Recommendation)

	// The rejected duplicate leaves no transaction open; fresh writes on the
	// same pool still go through.
	second := f.createReviewer(t, "r2@example.org")
	_, err = f.assignment.AssignReviewer(f.staff, abstract.AbstractID, second.UserID)
	require.NoError(t, err)
	_, err = f.review.SubmitReview(second, abstract.AbstractID, "accept", nil, "")
	require.NoError(t, err)
}

func TestSubmitReviewValidation(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)

	_, err := f.review.SubmitReview(reviewer, abstract.AbstractID, "maybe", nil, "")
	require.Error(t, err)
	assert.Equal(t, ErrorValidation, KindOf(err))

	_, err = f.review.SubmitReview(reviewer, 9999, "accept", nil, "")
	require.Error(t, err)
	assert.Equal(t, ErrorNotFound, KindOf(err))
}

func TestSubmitReviewOutsideUnderReview(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")
	abstract := f.underReview(t, f.registrant, reviewer)
	_, err := f.workflow.Decide(f.staff, abstract.AbstractID, models.DecisionApproved, "")
	require.NoError(t, err)

	_, err = f.review.SubmitReview(reviewer, abstract.AbstractID, "accept", nil, "")
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))
}

func TestReviewProgress(t *testing.T) {
	f := newFixture(t)
	r1 := f.createReviewer(t, "r1@example.org")
	r2 := f.createReviewer(t, "r2@example.org")
	r3 := f.createReviewer(t, "r3@example.org")
	abstract := f.underReview(t, f.registrant, r1, r2, r3)

	_, err := f.review.SubmitReview(r2, abstract.AbstractID, "accept", nil, "")
	require.NoError(t, err)

	progress, err := f.review.Progress(abstract.AbstractID)
	require.NoError(t, err)

	assert.Equal(t, 3, progress.AssignedCount)
	assert.Equal(t, 1, progress.CompletedCount)
	assert.Equal(t, []int{r1.UserID, r3.UserID}, progress.PendingReviewerIDs)
}

func TestListWithProgressOrdering(t *testing.T) {
	f := newFixture(t)
	reviewer := f.createReviewer(t, "r1@example.org")

	first := f.underReview(t, f.registrant, reviewer)
	second := f.underReview(t, f.registrant, reviewer)
	third := f.underReview(t, f.registrant, reviewer)

	// Decide the oldest; it should fall behind the still-pending ones.
	_, err := f.workflow.Decide(f.staff, first.AbstractID, models.DecisionApproved, "")
	require.NoError(t, err)

	annotated, err := f.review.ListWithProgress(f.staff, f.event.EventID)
	require.NoError(t, err)
	require.Len(t, annotated, 3)

	assert.Equal(t, second.AbstractID, annotated[0].Abstract.AbstractID)
	assert.Equal(t, third.AbstractID, annotated[1].Abstract.AbstractID)
	assert.Equal(t, first.AbstractID, annotated[2].Abstract.AbstractID)

	assert.Equal(t, 1, annotated[0].Progress.AssignedCount)
	assert.Equal(t, 0, annotated[0].Progress.CompletedCount)
}

func TestListWithProgressRequiresStaff(t *testing.T) {
	f := newFixture(t)

	_, err := f.review.ListWithProgress(f.registrant, f.event.EventID)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
}
