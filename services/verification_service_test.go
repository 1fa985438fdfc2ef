package services

import (
	"testing"
	"time"

	"abstract-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *testFixture) createFile(t *testing.T, uploadedBy int) *models.FileUpload {
	t.Helper()

	now := time.Now()
	file := models.FileUpload{
		OriginalName: "proof.pdf",
		StoredPath:   "/tmp/proof.pdf",
		FileSize:     1024,
		MimeType:     "application/pdf",
		UploadedBy:   uploadedBy,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	require.NoError(t, f.db.Create(&file).Error)
	return &file
}

func TestUploadProofSetsPending(t *testing.T) {
	f := newFixture(t)
	abstract := f.submit(t, f.author, "Author abstract")
	file := f.createFile(t, f.author.UserID)

	proof, err := f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, file.FileID)
	require.NoError(t, err)
	assert.Equal(t, models.ProofPending, proof.Status)

	// Re-upload while pending replaces the file.
	replacement := f.createFile(t, f.author.UserID)
	proof, err = f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, replacement.FileID)
	require.NoError(t, err)
	assert.Equal(t, replacement.FileID, proof.FileID)
	assert.Equal(t, models.ProofPending, proof.Status)
}

func TestUploadProofGuards(t *testing.T) {
	f := newFixture(t)
	file := f.createFile(t, f.author.UserID)

	t.Run("non-owner", func(t *testing.T) {
		abstract := f.submit(t, f.author, "Someone else's abstract")
		_, err := f.verify.UploadRegistrationProof(f.registrant, abstract.AbstractID, file.FileID)
		require.Error(t, err)
		assert.Equal(t, ErrorPermission, KindOf(err))
	})

	t.Run("registrant flow has no gate", func(t *testing.T) {
		abstract := f.submit(t, f.registrant, "Registrant abstract")
		_, err := f.verify.UploadRegistrationProof(f.registrant, abstract.AbstractID, file.FileID)
		require.Error(t, err)
		assert.Equal(t, ErrorState, KindOf(err))
	})

	t.Run("after verdict", func(t *testing.T) {
		abstract := f.submit(t, f.author, "Verified abstract")
		_, err := f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, file.FileID)
		require.NoError(t, err)
		_, err = f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofVerified)
		require.NoError(t, err)

		_, err = f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, file.FileID)
		require.Error(t, err)
		assert.Equal(t, ErrorState, KindOf(err))
	})
}

func TestVerifyRegistrationProof(t *testing.T) {
	f := newFixture(t)
	abstract := f.submit(t, f.author, "Author abstract")
	file := f.createFile(t, f.author.UserID)

	// No proof yet.
	_, err := f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofVerified)
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))

	_, err = f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, file.FileID)
	require.NoError(t, err)

	// Invalid verdict.
	_, err = f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, "maybe")
	require.Error(t, err)
	assert.Equal(t, ErrorValidation, KindOf(err))

	// Staff only.
	_, err = f.verify.VerifyRegistrationProof(f.author, abstract.AbstractID, models.ProofVerified)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))

	proof, err := f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofVerified)
	require.NoError(t, err)
	assert.Equal(t, models.ProofVerified, proof.Status)
	require.NotNil(t, proof.VerifiedBy)
	assert.Equal(t, f.staff.UserID, *proof.VerifiedBy)

	// Verdicts are final for a given proof.
	_, err = f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofRejected)
	require.Error(t, err)
	assert.Equal(t, ErrorState, KindOf(err))
}

func TestFinalFileGate(t *testing.T) {
	f := newFixture(t)
	abstract := f.submit(t, f.author, "Author abstract")
	proofFile := f.createFile(t, f.author.UserID)
	finalFile := f.createFile(t, f.author.UserID)

	// Before any proof: blocked.
	_, err := f.verify.UploadFinalFile(f.author, abstract.AbstractID, finalFile.FileID)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
	assert.Contains(t, err.Error(), "verification required")

	// Pending proof: still blocked.
	_, err = f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, proofFile.FileID)
	require.NoError(t, err)
	_, err = f.verify.UploadFinalFile(f.author, abstract.AbstractID, finalFile.FileID)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))

	// Verified: the identical call succeeds.
	_, err = f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofVerified)
	require.NoError(t, err)
	updated, err := f.verify.UploadFinalFile(f.author, abstract.AbstractID, finalFile.FileID)
	require.NoError(t, err)
	require.NotNil(t, updated.FinalFileID)
	assert.Equal(t, finalFile.FileID, *updated.FinalFileID)
}

func TestFinalFileRejectedProof(t *testing.T) {
	f := newFixture(t)
	abstract := f.submit(t, f.author, "Author abstract")
	proofFile := f.createFile(t, f.author.UserID)
	finalFile := f.createFile(t, f.author.UserID)

	_, err := f.verify.UploadRegistrationProof(f.author, abstract.AbstractID, proofFile.FileID)
	require.NoError(t, err)
	_, err = f.verify.VerifyRegistrationProof(f.staff, abstract.AbstractID, models.ProofRejected)
	require.NoError(t, err)

	_, err = f.verify.UploadFinalFile(f.author, abstract.AbstractID, finalFile.FileID)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))

	// The owner stays the only one who can even attempt the upload.
	_, err = f.verify.UploadFinalFile(f.staff, abstract.AbstractID, finalFile.FileID)
	require.Error(t, err)
	assert.Equal(t, ErrorPermission, KindOf(err))
}
