package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	ok := InspectionItem{Section: "VISUAL", Item: "Pintura", Status: ItemStatusOperational}
	faultWithPhoto := InspectionItem{Section: "VISUAL", Item: "Espejos", Status: ItemStatusOperationalWithFault, PhotoRef: "p1.jpg"}
	inoperativeNoPhoto := InspectionItem{Section: "VISUAL", Item: "Extintor", Status: ItemStatusInoperative}
	faultNoPhoto := InspectionItem{Section: "NIVELES", Item: "Aceite hidráulico", Status: ItemStatusOperationalWithFault}

	t.Run("valid submission", func(t *testing.T) {
		err := ValidateSubmission([]InspectionItem{ok, faultWithPhoto}, "sig1")
		assert.NoError(t, err)
	})

	t.Run("missing signature", func(t *testing.T) {
		err := ValidateSubmission([]InspectionItem{ok}, "  ")
		require.Error(t, err)

		var se *SubmissionError
		require.True(t, errors.As(err, &se))
		assert.True(t, se.MissingSignature)
		assert.Empty(t, se.MissingEvidence)
		assert.True(t, errors.Is(err, ErrMissingSignature))
		assert.Equal(t, EINVALID, ErrorCode(err))
	})

	t.Run("missing evidence names every offending item", func(t *testing.T) {
		err := ValidateSubmission([]InspectionItem{inoperativeNoPhoto, ok, faultNoPhoto}, "sig1")
		require.Error(t, err)

		var se *SubmissionError
		require.True(t, errors.As(err, &se))
		assert.False(t, se.MissingSignature)
		require.Len(t, se.MissingEvidence, 2)
		assert.Equal(t, "Extintor", se.MissingEvidence[0].Item)
		assert.Equal(t, 0, se.MissingEvidence[0].Index)
		assert.Equal(t, "Aceite hidráulico", se.MissingEvidence[1].Item)
		assert.Equal(t, 2, se.MissingEvidence[1].Index)
		assert.False(t, errors.Is(err, ErrMissingSignature))

		fields := se.Fields()
		assert.Contains(t, fields, "items[0].photo_ref")
		assert.Contains(t, fields, "items[2].photo_ref")
	})

	t.Run("signature and evidence reported together", func(t *testing.T) {
		err := ValidateSubmission([]InspectionItem{inoperativeNoPhoto}, "")

		var se *SubmissionError
		require.True(t, errors.As(err, &se))
		assert.True(t, se.MissingSignature)
		assert.Len(t, se.MissingEvidence, 1)
		assert.Contains(t, err.Error(), "Extintor")
	})

	t.Run("no items", func(t *testing.T) {
		err := ValidateSubmission(nil, "sig1")

		var se *SubmissionError
		require.True(t, errors.As(err, &se))
		assert.True(t, se.NoItems)
	})

	t.Run("unknown status", func(t *testing.T) {
		err := ValidateSubmission([]InspectionItem{{Item: "Pintura", Status: "BROKEN"}}, "sig1")

		var se *SubmissionError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, []int{0}, se.InvalidStatus)
	})
}
