package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_UnwrapToCodedSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "unsupported prefecture",
			err:      &UnsupportedPrefectureError{Prefecture: "Atlantis"},
			sentinel: constants.ErrUnsupportedPrefecture,
			message:  "unsupported prefecture: Atlantis",
		},
		{
			name:     "missing coefficient",
			err:      &MissingCoefficientError{Key: "Z9"},
			sentinel: constants.ErrMissingCoefficient,
			message:  "coefficient not defined for: Z9",
		},
		{
			name:     "invalid input",
			err:      &InvalidInputError{Field: "area_ha", Reason: "must be >= 0"},
			sentinel: constants.ErrInvalidInput,
			message:  "invalid area_ha: must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("estimate: %w", tt.err)

			assert.Equal(t, tt.message, tt.err.Error())
			assert.True(t, errors.Is(wrapped, tt.sentinel))
		})
	}
}

func TestNewCoefficientKey_RegionFirst(t *testing.T) {
	assert.Equal(t, CoefficientKey("A3"), NewCoefficientKey("A", "3"))
}
