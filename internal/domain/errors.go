package domain

import (
	"fmt"

	"github.com/ougirez/ricech4/internal/pkg/constants"
)

type UnsupportedPrefectureError struct {
	Prefecture Prefecture
}

func (e *UnsupportedPrefectureError) Error() string {
	return fmt.Sprintf("unsupported prefecture: %s", e.Prefecture)
}

func (e *UnsupportedPrefectureError) Unwrap() error {
	return constants.ErrUnsupportedPrefecture
}

// MissingCoefficientError means the coefficient table has no entry for Key.
// It points at a gap in the configuration, not at bad user input.
type MissingCoefficientError struct {
	Key CoefficientKey
}

func (e *MissingCoefficientError) Error() string {
	return fmt.Sprintf("coefficient not defined for: %s", e.Key)
}

func (e *MissingCoefficientError) Unwrap() error {
	return constants.ErrMissingCoefficient
}

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return constants.ErrInvalidInput
}
