package constants

import "net/http"

// CodedError is an error that knows the HTTP status it should be rendered with.
type CodedError struct {
	code int
	msg  string
}

func NewCodedError(code int, msg string) *CodedError {
	return &CodedError{code: code, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound            = NewCodedError(http.StatusNotFound, "not found")
	ErrInvalidInput          = NewCodedError(http.StatusBadRequest, "invalid input")
	ErrUnsupportedPrefecture = NewCodedError(http.StatusUnprocessableEntity, "unsupported prefecture")
	ErrMissingCoefficient    = NewCodedError(http.StatusInternalServerError, "coefficient not defined")
	ErrSessionNotFound       = NewCodedError(http.StatusNotFound, "session not found")
	ErrCellNotFound          = NewCodedError(http.StatusNotFound, "no paddy cell at this point")
	ErrNoAreaSelected        = NewCodedError(http.StatusConflict, "no paddy area selected")
	ErrGridUnavailable       = NewCodedError(http.StatusServiceUnavailable, "paddy grid is not loaded")
)
