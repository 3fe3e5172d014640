package tracker

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zombor/taxishift/internal/scanning"
	"github.com/zombor/taxishift/internal/shift"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid driver ID or password")
	ErrUnauthenticated      = errors.New("not logged in")
	ErrShiftNotFound        = errors.New("shift not found")
	ErrExtractionInProgress = errors.New("a receipt is already being processed")
	ErrImageTooLarge        = errors.New("image is too large")
	ErrStorage              = errors.New("storage failure")
)

// ValidationError is a problem with caller input. Message is shown to the driver as is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// storageError marks err as a persistence failure
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// apiError is the JSON body of every error response
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// classifyError maps an error to its HTTP status and the text shown to the driver
func classifyError(err error, maxImageSize int64) (int, apiError) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, apiError{validationErr.Message, "validation"}
	case errors.Is(err, shift.ErrInvalidInput):
		return http.StatusBadRequest, apiError{err.Error(), "validation"}
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, apiError{"Invalid Driver ID or Password.", "credentials"}
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, apiError{"Your session has ended. Please log in again.", "unauthenticated"}
	case errors.Is(err, ErrShiftNotFound):
		return http.StatusNotFound, apiError{"Shift not found.", "not_found"}
	case errors.Is(err, ErrExtractionInProgress):
		return http.StatusConflict, apiError{"A receipt is already being processed. Wait for it to finish before uploading another.", "busy"}
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, apiError{
			fmt.Sprintf("File is too large. Maximum size is %d MB. Please compress or resize your image.", maxImageSize>>20),
			"too_large",
		}
	case errors.Is(err, scanning.ErrConfiguration):
		return http.StatusServiceUnavailable, apiError{"Receipt scanning is not configured. Ask the administrator to set the extraction API key.", "configuration"}
	case errors.Is(err, scanning.ErrAuthorization):
		return http.StatusServiceUnavailable, apiError{"The receipt scanning service rejected its API key. Ask the administrator to update it.", "authorization"}
	case errors.Is(err, scanning.ErrExtraction):
		return http.StatusUnprocessableEntity, apiError{"Could not read the summary report from this photo. Take a clear photo of the whole report and try again.", "extraction"}
	case errors.Is(err, ErrStorage):
		return http.StatusInternalServerError, apiError{"Could not save your data. Please try again.", "storage"}
	default:
		return http.StatusInternalServerError, apiError{"Internal server error", "internal"}
	}
}
