package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
)

// Error kinds reported in the response body.
const (
	KindValidation     = "ValidationError"
	KindInvalidContent = "InvalidContentType"
	KindNotFound       = "NotFound"
	KindUnauthorized   = "Unauthorized"
	KindForbidden      = "Forbidden"
	KindConflict       = "ConflictError"
	KindUploadFailed   = "UploadFailed"
	KindStorageTimeout = "StorageTimeout"
	KindTooLarge       = "PayloadTooLarge"
	KindInternal       = "InternalError"
)

// ApiErr is an error with a known HTTP representation.
type ApiErr struct {
	StatusCode int
	Kind       string
	Message    string
	Field      string
	Details    string
}

func (e *ApiErr) Error() string { return e.Message }

func newValidationError(field, message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message, Field: field}
}

// toApiErr maps domain errors onto HTTP statuses. The order matters:
// ErrInvalidContentType also matches ErrValidation.
func toApiErr(err error) *ApiErr {
	var apiErr *ApiErr
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &ApiErr{StatusCode: http.StatusRequestEntityTooLarge, Kind: KindTooLarge, Message: "upload too large"}
	case errors.Is(err, common.ErrInvalidContentType):
		return &ApiErr{StatusCode: http.StatusUnsupportedMediaType, Kind: KindInvalidContent, Message: err.Error()}
	case errors.Is(err, common.ErrValidation):
		return &ApiErr{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: err.Error()}
	case errors.Is(err, common.ErrorNotFound):
		return &ApiErr{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked):
		return &ApiErr{StatusCode: http.StatusUnauthorized, Kind: KindUnauthorized, Message: err.Error()}
	case errors.Is(err, common.ErrorForbidden):
		return &ApiErr{StatusCode: http.StatusForbidden, Kind: KindForbidden, Message: err.Error()}
	case errors.Is(err, common.ErrConflict):
		return &ApiErr{StatusCode: http.StatusConflict, Kind: KindConflict, Message: err.Error()}
	case errors.Is(err, common.ErrStorageTimeout):
		return &ApiErr{StatusCode: http.StatusGatewayTimeout, Kind: KindStorageTimeout, Message: err.Error()}
	case errors.Is(err, common.ErrUploadFailed):
		return &ApiErr{StatusCode: http.StatusBadGateway, Kind: KindUploadFailed, Message: err.Error()}
	default:
		return nil
	}
}
