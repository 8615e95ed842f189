package handlers

import (
	"errors"
	"net/http"

	"github.com/pizza-app/auth-service/middleware"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())
	message := publicMessage(err)
	var writeErr error

	switch services.GetErrorType(err) {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, r, message)

	case services.ErrorTypeValidation:
		fields := services.GetFieldErrors(err)
		if len(fields) == 0 {
			writeErr = utils.WriteBadRequest(w, r, message)
			break
		}
		entries := make([]utils.ErrorEntry, 0, len(fields))
		for _, f := range fields {
			entries = append(entries, utils.ErrorEntry{Message: f.Message, Field: f.Field})
		}
		writeErr = utils.WriteErrors(w, r, http.StatusBadRequest, entries...)

	case services.ErrorTypeInvalidCredentials:
		writeErr = utils.WriteBadRequest(w, r, message)

	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, r, message)

	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, r, message)

	case services.ErrorTypeRateLimit:
		writeErr = utils.WriteTooManyRequests(w, r, message)

	case services.ErrorTypeInternal, services.ErrorTypeKeyUnavailable, services.ErrorTypeSigning, services.ErrorTypeStore:
		// Log internal errors but return generic message
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, r, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, r, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response",
			zap.String("request_id", requestID),
			zap.Error(writeErr))
	}
}

// publicMessage is the message of the outermost domain error
func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
